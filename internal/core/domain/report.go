// internal/core/domain/report.go
package domain

import (
	"strings"
	"time"
)

// DefaultQuestion is the question asked to the question-answering backend.
const DefaultQuestion = "Which organization owns this domain?"

// AnswerResult is the best-guess span returned by an extractive
// question-answering backend.
type AnswerResult struct {
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Provider string  `json:"provider,omitempty"`
	Model    string  `json:"model,omitempty"`
}

// Normalize trims the answer and clamps the score to [0,1].
func (a *AnswerResult) Normalize() {
	a.Answer = strings.TrimSpace(a.Answer)
	if a.Score < 0 {
		a.Score = 0
	}
	if a.Score > 1 {
		a.Score = 1
	}
	if a.Start < 0 {
		a.Start = 0
	}
	if a.End < a.Start {
		a.End = a.Start
	}
}

// Validate checks that the result carries an answer.
func (a AnswerResult) Validate() error {
	if strings.TrimSpace(a.Answer) == "" {
		return ErrNoAnswer
	}
	return nil
}

// Report is everything one pipeline run produced.
// Answer is nil when the inference stage failed; Error then holds the reason.
type Report struct {
	RunID     string            `json:"run_id"`
	StartedAt time.Time         `json:"started_at"`
	ElapsedMs int64             `json:"elapsed_ms"`
	Record    Record            `json:"record"`
	Domains   []CanonicalDomain `json:"domains"`
	Excluded  []CanonicalDomain `json:"excluded,omitempty"`
	Whois     WhoisResult       `json:"whois"`
	Question  string            `json:"question"`
	Context   string            `json:"context"`
	Answer    *AnswerResult     `json:"answer"`
	Error     string            `json:"error,omitempty"`
}

// NewReport creates an empty report for a run.
func NewReport(runID string, record Record) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: time.Now(),
		Record:    record,
		Domains:   []CanonicalDomain{},
	}
}

// Succeeded reports whether the run produced an answer.
func (r *Report) Succeeded() bool {
	return r != nil && r.Answer != nil && r.Error == ""
}

// DomainStrings returns the extracted domains as plain strings.
func (r *Report) DomainStrings() []string {
	out := make([]string, 0, len(r.Domains))
	for _, d := range r.Domains {
		out = append(out, string(d))
	}
	return out
}
