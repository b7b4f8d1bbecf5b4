// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// PTermPresenter implementa Presenter con un spinner por stage.
type PTermPresenter struct {
	mu       sync.Mutex
	out      io.Writer
	animated bool

	// Spinners activos por stage
	spinners map[string]*pterm.SpinnerPrinter
}

var _ Presenter = (*PTermPresenter)(nil)

// NewPTermPresenter crea un presenter que escribe en stderr.
func NewPTermPresenter() *PTermPresenter {
	return NewPTermPresenterTo(os.Stderr, true)
}

// NewPTermPresenterTo escribe en out. Sin animación solo se imprimen las
// líneas finales de cada stage (útil fuera de una TTY y en tests).
func NewPTermPresenterTo(out io.Writer, animated bool) *PTermPresenter {
	return &PTermPresenter{
		out:      out,
		animated: animated,
		spinners: make(map[string]*pterm.SpinnerPrinter),
	}
}

// StartStage notifica el inicio de un stage
func (p *PTermPresenter) StartStage(stage StageInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.animated {
		return
	}

	spinner, err := pterm.DefaultSpinner.
		WithWriter(p.out).
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷").
		WithRemoveWhenDone(true).
		Start(fmt.Sprintf("%s %s...", stageLabel(stage), pterm.Cyan(stage.Name)))
	if err == nil {
		p.spinners[stage.Name] = spinner
	}
}

// FinishStage notifica la finalización de un stage
func (p *PTermPresenter) FinishStage(stage StageInfo, status Status, duration time.Duration, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if spinner, ok := p.spinners[stage.Name]; ok {
		_ = spinner.Stop()
		delete(p.spinners, stage.Name)
	}

	line := fmt.Sprintf("%s %s %s (%s)",
		status.Style().Sprint(status.Symbol()),
		stageLabel(stage),
		stage.Name,
		FormatDuration(duration),
	)
	if detail != "" {
		line += " " + pterm.Gray(detail)
	}
	fmt.Fprintln(p.out, line)
}

// Info muestra un mensaje informativo
func (p *PTermPresenter) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pterm.Info.WithWriter(p.out).Println(msg)
}

// Warning muestra una advertencia
func (p *PTermPresenter) Warning(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pterm.Warning.WithWriter(p.out).Println(msg)
}

// Error muestra un error
func (p *PTermPresenter) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pterm.Error.WithWriter(p.out).Println(msg)
}

// Close detiene los spinners activos
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, spinner := range p.spinners {
		_ = spinner.Stop()
		delete(p.spinners, name)
	}
	return nil
}

func stageLabel(stage StageInfo) string {
	if stage.TotalStages == 0 {
		return IconStage
	}
	return fmt.Sprintf("[%d/%d]", stage.Number, stage.TotalStages)
}
