// internal/core/ports/answerer.go
package ports

//go:generate mockgen -source=answerer.go -destination=mocks/answerer_mock.go -package=mocks

import (
	"context"

	"domowner/internal/core/domain"
)

// Answerer es la capacidad externa de question-answering extractivo.
// Devuelve el span de passage que mejor responde a question.
type Answerer interface {
	// Name identifica el proveedor (huggingface, local, ollama, openai).
	Name() string

	Answer(ctx context.Context, question, passage string) (*domain.AnswerResult, error)
}
