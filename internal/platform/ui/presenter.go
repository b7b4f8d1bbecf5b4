// internal/platform/ui/presenter.go
package ui

import (
	"time"
)

// Presenter muestra el avance del pipeline (extract, whois, infer) en la
// terminal. Las implementaciones escriben en stderr para no mezclar el
// progreso con la salida del comando.
type Presenter interface {
	// StartStage notifica el inicio de un stage
	StartStage(stage StageInfo)

	// FinishStage notifica la finalización de un stage
	FinishStage(stage StageInfo, status Status, duration time.Duration, detail string)

	// Info muestra un mensaje informativo
	Info(msg string)

	// Warning muestra una advertencia
	Warning(msg string)

	// Error muestra un error
	Error(msg string)

	// Close detiene spinners pendientes
	Close() error
}

// StageInfo identifica un stage del pipeline.
type StageInfo struct {
	Number      int
	TotalStages int
	Name        string
}
