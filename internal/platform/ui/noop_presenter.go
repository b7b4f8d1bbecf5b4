// internal/platform/ui/noop_presenter.go
package ui

import "time"

// NoopPresenter no produce ninguna salida. Se usa en modo quiet, con
// --json y en el servidor HTTP.
type NoopPresenter struct{}

var _ Presenter = NoopPresenter{}

// NewNoopPresenter crea una instancia del presenter sin salida
func NewNoopPresenter() NoopPresenter {
	return NoopPresenter{}
}

func (NoopPresenter) StartStage(StageInfo)                                {}
func (NoopPresenter) FinishStage(StageInfo, Status, time.Duration, string) {}
func (NoopPresenter) Info(string)                                         {}
func (NoopPresenter) Warning(string)                                      {}
func (NoopPresenter) Error(string)                                        {}
func (NoopPresenter) Close() error                                        { return nil }
