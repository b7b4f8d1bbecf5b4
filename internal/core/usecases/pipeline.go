// internal/core/usecases/pipeline.go
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"domowner/internal/core/domain"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/metrics"
	"domowner/internal/platform/ui"
)

const tracerName = "domowner/pipeline"

const totalStages = 4

// PipelineOptions configura el pipeline.
type PipelineOptions struct {
	Resolver   *WhoisResolver
	Inferencer *OwnershipInferencer

	// Excluder se aplica tras la extracción y antes del WHOIS. nil = no excluye.
	Excluder Excluder

	Logger  logx.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer

	// Presenter muestra el avance por stage. nil = sin salida.
	Presenter ui.Presenter
}

// Pipeline encadena extracción, exclusión, WHOIS, contexto e inferencia
// sobre un único record. Es seguro para uso concurrente: no guarda estado
// entre ejecuciones.
type Pipeline struct {
	resolver   *WhoisResolver
	inferencer *OwnershipInferencer
	excluder   Excluder
	logger     logx.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	presenter  ui.Presenter
}

// NewPipeline crea un pipeline. Resolver e Inferencer son obligatorios.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("pipeline: resolver is required")
	}
	if opts.Inferencer == nil {
		return nil, fmt.Errorf("pipeline: inferencer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Presenter == nil {
		opts.Presenter = ui.NewNoopPresenter()
	}

	return &Pipeline{
		resolver:   opts.Resolver,
		inferencer: opts.Inferencer,
		excluder:   opts.Excluder,
		logger:     opts.Logger.With("component", "pipeline"),
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		presenter:  opts.Presenter,
	}, nil
}

// Extraction is the output of the extract and exclude stages.
type Extraction struct {
	Domains  []domain.CanonicalDomain `json:"domains"`
	Excluded []domain.CanonicalDomain `json:"excluded"`
}

// Extract runs only the offline stages: extraction and exclusion.
func Extract(record domain.Record, ex Excluder) Extraction {
	kept, excluded := ApplyExcluder(ex, record, ExtractDomains(record))
	if excluded == nil {
		excluded = []domain.CanonicalDomain{}
	}
	return Extraction{Domains: kept, Excluded: excluded}
}

// Run ejecuta el pipeline completo. WHOIS failures never fail the run; an
// inference failure returns the partial report (Answer nil, Error set)
// together with the error.
func (p *Pipeline) Run(ctx context.Context, record domain.Record) (*domain.Report, error) {
	if record.Len() == 0 {
		return nil, domain.ErrEmptyRecord
	}

	report := domain.NewReport(uuid.NewString(), record)
	report.Question = p.inferencer.Question()
	logger := p.logger.With("run_id", report.RunID)

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("run_id", report.RunID)))
	defer span.End()

	// 1-2. Extracción + exclusión
	stage := ui.StageInfo{Number: 1, TotalStages: totalStages, Name: "extract"}
	p.presenter.StartStage(stage)
	stageStart := time.Now()
	_, extractSpan := p.tracer.Start(ctx, "pipeline.extract")
	ext := Extract(record, p.excluder)
	report.Domains = ext.Domains
	report.Excluded = ext.Excluded
	extractSpan.SetAttributes(
		attribute.Int("domains", len(ext.Domains)),
		attribute.Int("excluded", len(ext.Excluded)),
	)
	extractSpan.End()
	p.metrics.ObserveExtraction(len(ext.Domains), len(ext.Excluded))
	p.presenter.FinishStage(stage, ui.StatusSuccess, time.Since(stageStart),
		fmt.Sprintf("%d domains, %d excluded", len(ext.Domains), len(ext.Excluded)))

	logger.Info("domains extracted",
		"domains", report.DomainStrings(),
		"excluded", len(ext.Excluded),
	)

	// 3. WHOIS
	stage = ui.StageInfo{Number: 2, TotalStages: totalStages, Name: "whois"}
	p.presenter.StartStage(stage)
	stageStart = time.Now()
	resolveCtx, resolveSpan := p.tracer.Start(ctx, "pipeline.resolve",
		trace.WithAttributes(attribute.String("backend", p.resolver.Backend())))
	report.Whois = p.resolver.Resolve(resolveCtx, ext.Domains)
	resolveSpan.SetAttributes(attribute.Int("failed", len(report.Whois.Failed())))
	resolveSpan.End()
	p.presenter.FinishStage(stage, whoisStatus(report.Whois), time.Since(stageStart),
		fmt.Sprintf("%d/%d lookups ok", report.Whois.Len()-len(report.Whois.Failed()), report.Whois.Len()))

	// 4. Contexto
	stage = ui.StageInfo{Number: 3, TotalStages: totalStages, Name: "context"}
	p.presenter.StartStage(stage)
	stageStart = time.Now()
	_, contextSpan := p.tracer.Start(ctx, "pipeline.context")
	report.Context = BuildContext(record, report.Whois)
	contextSpan.SetAttributes(attribute.Int("chars", len(report.Context)))
	contextSpan.End()
	p.presenter.FinishStage(stage, ui.StatusSuccess, time.Since(stageStart),
		fmt.Sprintf("%d chars", len(report.Context)))

	// 5. Inferencia
	stage = ui.StageInfo{Number: 4, TotalStages: totalStages, Name: "infer"}
	p.presenter.StartStage(stage)
	stageStart = time.Now()
	inferCtx, inferSpan := p.tracer.Start(ctx, "pipeline.infer")
	answer, err := p.inferencer.Infer(inferCtx, report.Context)
	inferStatus := ui.StatusSuccess
	if err != nil {
		inferSpan.RecordError(err)
		inferSpan.SetStatus(codes.Error, "inference failed")
		inferStatus = ui.StatusError
	}
	inferSpan.End()
	p.presenter.FinishStage(stage, inferStatus, time.Since(stageStart), p.inferencer.Name())

	report.ElapsedMs = time.Since(report.StartedAt).Milliseconds()

	if err != nil {
		report.Error = err.Error()
		span.SetStatus(codes.Error, "inference failed")
		p.metrics.ObservePipeline(pipelineOutcome(ctx), time.Since(report.StartedAt))
		logger.Err(err, "stage", "infer", "elapsed_ms", report.ElapsedMs)
		return report, err
	}

	report.Answer = answer
	p.metrics.ObservePipeline("ok", time.Since(report.StartedAt))
	logger.Info("ownership inferred",
		"answer", answer.Answer,
		"score", answer.Score,
		"elapsed_ms", report.ElapsedMs,
	)
	return report, nil
}

func whoisStatus(res domain.WhoisResult) ui.Status {
	failed := len(res.Failed())
	switch {
	case res.Len() == 0:
		return ui.StatusSkipped
	case failed == res.Len():
		return ui.StatusError
	case failed > 0:
		return ui.StatusWarning
	default:
		return ui.StatusSuccess
	}
}

func pipelineOutcome(ctx context.Context) string {
	if ctx.Err() != nil {
		return "canceled"
	}
	return "inference_error"
}
