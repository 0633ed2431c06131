// Package pipeline orchestrates the graph build stages for source
// batches: edge building, concept clustering, duplicate merging,
// confidence scoring, rank propagation and structural validation, in
// strict order. Each batch gets a run id and an OpenTelemetry span per
// stage; a failure in one batch is logged and does not abort the others,
// except for structural violations and cancellation, which are fatal.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/lexibase/lexgraph/build"
	"github.com/lexibase/lexgraph/lock"
	"github.com/lexibase/lexgraph/merge"
	"github.com/lexibase/lexgraph/rank"
	"github.com/lexibase/lexgraph/source"
	"github.com/lexibase/lexgraph/store"
	"github.com/lexibase/lexgraph/validate"
)

const otelName = "github.com/lexibase/lexgraph/pipeline"

// Result summarizes one batch run.
type Result struct {
	// RunID is the unique id assigned to this batch run.
	RunID string

	// SourceCode is the batch's dataset identifier.
	SourceCode string

	// Edges aggregates the EdgeBuilder pass.
	Edges build.Stats

	// Concepts aggregates the ConceptBuilder pass.
	Concepts build.Stats

	// Merge aggregates the duplicate-concept merge pass.
	Merge merge.Stats

	// ConceptsScored is the number of concepts the confidence pass
	// scored.
	ConceptsScored int

	// Ranks aggregates the rank recalculation pass.
	Ranks rank.Stats

	// Duration is the wall-clock time of the whole batch.
	Duration time.Duration
}

// Pipeline wires the build stages together over one graph store.
type Pipeline struct {
	store  store.GraphStore
	locker lock.Locker
	logger *slog.Logger
	tracer trace.Tracer

	batchCounter   metric.Int64Counter
	edgeCounter    metric.Int64Counter
	conceptCounter metric.Int64Counter
	batchDuration  metric.Float64Histogram
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLocker sets the concept-creation lock. Defaults to an in-process
// KeyedMutex.
func WithLocker(l lock.Locker) Option {
	return func(p *Pipeline) { p.locker = l }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTracerProvider sets the tracer provider for per-stage spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) { p.tracer = tp.Tracer(otelName) }
}

// WithMeterProvider sets the meter provider for pipeline metrics.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(p *Pipeline) { p.initMetrics(mp.Meter(otelName)) }
}

// New creates a Pipeline over the given store.
func New(st store.GraphStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:  st,
		locker: lock.NewKeyedMutex(),
		logger: slog.Default(),
		tracer: otel.Tracer(otelName),
	}
	p.initMetrics(otel.Meter(otelName))
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) initMetrics(meter metric.Meter) {
	// Instrument constructors return a usable no-op instrument alongside
	// any error, so a failure here only costs the metric.
	var err error
	p.batchCounter, err = meter.Int64Counter("lexgraph.pipeline.batches",
		metric.WithDescription("Number of source batches processed"))
	if err != nil {
		p.logger.Warn("failed to create batch counter", "error", err)
	}
	p.edgeCounter, err = meter.Int64Counter("lexgraph.pipeline.edges_created",
		metric.WithDescription("Number of graph edges inserted"))
	if err != nil {
		p.logger.Warn("failed to create edge counter", "error", err)
	}
	p.conceptCounter, err = meter.Int64Counter("lexgraph.pipeline.concepts_created",
		metric.WithDescription("Number of concepts created"))
	if err != nil {
		p.logger.Warn("failed to create concept counter", "error", err)
	}
	p.batchDuration, err = meter.Float64Histogram("lexgraph.pipeline.batch_duration",
		metric.WithDescription("Wall-clock batch duration"),
		metric.WithUnit("s"))
	if err != nil {
		p.logger.Warn("failed to create duration histogram", "error", err)
	}
}

// Run processes one source batch through all six stages in order and
// returns its Result. Any stage error aborts the batch.
func (p *Pipeline) Run(ctx context.Context, batch source.Batch) (Result, error) {
	runID := uuid.NewString()
	result := Result{RunID: runID, SourceCode: batch.SourceCode}
	logger := p.logger.With("run_id", runID, "source", batch.SourceCode)
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("lexgraph.run_id", runID),
			attribute.String("lexgraph.source_code", batch.SourceCode),
			attribute.Int("lexgraph.records", len(batch.Records)),
		))
	defer span.End()

	logger.Info("starting batch", "records", len(batch.Records))

	err := p.runStages(ctx, batch, logger, &result)
	result.Duration = time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	attrs := metric.WithAttributes(
		attribute.String("source_code", batch.SourceCode),
		attribute.String("status", status),
	)
	p.batchCounter.Add(ctx, 1, attrs)
	p.edgeCounter.Add(ctx, int64(result.Edges.EdgesCreated+result.Concepts.EdgesCreated), attrs)
	p.conceptCounter.Add(ctx, int64(result.Concepts.ConceptsCreated), attrs)
	p.batchDuration.Record(ctx, result.Duration.Seconds(), attrs)

	if err != nil {
		return result, err
	}
	logger.Info("batch complete",
		"duration", result.Duration,
		"edges_created", result.Edges.EdgesCreated,
		"concepts_created", result.Concepts.ConceptsCreated,
		"concepts_merged", result.Merge.Superseded)
	return result, nil
}

func (p *Pipeline) runStages(ctx context.Context, batch source.Batch, logger *slog.Logger, result *Result) error {
	if err := p.stage(ctx, "edges", func(ctx context.Context) error {
		stats, err := build.NewEdgeBuilder(p.store, logger).Build(ctx, batch)
		result.Edges = stats
		return err
	}); err != nil {
		return fmt.Errorf("edge build failed: %w", err)
	}

	if err := p.stage(ctx, "concepts", func(ctx context.Context) error {
		stats, err := build.NewConceptBuilder(p.store, p.locker, logger).Build(ctx, batch)
		result.Concepts = stats
		return err
	}); err != nil {
		return fmt.Errorf("concept build failed: %w", err)
	}

	if err := p.stage(ctx, "merge", func(ctx context.Context) error {
		stats, err := merge.NewMerger(p.store, logger).Merge(ctx)
		result.Merge = stats
		return err
	}); err != nil {
		return fmt.Errorf("concept merge failed: %w", err)
	}

	if err := p.stage(ctx, "confidence", func(ctx context.Context) error {
		scored, err := rank.NewConfidenceCalculator(p.store, logger).Calculate(ctx)
		result.ConceptsScored = scored
		return err
	}); err != nil {
		return fmt.Errorf("confidence pass failed: %w", err)
	}

	if err := p.stage(ctx, "ranks", func(ctx context.Context) error {
		stats, err := rank.NewCalculator(p.store, logger).Calculate(ctx)
		result.Ranks = stats
		return err
	}); err != nil {
		return fmt.Errorf("rank pass failed: %w", err)
	}

	return p.stage(ctx, "validate", func(ctx context.Context) error {
		return validate.NewValidator(p.store, logger).Validate(ctx)
	})
}

// stage wraps one pipeline stage in a span.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// RunAll processes a sequence of batches. A batch failure is logged and
// the remaining batches still run, except for structural violations and
// cancellation, which abort the whole run: a graph that fails validation
// must not keep ingesting, and an operator cancel must win immediately.
// The returned results cover the batches that ran, successful or not.
func (p *Pipeline) RunAll(ctx context.Context, batches []source.Batch) ([]Result, error) {
	results := make([]Result, 0, len(batches))
	var failed int
	for _, batch := range batches {
		result, err := p.Run(ctx, batch)
		results = append(results, result)
		if err == nil {
			continue
		}

		var structural *validate.StructuralError
		switch {
		case errors.As(err, &structural):
			return results, fmt.Errorf("batch %s: %w", batch.SourceCode, err)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return results, err
		default:
			failed++
			p.logger.Error("batch failed, continuing with remaining sources",
				"source", batch.SourceCode, "error", err)
		}
	}
	if failed > 0 {
		p.logger.Warn("run finished with failed batches",
			"batches", len(batches), "failed", failed)
	}
	return results, nil
}
