package build

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexibase/lexgraph"
	"github.com/lexibase/lexgraph/lock"
	"github.com/lexibase/lexgraph/source"
	"github.com/lexibase/lexgraph/store"
)

// ConceptBuilder groups senses into concepts: one concept per distinct
// (domain, part of speech, head) key, created lazily, with a BELONGS_TO
// edge from each sense into its cluster.
//
// Concept creation is the only read-then-conditionally-write critical
// section in the pipeline, so the builder holds the key's lock around the
// store's get-or-create. With the in-process KeyedMutex the race is closed
// completely; with distributed importers the residual window is closed by
// the merge pass.
type ConceptBuilder struct {
	store  store.GraphStore
	locker lock.Locker
	logger *slog.Logger
}

// NewConceptBuilder creates a ConceptBuilder. A nil locker falls back to
// an in-process KeyedMutex; a nil logger falls back to slog.Default().
func NewConceptBuilder(st store.GraphStore, locker lock.Locker, logger *slog.Logger) *ConceptBuilder {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConceptBuilder{store: st, locker: locker, logger: logger}
}

// Build clusters every candidate sense in the batch into its concept.
// Malformed records and records with no usable concept key (no headword)
// are skipped. Safe to call repeatedly for the same batch.
func (b *ConceptBuilder) Build(ctx context.Context, batch source.Batch) (Stats, error) {
	var stats Stats
	if err := batch.Validate(); err != nil {
		return stats, err
	}

	for i := range batch.Records {
		rec := &batch.Records[i]
		stats.Records++
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := rec.Validate(); err != nil {
			stats.Skipped++
			b.logger.Warn("skipping malformed record",
				"source", batch.SourceCode, "word", rec.Word, "error", err)
			continue
		}
		key := rec.ConceptKey()
		if !key.IsUsable() {
			stats.Skipped++
			b.logger.Debug("sense has no usable concept key",
				"source", batch.SourceCode, "sense", rec.SenseID)
			continue
		}
		if err := b.link(ctx, rec, key, batch.SourceCode, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// link runs the per-sense critical section: find or create the concept,
// ensure its graph node, and attach the sense.
func (b *ConceptBuilder) link(ctx context.Context, rec *source.SenseRecord, key lexgraph.ConceptKey, sourceCode string, stats *Stats) error {
	release, err := b.locker.Acquire(ctx, key.String())
	if err != nil {
		return fmt.Errorf("failed to lock concept key %q: %w", key, err)
	}
	defer release()

	concept, created, err := b.store.GetOrCreateConcept(ctx, key, rec.Domain, rec.PartOfSpeech, sourceCode)
	if err != nil {
		return fmt.Errorf("failed to get or create concept %q: %w", key, err)
	}
	if created {
		stats.ConceptsCreated++
		b.logger.Debug("created concept", "key", key, "id", concept.ID)
	}

	conceptNode, err := b.store.UpsertNode(ctx, lexgraph.KindConcept, concept.ID)
	if err != nil {
		return err
	}
	senseNode, err := b.store.UpsertNode(ctx, lexgraph.KindSense, rec.SenseID)
	if err != nil {
		return err
	}

	inserted, err := b.store.UpsertEdge(ctx, lexgraph.NewEdge(senseNode, conceptNode, lexgraph.RelBelongsTo, sourceCode, 1.0))
	if err != nil {
		return fmt.Errorf("failed to attach sense %d to concept %d: %w", rec.SenseID, concept.ID, err)
	}
	if inserted {
		stats.EdgesCreated++
	}
	return nil
}
