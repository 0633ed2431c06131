// Package build derives graph structure from parsed dictionary records:
// EdgeBuilder produces the typed edges for one source batch, and
// ConceptBuilder clusters senses into concepts. Both builders write only
// through the store's idempotent upserts, so re-running either over the
// same batch (including after a partial failure) is a no-op.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lexibase/lexgraph"
	"github.com/lexibase/lexgraph/source"
	"github.com/lexibase/lexgraph/store"
)

// Stats summarizes one builder pass over a batch.
type Stats struct {
	// Records is the number of input records processed.
	Records int

	// Skipped is the number of malformed records skipped.
	Skipped int

	// EdgesCreated is the number of edge rows actually inserted
	// (no-op upserts are not counted).
	EdgesCreated int

	// ConceptsCreated is the number of concept rows created
	// (ConceptBuilder only).
	ConceptsCreated int
}

// EdgeBuilder derives typed edges from the parsed sense records of one
// source batch: word-to-sense, sense hierarchy, domain and etymology
// links, and cross-references resolved within the batch.
type EdgeBuilder struct {
	store  store.GraphStore
	logger *slog.Logger
}

// NewEdgeBuilder creates an EdgeBuilder writing to the given store.
// A nil logger falls back to slog.Default().
func NewEdgeBuilder(st store.GraphStore, logger *slog.Logger) *EdgeBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EdgeBuilder{store: st, logger: logger}
}

// batchIndex is the in-memory view of one batch used to resolve
// cross-references: target word text to word id, word id to its senses.
type batchIndex struct {
	wordByHead map[string]int64
	wordSenses map[int64][]int64
}

func (ix *batchIndex) add(rec *source.SenseRecord) {
	if rec.WordID == 0 {
		return
	}
	head := strings.ToLower(strings.TrimSpace(rec.Head))
	if head != "" {
		if existing, ok := ix.wordByHead[head]; !ok || rec.WordID < existing {
			ix.wordByHead[head] = rec.WordID
		}
	}
	ix.wordSenses[rec.WordID] = append(ix.wordSenses[rec.WordID], rec.SenseID)
}

// resolve maps a cross-reference target word text to a sense id within
// the batch: the lowest sense id of the matching canonical word.
func (ix *batchIndex) resolve(targetWord string) (int64, bool) {
	head := strings.ToLower(strings.TrimSpace(targetWord))
	wordID, ok := ix.wordByHead[head]
	if !ok {
		return 0, false
	}
	senses := ix.wordSenses[wordID]
	if len(senses) == 0 {
		return 0, false
	}
	return senses[0], true
}

// Build derives and upserts all edges for the batch. Malformed records
// are skipped and logged; the rest of the batch is processed. Safe to
// call repeatedly for the same batch.
func (b *EdgeBuilder) Build(ctx context.Context, batch source.Batch) (Stats, error) {
	var stats Stats
	if err := batch.Validate(); err != nil {
		return stats, err
	}

	ix := &batchIndex{
		wordByHead: make(map[string]int64),
		wordSenses: make(map[int64][]int64),
	}

	// First pass: validate records, ensure endpoint nodes, build the
	// cross-reference index.
	valid := make([]*source.SenseRecord, 0, len(batch.Records))
	for i := range batch.Records {
		rec := &batch.Records[i]
		stats.Records++
		if err := rec.Validate(); err != nil {
			stats.Skipped++
			b.logger.Warn("skipping malformed record",
				"source", batch.SourceCode, "word", rec.Word, "error", err)
			continue
		}
		if err := b.ensureNodes(ctx, rec); err != nil {
			return stats, err
		}
		ix.add(rec)
		valid = append(valid, rec)
	}
	for id := range ix.wordSenses {
		sort.Slice(ix.wordSenses[id], func(a, c int) bool {
			return ix.wordSenses[id][a] < ix.wordSenses[id][c]
		})
	}

	// Second pass: edges.
	for _, rec := range valid {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := b.buildRecordEdges(ctx, rec, batch.SourceCode, ix, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (b *EdgeBuilder) ensureNodes(ctx context.Context, rec *source.SenseRecord) error {
	if rec.WordID != 0 {
		if _, err := b.store.UpsertNode(ctx, lexgraph.KindWord, rec.WordID); err != nil {
			return err
		}
	}
	if _, err := b.store.UpsertNode(ctx, lexgraph.KindSense, rec.SenseID); err != nil {
		return err
	}
	if rec.WordID != 0 && rec.ParentSenseID != 0 && rec.ParentSenseID != rec.SenseID {
		if _, err := b.store.UpsertNode(ctx, lexgraph.KindSense, rec.ParentSenseID); err != nil {
			return err
		}
	}
	return b.store.RecordSense(ctx, rec.SenseID, rec.WordID, rec.PartOfSpeech, rec.Domain, rec.SourceCode)
}

func (b *EdgeBuilder) buildRecordEdges(ctx context.Context, rec *source.SenseRecord, sourceCode string, ix *batchIndex, stats *Stats) error {
	senseKey := lexgraph.NewNodeKey(lexgraph.KindSense, rec.SenseID)

	if rec.WordID != 0 {
		wordKey := lexgraph.NewNodeKey(lexgraph.KindWord, rec.WordID)
		if err := b.upsert(ctx, lexgraph.NewEdge(wordKey, senseKey, lexgraph.RelHasSense, sourceCode, 1.0), stats); err != nil {
			return err
		}
	}

	// Parent link. A record pointing at itself is extractor noise, and a
	// sub-sense needs an owning word: without a HAS_SENSE edge the
	// hierarchy edge would fail validation, so an unresolved word drops
	// it rather than poisoning the graph.
	if rec.ParentSenseID != 0 && rec.ParentSenseID != rec.SenseID {
		if rec.WordID == 0 {
			b.logger.Debug("dropping hierarchy edge for unresolved word",
				"source", sourceCode, "sense", rec.SenseID, "parent", rec.ParentSenseID)
		} else {
			parentKey := lexgraph.NewNodeKey(lexgraph.KindSense, rec.ParentSenseID)
			if err := b.upsert(ctx, lexgraph.NewEdge(senseKey, parentKey, lexgraph.RelSubSenseOf, sourceCode, 1.0), stats); err != nil {
				return err
			}
		}
	}

	if strings.TrimSpace(rec.Domain) != "" {
		domainKey, err := b.store.InternLabel(ctx, lexgraph.KindDomain, rec.Domain)
		if err != nil {
			return err
		}
		if err := b.upsert(ctx, lexgraph.NewEdge(senseKey, domainKey, lexgraph.RelInDomain, sourceCode, 1.0), stats); err != nil {
			return err
		}
	}

	for _, lang := range rec.EtymologyLanguages {
		if strings.TrimSpace(lang) == "" {
			continue
		}
		langKey, err := b.store.InternLabel(ctx, lexgraph.KindLanguage, lang)
		if err != nil {
			return err
		}
		if err := b.upsert(ctx, lexgraph.NewEdge(senseKey, langKey, lexgraph.RelDerivedFrom, sourceCode, 1.0), stats); err != nil {
			return err
		}
	}

	for _, ref := range rec.CrossReferences {
		relation, err := ref.Type.Relation()
		if err != nil {
			// Validate caught unknown types already; belt and braces.
			return fmt.Errorf("sense %d: %w", rec.SenseID, err)
		}
		targetSense, ok := ix.resolve(ref.TargetWord)
		if !ok {
			b.logger.Debug("cross-reference target not in batch",
				"source", sourceCode, "sense", rec.SenseID, "target", ref.TargetWord)
			continue
		}
		if targetSense == rec.SenseID {
			// A reference that resolves back to its own sense.
			continue
		}
		targetKey := lexgraph.NewNodeKey(lexgraph.KindSense, targetSense)
		if err := b.upsert(ctx, lexgraph.NewEdge(senseKey, targetKey, relation, sourceCode, 1.0), stats); err != nil {
			return err
		}
	}
	return nil
}

func (b *EdgeBuilder) upsert(ctx context.Context, edge lexgraph.Edge, stats *Stats) error {
	inserted, err := b.store.UpsertEdge(ctx, edge)
	if err != nil {
		return fmt.Errorf("failed to upsert %s edge: %w", edge.Relation, err)
	}
	if inserted {
		stats.EdgesCreated++
	}
	return nil
}
