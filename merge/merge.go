// Package merge canonicalizes duplicate concepts. Concurrent importers
// (or the pre-locking era of a dataset) can leave several concept rows
// with the same key; the merger elects the smallest id in each group as
// canonical, repoints every edge at the losers, and keeps the losers
// around as superseded rows plus alias records for audit.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lexibase/lexgraph"
	"github.com/lexibase/lexgraph/store"
)

// Stats summarizes one merge pass.
type Stats struct {
	// Groups is the number of duplicate groups found.
	Groups int

	// Superseded is the number of concept rows merged away.
	Superseded int

	// EdgesMoved is the number of edges repointed at canonical concepts.
	EdgesMoved int
}

// Merger finds and collapses duplicate-key concept groups.
type Merger struct {
	store  store.GraphStore
	logger *slog.Logger
}

// NewMerger creates a Merger over the given store. A nil logger falls
// back to slog.Default().
func NewMerger(st store.GraphStore, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{store: st, logger: logger}
}

// Merge collapses every duplicate group in the store. For each key with
// more than one live concept, the smallest id survives; the others have
// their edges redirected, an alias row written, and the superseded marker
// set, in that order, so a crash mid-group leaves only re-runnable work
// behind. Safe to call repeatedly: a store with no duplicates is a no-op.
func (m *Merger) Merge(ctx context.Context) (Stats, error) {
	var stats Stats

	groups, err := m.store.ConceptsByKey(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list concepts: %w", err)
	}

	// Deterministic group order keeps logs and stats stable across runs.
	keys := make([]lexgraph.ConceptKey, 0, len(groups))
	for key, members := range groups {
		if len(members) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := m.mergeGroup(ctx, key, groups[key], &stats); err != nil {
			return stats, fmt.Errorf("failed to merge group %q: %w", key, err)
		}
	}

	if stats.Groups > 0 {
		m.logger.Info("merged duplicate concepts",
			"groups", stats.Groups, "superseded", stats.Superseded, "edges_moved", stats.EdgesMoved)
	}
	return stats, nil
}

func (m *Merger) mergeGroup(ctx context.Context, key lexgraph.ConceptKey, members []lexgraph.Concept, stats *Stats) error {
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	canonical := members[0]
	canonicalKey := canonical.NodeKey()
	stats.Groups++

	for _, dup := range members[1:] {
		moved, err := m.store.RedirectEdges(ctx, dup.NodeKey(), canonicalKey)
		if err != nil {
			return fmt.Errorf("failed to redirect edges of concept %d: %w", dup.ID, err)
		}
		stats.EdgesMoved += moved

		alias := lexgraph.ConceptAlias{
			CanonicalID: canonical.ID,
			AliasID:     dup.ID,
			AliasKey:    dup.Key,
			SourceCode:  dup.SourceCode,
		}
		if err := m.store.InsertAlias(ctx, alias); err != nil {
			return fmt.Errorf("failed to record alias for concept %d: %w", dup.ID, err)
		}
		if err := m.store.MarkSuperseded(ctx, dup.ID, canonical.ID); err != nil {
			return fmt.Errorf("failed to supersede concept %d: %w", dup.ID, err)
		}
		stats.Superseded++

		m.logger.Debug("superseded duplicate concept",
			"key", key, "alias", dup.ID, "canonical", canonical.ID, "edges_moved", moved)
	}
	return nil
}
