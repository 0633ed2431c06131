package rank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lexibase/lexgraph/store"
)

func normLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Confidence sub-score weights. Empirically chosen; changing them changes
// every stored score, so treat them as part of the data format.
const (
	weightSenseVolume     = 0.30
	weightSourceDiversity = 0.25
	weightCrossRefDensity = 0.20
	weightDomainStability = 0.15
	weightPOSStability    = 0.10
)

// ConfidenceCalculator scores each live concept's reliability from five
// capped signals: sense volume, source diversity, cross-reference density,
// domain stability and part-of-speech stability. Scores are always in
// [0,1] and are fully recomputed and overwritten on every pass.
type ConfidenceCalculator struct {
	store  store.GraphStore
	logger *slog.Logger
}

// NewConfidenceCalculator creates a ConfidenceCalculator over the given
// store. A nil logger falls back to slog.Default().
func NewConfidenceCalculator(st store.GraphStore, logger *slog.Logger) *ConfidenceCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfidenceCalculator{store: st, logger: logger}
}

// Calculate recomputes and stores the confidence score of every live
// concept. Returns the number of concepts scored.
func (c *ConfidenceCalculator) Calculate(ctx context.Context) (int, error) {
	view, err := loadView(ctx, c.store)
	if err != nil {
		return 0, err
	}

	ids := view.liveConcepts()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		score := c.score(view, id)
		if err := c.store.SetConceptConfidence(ctx, id, score); err != nil {
			return 0, fmt.Errorf("failed to store confidence for concept %d: %w", id, err)
		}
	}
	c.logger.Debug("recomputed concept confidence", "concepts", len(ids))
	return len(ids), nil
}

func (c *ConfidenceCalculator) score(view *graphView, conceptID int64) float64 {
	senses := view.conceptSenses[conceptID]
	senseCount := len(senses)

	sources := make(map[string]bool)
	domains := make(map[string]bool)
	parts := make(map[string]bool)
	var crossRefs int
	for _, senseID := range senses {
		crossRefs += view.crossRefOut[senseID]
		info, ok := view.senseInfos[senseID]
		if !ok {
			continue
		}
		for _, src := range info.Sources {
			sources[src] = true
		}
		// Labels are normalized the same way concept keys and interned
		// label nodes are, so "Finance" and "finance" count as one domain.
		if d := normLabel(info.Domain); d != "" {
			domains[d] = true
		}
		if p := normLabel(info.PartOfSpeech); p != "" {
			parts[p] = true
		}
	}

	a := clamp01(float64(senseCount) / 5)
	b := clamp01(float64(len(sources)) / 3)
	cr := clamp01(float64(crossRefs) / 5)
	d := 0.5
	if len(domains) <= 1 {
		d = 1.0
	}
	var e float64
	if len(parts) <= 1 {
		e = 1.0
	}

	return weightSenseVolume*a +
		weightSourceDiversity*b +
		weightCrossRefDensity*cr +
		weightDomainStability*d +
		weightPOSStability*e
}
