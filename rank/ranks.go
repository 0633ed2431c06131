package rank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lexibase/lexgraph/store"
)

// Rank stage weights. Like the confidence weights, these are part of the
// stored data format.
const (
	conceptRankSenseWeight    = 0.55
	conceptRankCrossRefWeight = 0.45

	senseRankCrossRefWeight   = 0.40
	senseRankConfidenceWeight = 0.35
	senseRankSourceWeight     = 0.25

	wordRankSenseBonusWeight = 0.30
)

// Stats summarizes one rank recalculation pass.
type Stats struct {
	Concepts int
	Senses   int
	Words    int
}

// Calculator propagates relevance through the graph in three ordered
// stages: ConceptRank from cluster size and cross-reference density,
// SenseRank from each sense's own references plus its concept's
// confidence, and WordRank from the best sense of each word. It must run
// after ConceptMerger and ConfidenceCalculator, since both change the
// inputs. Every stage overwrites its rank table, so re-running is
// idempotent.
type Calculator struct {
	store  store.GraphStore
	logger *slog.Logger
}

// NewCalculator creates a rank Calculator over the given store. A nil
// logger falls back to slog.Default().
func NewCalculator(st store.GraphStore, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{store: st, logger: logger}
}

// Calculate runs the three rank stages in order over the current graph.
func (r *Calculator) Calculate(ctx context.Context) (Stats, error) {
	var stats Stats

	// The view is loaded after ConfidenceCalculator committed its scores,
	// so SenseRank sees fresh confidence values.
	view, err := loadView(ctx, r.store)
	if err != nil {
		return stats, err
	}

	if err := r.conceptStage(ctx, view, &stats); err != nil {
		return stats, err
	}
	senseRanks, err := r.senseStage(ctx, view, &stats)
	if err != nil {
		return stats, err
	}
	if err := r.wordStage(ctx, view, senseRanks, &stats); err != nil {
		return stats, err
	}

	r.logger.Debug("recomputed ranks",
		"concepts", stats.Concepts, "senses", stats.Senses, "words", stats.Words)
	return stats, nil
}

func (r *Calculator) conceptStage(ctx context.Context, view *graphView, stats *Stats) error {
	ids := view.liveConcepts()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		senseCount := len(view.conceptSenses[id])
		score := conceptRankSenseWeight * clamp01(float64(senseCount)/5)
		if senseCount > 0 {
			density := float64(view.conceptCrossRefs(id)) / float64(senseCount)
			score += conceptRankCrossRefWeight * clamp01(density/4)
		}
		if err := r.store.UpsertConceptRank(ctx, id, score); err != nil {
			return fmt.Errorf("failed to store concept rank %d: %w", id, err)
		}
		stats.Concepts++
	}
	return nil
}

func (r *Calculator) senseStage(ctx context.Context, view *graphView, stats *Stats) (map[int64]float64, error) {
	ids := make([]int64, 0, len(view.senseInfos))
	for id := range view.senseInfos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ranks := make(map[int64]float64, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := view.senseInfos[id]

		var confidence float64
		if conceptID, ok := view.senseConcept[id]; ok {
			if concept, ok := view.canonical(conceptID); ok {
				confidence = concept.ConfidenceScore
			}
		}

		score := senseRankCrossRefWeight*clamp01(float64(view.crossRefOut[id])/5) +
			senseRankConfidenceWeight*confidence +
			senseRankSourceWeight*clamp01(float64(len(info.Sources))/3)

		if err := r.store.UpsertSenseRank(ctx, id, score); err != nil {
			return nil, fmt.Errorf("failed to store sense rank %d: %w", id, err)
		}
		ranks[id] = score
		stats.Senses++
	}
	return ranks, nil
}

func (r *Calculator) wordStage(ctx context.Context, view *graphView, senseRanks map[int64]float64, stats *Stats) error {
	wordSenses := make(map[int64][]int64)
	for id, info := range view.senseInfos {
		if info.WordID != 0 {
			wordSenses[info.WordID] = append(wordSenses[info.WordID], id)
		}
	}
	words := make([]int64, 0, len(wordSenses))
	for id := range wordSenses {
		words = append(words, id)
	}
	sort.Slice(words, func(i, j int) bool { return words[i] < words[j] })

	for _, wordID := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		senses := wordSenses[wordID]
		var best float64
		for _, senseID := range senses {
			if s := senseRanks[senseID]; s > best {
				best = s
			}
		}
		score := best + wordRankSenseBonusWeight*clamp01(float64(len(senses))/5)
		if err := r.store.UpsertWordRank(ctx, wordID, score); err != nil {
			return fmt.Errorf("failed to store word rank %d: %w", wordID, err)
		}
		stats.Words++
	}
	return nil
}
