// Package rank derives the two numeric signals of the graph: per-concept
// confidence scores (how well corroborated a cluster is) and propagated
// relevance ranks for concepts, senses and words. Both calculators do a
// full recompute over the current graph and overwrite their output rows,
// so re-running either is idempotent.
package rank

import (
	"context"
	"fmt"

	"github.com/lexibase/lexgraph"
	"github.com/lexibase/lexgraph/store"
)

// graphView is a read-only aggregation of the store built once per pass.
// Both calculators need the same membership and cross-reference indexes,
// and loading them up front keeps the per-entity loops O(1).
type graphView struct {
	concepts   map[int64]lexgraph.Concept
	senseInfos map[int64]store.SenseInfo

	// conceptSenses maps a live concept id to its member sense ids.
	conceptSenses map[int64][]int64

	// senseConcept maps a sense id to the concept its BELONGS_TO edge
	// targets (post-merge, this is the canonical concept).
	senseConcept map[int64]int64

	// crossRefOut maps a sense id to its outgoing SEE/RELATED_TO/COMPARE
	// edge count.
	crossRefOut map[int64]int
}

func loadView(ctx context.Context, st store.GraphStore) (*graphView, error) {
	v := &graphView{
		concepts:      make(map[int64]lexgraph.Concept),
		senseInfos:    nil,
		conceptSenses: make(map[int64][]int64),
		senseConcept:  make(map[int64]int64),
		crossRefOut:   make(map[int64]int),
	}

	concepts, err := st.Concepts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}
	for _, c := range concepts {
		v.concepts[c.ID] = c
	}

	v.senseInfos, err = st.SenseInfos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sense records: %w", err)
	}

	edges, err := st.Edges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	for _, e := range edges {
		switch {
		case e.Relation == lexgraph.RelBelongsTo && e.From.Kind == lexgraph.KindSense && e.To.Kind == lexgraph.KindConcept:
			v.conceptSenses[e.To.Ref] = append(v.conceptSenses[e.To.Ref], e.From.Ref)
			v.senseConcept[e.From.Ref] = e.To.Ref
		case e.Relation.IsCrossReference() && e.From.Kind == lexgraph.KindSense:
			v.crossRefOut[e.From.Ref]++
		}
	}
	return v, nil
}

// liveConcepts returns the ids of concepts that have not been merged away,
// in no particular order.
func (v *graphView) liveConcepts() []int64 {
	ids := make([]int64, 0, len(v.concepts))
	for id, c := range v.concepts {
		if c.IsLive() {
			ids = append(ids, id)
		}
	}
	return ids
}

// canonical follows SupersededBy chains to the live concept. A merge pass
// only ever writes one hop, but chains can stack across historical runs.
func (v *graphView) canonical(id int64) (lexgraph.Concept, bool) {
	for hops := 0; hops <= len(v.concepts); hops++ {
		c, ok := v.concepts[id]
		if !ok {
			return lexgraph.Concept{}, false
		}
		if c.IsLive() {
			return c, true
		}
		id = c.SupersededBy
	}
	return lexgraph.Concept{}, false
}

// conceptCrossRefs counts outgoing cross-reference edges across all member
// senses of a concept.
func (v *graphView) conceptCrossRefs(conceptID int64) int {
	var n int
	for _, senseID := range v.conceptSenses[conceptID] {
		n += v.crossRefOut[senseID]
	}
	return n
}

// clamp01 caps a ratio at 1.
func clamp01(x float64) float64 {
	if x > 1 {
		return 1
	}
	return x
}
