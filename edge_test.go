package lexgraph

import (
	"errors"
	"testing"
)

func TestEdge_Validate(t *testing.T) {
	word := NewNodeKey(KindWord, 1)
	sense := NewNodeKey(KindSense, 10)

	edge := NewEdge(word, sense, RelHasSense, "webster", 1.0)
	if err := edge.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEdge_Validate_SelfLoop(t *testing.T) {
	sense := NewNodeKey(KindSense, 10)
	edge := NewEdge(sense, sense, RelSee, "webster", 1.0)

	err := edge.Validate()
	if err == nil {
		t.Fatal("expected self-loop error")
	}
	if !errors.Is(err, ErrSelfLoop) {
		t.Errorf("expected ErrSelfLoop, got %v", err)
	}
}

func TestEdge_Validate_InvalidRelation(t *testing.T) {
	edge := NewEdge(NewNodeKey(KindWord, 1), NewNodeKey(KindSense, 2), "LINKS_TO", "webster", 1.0)
	if err := edge.Validate(); err == nil {
		t.Error("expected error for unknown relation kind")
	}
}

func TestEdge_Validate_BadEndpoint(t *testing.T) {
	edge := NewEdge(NodeKey{}, NewNodeKey(KindSense, 2), RelHasSense, "webster", 1.0)
	if err := edge.Validate(); err == nil {
		t.Error("expected error for zero from key")
	}
}

func TestEdge_TripleKey(t *testing.T) {
	a := NewEdge(NewNodeKey(KindSense, 1), NewNodeKey(KindSense, 2), RelSee, "webster", 1.0)
	b := NewEdge(NewNodeKey(KindSense, 1), NewNodeKey(KindSense, 2), RelSee, "century21", 0.5)
	c := NewEdge(NewNodeKey(KindSense, 1), NewNodeKey(KindSense, 2), RelCompare, "webster", 1.0)

	if a.TripleKey() != b.TripleKey() {
		t.Error("expected identical triples to share a key regardless of source/confidence")
	}
	if a.TripleKey() == c.TripleKey() {
		t.Error("expected different relations to produce different keys")
	}
}
