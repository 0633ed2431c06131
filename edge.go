package lexgraph

import (
	"fmt"
	"time"
)

// Edge is a typed directed relation between two nodes.
//
// The triple (From, To, Relation) is the deduplication key: inserting an
// edge whose triple already exists is a no-op, never a duplicate row. Edges
// are immutable once inserted, except that ConceptMerger may rewrite the To
// endpoint when redirecting edges from a duplicate concept to its canonical
// one; Confidence, SourceCode and CreatedAt survive redirection unchanged.
type Edge struct {
	// From is the source node key.
	From NodeKey `json:"from"`

	// To is the target node key.
	To NodeKey `json:"to"`

	// Relation is the edge type.
	Relation RelationKind `json:"relation"`

	// SourceCode identifies the dictionary dataset that produced the edge.
	SourceCode string `json:"source_code"`

	// Confidence is the producer-assigned confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// CreatedAt is the timestamp when the edge was first inserted.
	CreatedAt time.Time `json:"created_at"`
}

// NewEdge creates an Edge between two node keys, stamped with the current time.
func NewEdge(from, to NodeKey, relation RelationKind, sourceCode string, confidence float64) Edge {
	return Edge{
		From:       from,
		To:         to,
		Relation:   relation,
		SourceCode: sourceCode,
		Confidence: confidence,
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate checks the structural invariants every edge must satisfy:
// a canonical relation kind, valid endpoint keys, and From != To.
func (e Edge) Validate() error {
	if err := e.Relation.Validate(); err != nil {
		return err
	}
	if err := e.From.Validate(); err != nil {
		return fmt.Errorf("edge from: %w", err)
	}
	if err := e.To.Validate(); err != nil {
		return fmt.Errorf("edge to: %w", err)
	}
	if e.From == e.To {
		return fmt.Errorf("%w: %s --%s--> %s", ErrSelfLoop, e.From, e.Relation, e.To)
	}
	return nil
}

// TripleKey returns the serialized deduplication key for the edge.
func (e Edge) TripleKey() string {
	return e.From.String() + "|" + string(e.Relation) + "|" + e.To.String()
}
