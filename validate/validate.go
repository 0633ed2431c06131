// Package validate checks the structural invariants of the graph after a
// build cycle. Validation is read-only and fails loudly: any violation is
// collected into a StructuralError that the caller must treat as fatal.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexibase/lexgraph"
	"github.com/lexibase/lexgraph/store"
)

// ViolationKind classifies a structural invariant violation.
type ViolationKind string

const (
	// ViolationInvalidRelation is an edge whose relation is outside the
	// fixed enumeration.
	ViolationInvalidRelation ViolationKind = "invalid_relation"

	// ViolationSelfLoop is an edge with identical endpoints.
	ViolationSelfLoop ViolationKind = "self_loop"

	// ViolationOrphanEdge is an edge with an endpoint that does not
	// resolve to an existing node.
	ViolationOrphanEdge ViolationKind = "orphan_edge"

	// ViolationDetachedSubSense is a SUB_SENSE_OF edge whose source sense
	// is not the target of any HAS_SENSE edge: a sub-sense must belong to
	// a word.
	ViolationDetachedSubSense ViolationKind = "detached_sub_sense"
)

// Violation is a single structural invariant violation.
type Violation struct {
	Kind   ViolationKind
	Edge   lexgraph.Edge
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s --%s--> %s: %s",
		v.Kind, v.Edge.From, v.Edge.Relation, v.Edge.To, v.Detail)
}

// StructuralError reports every violation found in one validation pass.
// It is fatal: a graph failing validation must not be consumed.
type StructuralError struct {
	Violations []Violation
}

func (e *StructuralError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("graph validation failed: %s", e.Violations[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "graph validation failed with %d violations:", len(e.Violations))
	for _, v := range e.Violations {
		sb.WriteString("\n  ")
		sb.WriteString(v.String())
	}
	return sb.String()
}

// Validator runs the structural invariant checks over the whole graph.
type Validator struct {
	store  store.GraphStore
	logger *slog.Logger
}

// NewValidator creates a Validator over the given store. A nil logger
// falls back to slog.Default().
func NewValidator(st store.GraphStore, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{store: st, logger: logger}
}

// Validate checks every edge in the graph and returns a *StructuralError
// listing all violations, or nil if the graph is sound. It has no side
// effects beyond logging.
func (v *Validator) Validate(ctx context.Context) error {
	nodes, err := v.store.Nodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	exists := make(map[lexgraph.NodeKey]bool, len(nodes))
	for _, n := range nodes {
		exists[n.Key] = true
	}

	edges, err := v.store.Edges(ctx)
	if err != nil {
		return fmt.Errorf("failed to list edges: %w", err)
	}

	// Senses that are the target of a HAS_SENSE edge, for the hierarchy
	// check.
	attached := make(map[lexgraph.NodeKey]bool)
	for _, e := range edges {
		if e.Relation == lexgraph.RelHasSense {
			attached[e.To] = true
		}
	}

	var violations []Violation
	for _, e := range edges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Relation.IsValid() {
			violations = append(violations, Violation{
				Kind: ViolationInvalidRelation, Edge: e,
				Detail: fmt.Sprintf("unknown relation %q", e.Relation),
			})
		}
		if e.From == e.To {
			violations = append(violations, Violation{
				Kind: ViolationSelfLoop, Edge: e,
				Detail: "edge endpoints are identical",
			})
		}
		if !exists[e.From] {
			violations = append(violations, Violation{
				Kind: ViolationOrphanEdge, Edge: e,
				Detail: fmt.Sprintf("source node %s does not exist", e.From),
			})
		}
		if !exists[e.To] {
			violations = append(violations, Violation{
				Kind: ViolationOrphanEdge, Edge: e,
				Detail: fmt.Sprintf("target node %s does not exist", e.To),
			})
		}
		if e.Relation == lexgraph.RelSubSenseOf && !attached[e.From] {
			violations = append(violations, Violation{
				Kind: ViolationDetachedSubSense, Edge: e,
				Detail: fmt.Sprintf("sense %s has no incoming HAS_SENSE edge", e.From),
			})
		}
	}

	if len(violations) > 0 {
		v.logger.Error("graph validation failed",
			"edges", len(edges), "violations", len(violations))
		return &StructuralError{Violations: violations}
	}
	v.logger.Debug("graph validated", "nodes", len(nodes), "edges", len(edges))
	return nil
}
