package lexgraph

import "errors"

// Sentinel errors for graph operations.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrSelfLoop indicates an attempt to create or keep an edge whose
	// endpoints are the same node. Self-loops are never legal in the
	// lexical graph; producers drop them and GraphValidator treats a
	// stored one as a structural violation.
	ErrSelfLoop = errors.New("self-loop edge")

	// ErrNodeNotFound indicates that a node key does not resolve to an
	// existing node in the graph.
	//
	// Example:
	//	err := store.UpsertEdge(ctx, edge)
	//	if errors.Is(err, lexgraph.ErrNodeNotFound) {
	//	    logger.Error("edge endpoint missing", "from", edge.From, "to", edge.To)
	//	}
	ErrNodeNotFound = errors.New("node not found")

	// ErrConceptNotFound indicates that a concept id does not resolve to
	// an existing concept row.
	ErrConceptNotFound = errors.New("concept not found")

	// ErrInvalidRecord indicates a malformed input tuple from a source
	// collaborator. Builders skip the offending record, log it, and
	// continue with the rest of the batch; the error is never fatal to
	// the batch.
	ErrInvalidRecord = errors.New("invalid source record")

	// ErrStoreClosed indicates an operation on a store that has already
	// been closed.
	ErrStoreClosed = errors.New("graph store closed")
)
