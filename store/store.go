// Package store defines the GraphStore persistence contract consumed by
// every stage of the lexical graph pipeline, and provides three backends:
// an in-process memory store, a Redis-backed store, and a SQLite-backed
// store.
//
// Every operation is idempotent: upstream producers re-run per source
// batch and must not create duplicate rows on re-import. Edge identity is
// the (from, to, relation) triple; concept identity is the ConceptKey for
// live rows; rank rows are keyed by entity id and overwritten on every
// recalculation pass.
package store

import (
	"context"

	"github.com/lexibase/lexgraph"
)

// SenseInfo is the per-sense attribute record the scoring passes aggregate
// over: which word owns the sense, its part of speech and domain label,
// and the set of source codes that contributed it. EdgeBuilder records one
// per valid input tuple; re-recording the same tuple only unions the
// source set.
//
// When two sources report the same sense with conflicting attributes, the
// last non-empty write wins for WordID, PartOfSpeech and Domain; an empty
// value never blanks an earlier non-empty one. The scoring passes read the
// resolved record, not the per-source history.
type SenseInfo struct {
	// SenseID is the sense row id.
	SenseID int64 `json:"sense_id"`

	// WordID is the owning canonical word id, or 0 if unresolved.
	WordID int64 `json:"word_id,omitempty"`

	// PartOfSpeech is the sense's part of speech, possibly empty.
	PartOfSpeech string `json:"part_of_speech,omitempty"`

	// Domain is the sense's domain label, possibly empty.
	Domain string `json:"domain,omitempty"`

	// Sources are the distinct source codes that contributed the sense,
	// sorted ascending.
	Sources []string `json:"sources"`
}

// GraphStore is the abstract persistence contract for the lexical
// knowledge graph. Implementations must make every method safe to call
// repeatedly with identical arguments, and safe for concurrent use.
//
// GetOrCreateConcept is the only read-then-conditionally-write critical
// section in the system; backends close the race window as far as their
// consistency model allows (serialized writers for SQLite, first-writer-
// wins index for Redis, a write lock for the memory store). Duplicate
// concepts that slip through distributed writers are canonicalized later
// by the merge pass, which is why the concept table itself tolerates
// duplicate keys.
type GraphStore interface {
	// UpsertNode ensures a node of the given kind and reference id
	// exists and returns its key. A no-op if the node is already present.
	UpsertNode(ctx context.Context, kind lexgraph.NodeKind, ref int64) (lexgraph.NodeKey, error)

	// InternLabel maps a textual label (domain name, language code) to a
	// stable reference id for the given kind, creating the node on first
	// use. The label is trimmed and lower-cased before interning, so
	// "Botany" and " botany " share a node.
	InternLabel(ctx context.Context, kind lexgraph.NodeKind, label string) (lexgraph.NodeKey, error)

	// NodeExists reports whether a node with the given key exists.
	NodeExists(ctx context.Context, key lexgraph.NodeKey) (bool, error)

	// UpsertEdge inserts the edge if its (from, to, relation) triple is
	// not already present. Returns true if a row was inserted, false for
	// the no-op case. Fails with lexgraph.ErrNodeNotFound if either
	// endpoint does not exist, and with the edge's own validation error
	// for self-loops or invalid relations.
	UpsertEdge(ctx context.Context, edge lexgraph.Edge) (bool, error)

	// RedirectEdges rewrites every edge whose To endpoint equals oldTo to
	// point at newTo, preserving confidence, source code and creation
	// time. A rewrite that would produce a self-loop, or whose new triple
	// already exists, drops the old edge instead of duplicating. Returns
	// the number of edges rewritten or dropped.
	RedirectEdges(ctx context.Context, oldTo, newTo lexgraph.NodeKey) (int, error)

	// GetOrCreateConcept atomically finds the live concept with the
	// given key or creates one. Returns the concept and true if a new
	// row was created.
	GetOrCreateConcept(ctx context.Context, key lexgraph.ConceptKey, domain, pos, sourceCode string) (lexgraph.Concept, bool, error)

	// AddConcept inserts a concept row without the key-uniqueness check
	// and returns its id (allocating one if the row's ID is 0). This is
	// the low-level path for importing pre-existing rows, which may
	// contain duplicate keys produced by distributed writers before
	// canonicalization; normal producers go through GetOrCreateConcept.
	AddConcept(ctx context.Context, c lexgraph.Concept) (int64, error)

	// ConceptByID returns the concept row with the given id.
	// Fails with lexgraph.ErrConceptNotFound if absent.
	ConceptByID(ctx context.Context, id int64) (lexgraph.Concept, error)

	// ConceptsByKey returns all live concepts grouped by key. Groups with
	// more than one member are merge candidates.
	ConceptsByKey(ctx context.Context) (map[lexgraph.ConceptKey][]lexgraph.Concept, error)

	// MarkSuperseded records that the alias concept has been merged into
	// the canonical one. The alias row is retained for audit.
	MarkSuperseded(ctx context.Context, aliasID, canonicalID int64) error

	// InsertAlias records a ConceptAlias row. Idempotent on
	// (canonical, alias) pairs.
	InsertAlias(ctx context.Context, alias lexgraph.ConceptAlias) error

	// SetConceptConfidence overwrites the concept's confidence score.
	SetConceptConfidence(ctx context.Context, id int64, score float64) error

	// RecordSense upserts the per-sense attribute record, unioning the
	// source code into the sense's source set. Non-empty attribute
	// values overwrite earlier ones; empty values leave them untouched
	// (see SenseInfo for the conflict rule).
	RecordSense(ctx context.Context, senseID, wordID int64, pos, domain, sourceCode string) error

	// SenseInfos returns the per-sense attribute records keyed by sense id.
	SenseInfos(ctx context.Context) (map[int64]SenseInfo, error)

	// Nodes returns a snapshot of all nodes, ordered by key.
	Nodes(ctx context.Context) ([]lexgraph.Node, error)

	// Edges returns a snapshot of all edges, ordered by triple key.
	Edges(ctx context.Context) ([]lexgraph.Edge, error)

	// Concepts returns a snapshot of all concept rows (live and
	// superseded), ordered by id.
	Concepts(ctx context.Context) ([]lexgraph.Concept, error)

	// Aliases returns a snapshot of all ConceptAlias rows.
	Aliases(ctx context.Context) ([]lexgraph.ConceptAlias, error)

	// UpsertConceptRank overwrites the rank row for a concept.
	UpsertConceptRank(ctx context.Context, conceptID int64, score float64) error

	// UpsertSenseRank overwrites the rank row for a sense.
	UpsertSenseRank(ctx context.Context, senseID int64, score float64) error

	// UpsertWordRank overwrites the rank row for a word.
	UpsertWordRank(ctx context.Context, wordID int64, score float64) error

	// ConceptRanks returns all concept rank rows, ordered by id.
	ConceptRanks(ctx context.Context) ([]lexgraph.ConceptRank, error)

	// SenseRanks returns all sense rank rows, ordered by id.
	SenseRanks(ctx context.Context) ([]lexgraph.SenseRank, error)

	// WordRanks returns all word rank rows, ordered by id.
	WordRanks(ctx context.Context) ([]lexgraph.WordRank, error)

	// Close releases backend resources. Operations on a closed store
	// fail: MemStore reports lexgraph.ErrStoreClosed, the Redis and
	// SQLite backends surface their drivers' connection errors.
	Close() error
}
