package lexgraph

import (
	"strings"
	"time"
)

// ConceptKey is the deterministic string identifying a concept cluster
// before deduplication: lower(domain) ":" lower(pos) ":" lower(head).
// Components are trimmed before lowering; empty components are legal
// (a sense with no domain still clusters by pos and head).
type ConceptKey string

// NewConceptKey builds a ConceptKey from a domain label, a part of speech
// and a normalized headword.
func NewConceptKey(domain, pos, head string) ConceptKey {
	norm := func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return ConceptKey(norm(domain) + ":" + norm(pos) + ":" + norm(head))
}

// String returns the string representation of the concept key.
func (k ConceptKey) String() string {
	return string(k)
}

// Head returns the headword component of the key, or "" if the key is
// malformed.
func (k ConceptKey) Head() string {
	parts := strings.SplitN(string(k), ":", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}

// IsUsable reports whether the key identifies a real cluster: a key with
// an empty headword component groups nothing and is skipped by the builder.
func (k ConceptKey) IsUsable() bool {
	return k.Head() != ""
}

// Concept is a canonical cluster of senses sharing domain, part of speech
// and headword. Concepts are created lazily, one per distinct key; the race
// between concurrent creators of the same key is resolved by the store's
// atomic get-or-create, and any duplicates that slip through distributed
// writers are canonicalized by ConceptMerger.
type Concept struct {
	// ID is the concept row id. The smallest id in a duplicate group is
	// the canonical one.
	ID int64 `json:"id"`

	// Key is the concept cluster key.
	Key ConceptKey `json:"key"`

	// Domain is the original (untrimmed case preserved) domain label.
	Domain string `json:"domain"`

	// PartOfSpeech is the part of speech shared by the cluster.
	PartOfSpeech string `json:"part_of_speech"`

	// SourceCode identifies the dataset whose import created the row.
	SourceCode string `json:"source_code"`

	// ConfidenceScore is the reliability score in [0,1], written only by
	// ConfidenceCalculator.
	ConfidenceScore float64 `json:"confidence_score"`

	// SupersededBy is the canonical concept id if this row was merged
	// away, or 0 if the concept is live. Superseded rows are retained
	// for audit and are never targeted by live edges.
	SupersededBy int64 `json:"superseded_by,omitempty"`

	// CreatedAt is the timestamp when the row was inserted.
	CreatedAt time.Time `json:"created_at"`
}

// IsLive reports whether the concept has not been merged away.
func (c Concept) IsLive() bool {
	return c.SupersededBy == 0
}

// NodeKey returns the graph node key for the concept.
func (c Concept) NodeKey() NodeKey {
	return NewNodeKey(KindConcept, c.ID)
}

// ConceptAlias is the permanent record of a concept that was merged away,
// preserved for traceability: which key, from which source, now resolves
// to which canonical concept.
type ConceptAlias struct {
	// CanonicalID is the surviving concept id.
	CanonicalID int64 `json:"canonical_concept_id"`

	// AliasID is the superseded concept id.
	AliasID int64 `json:"alias_concept_id"`

	// AliasKey is the superseded concept's key.
	AliasKey ConceptKey `json:"alias_concept_key"`

	// SourceCode is the dataset whose import created the superseded row.
	SourceCode string `json:"source_code"`

	// CreatedAt is the timestamp of the merge.
	CreatedAt time.Time `json:"created_at"`
}
