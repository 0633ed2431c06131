package lexgraph

import "fmt"

// NodeKind identifies the type of a vertex in the lexical knowledge graph.
// The set of kinds is fixed: the graph build pipeline only ever creates
// nodes of these five kinds, and GraphValidator rejects anything else.
type NodeKind string

const (
	// KindWord is a canonical headword entry.
	KindWord NodeKind = "Word"

	// KindSense is a single sense (definition) of a word.
	KindSense NodeKind = "Sense"

	// KindDomain is a subject domain label (e.g. "botany", "law").
	// Domain nodes are interned: one node per distinct trimmed,
	// lower-cased label.
	KindDomain NodeKind = "Domain"

	// KindLanguage is an etymology language code (e.g. "la", "fr").
	KindLanguage NodeKind = "Language"

	// KindConcept is a cluster of senses sharing domain, part of speech
	// and headword.
	KindConcept NodeKind = "Concept"
)

// String returns the string representation of the node kind.
func (k NodeKind) String() string {
	return string(k)
}

// IsValid returns true if the node kind is one of the five canonical kinds.
func (k NodeKind) IsValid() bool {
	switch k {
	case KindWord, KindSense, KindDomain, KindLanguage, KindConcept:
		return true
	default:
		return false
	}
}

// Validate checks if the node kind is valid.
// Returns an error if the kind is not one of the defined constants.
func (k NodeKind) Validate() error {
	if !k.IsValid() {
		return fmt.Errorf("invalid node kind: %q (must be one of: Word, Sense, Domain, Language, Concept)", string(k))
	}
	return nil
}

// ParseNodeKind parses a string into a NodeKind value.
// Returns an error if the string is not a valid node kind.
func ParseNodeKind(s string) (NodeKind, error) {
	kind := NodeKind(s)
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}

// RelationKind identifies the type of a directed edge in the lexical graph.
type RelationKind string

const (
	// RelHasSense connects a Word to one of its Senses.
	RelHasSense RelationKind = "HAS_SENSE"

	// RelSubSenseOf connects a child Sense to its parent Sense.
	RelSubSenseOf RelationKind = "SUB_SENSE_OF"

	// RelInDomain connects a Sense to the Domain it is labelled with.
	RelInDomain RelationKind = "IN_DOMAIN"

	// RelDerivedFrom connects a Sense to an etymology Language of its word.
	RelDerivedFrom RelationKind = "DERIVED_FROM"

	// RelSee is a "See" cross-reference between two Senses.
	RelSee RelationKind = "SEE"

	// RelRelatedTo is a "See also" cross-reference between two Senses.
	RelRelatedTo RelationKind = "RELATED_TO"

	// RelCompare is a "Cf." cross-reference between two Senses.
	RelCompare RelationKind = "COMPARE"

	// RelBelongsTo connects a Sense to the Concept cluster it belongs to.
	RelBelongsTo RelationKind = "BELONGS_TO"
)

// crossRefRelations is the subset of relations produced from textual
// cross-references. Confidence and rank aggregation count exactly these.
var crossRefRelations = map[RelationKind]bool{
	RelSee:       true,
	RelRelatedTo: true,
	RelCompare:   true,
}

// IsCrossReference returns true for the three cross-reference relation
// kinds (SEE, RELATED_TO, COMPARE).
func (r RelationKind) IsCrossReference() bool {
	return crossRefRelations[r]
}

// String returns the string representation of the relation kind.
func (r RelationKind) String() string {
	return string(r)
}

// IsValid returns true if the relation kind is one of the eight canonical kinds.
func (r RelationKind) IsValid() bool {
	switch r {
	case RelHasSense, RelSubSenseOf, RelInDomain, RelDerivedFrom,
		RelSee, RelRelatedTo, RelCompare, RelBelongsTo:
		return true
	default:
		return false
	}
}

// Validate checks if the relation kind is valid.
// Returns an error if the kind is not one of the defined constants.
func (r RelationKind) Validate() error {
	if !r.IsValid() {
		return fmt.Errorf("invalid relation kind: %q", string(r))
	}
	return nil
}

// ParseRelationKind parses a string into a RelationKind value.
// Returns an error if the string is not a valid relation kind.
func ParseRelationKind(s string) (RelationKind, error) {
	rel := RelationKind(s)
	if err := rel.Validate(); err != nil {
		return "", err
	}
	return rel, nil
}
