// Package source defines the input tuples delivered by the per-source
// extraction collaborators (Century, Webster, Kaikki, Oxford parsers,
// among others) and the validation applied before the builders touch them.
//
// One Batch carries every parsed sense record for a single source code.
// Records are plain data: parsing, part-of-speech inference and
// pronunciation enrichment all happen upstream.
package source

import (
	"fmt"
	"strings"

	"github.com/lexibase/lexgraph"
)

// CrossRefType is the textual kind of a cross-reference found in a
// definition body. The three kinds map one-to-one onto the three
// cross-reference relation kinds of the graph.
type CrossRefType string

const (
	// RefSee is a plain "See <word>" reference, mapped to SEE.
	RefSee CrossRefType = "See"

	// RefSeeAlso is a "See also <word>" reference, mapped to RELATED_TO.
	RefSeeAlso CrossRefType = "SeeAlso"

	// RefCf is a "Cf. <word>" comparison reference, mapped to COMPARE.
	RefCf CrossRefType = "Cf"
)

// IsValid returns true if the cross-reference type is one of the three
// canonical kinds.
func (t CrossRefType) IsValid() bool {
	switch t {
	case RefSee, RefSeeAlso, RefCf:
		return true
	default:
		return false
	}
}

// Relation returns the graph relation kind this reference type maps to.
// Returns an error for unknown types.
func (t CrossRefType) Relation() (lexgraph.RelationKind, error) {
	switch t {
	case RefSee:
		return lexgraph.RelSee, nil
	case RefSeeAlso:
		return lexgraph.RelRelatedTo, nil
	case RefCf:
		return lexgraph.RelCompare, nil
	default:
		return "", fmt.Errorf("unknown cross-reference type %q", string(t))
	}
}

// CrossReference is a textual reference from one sense to another word,
// resolved against the batch's canonical words by EdgeBuilder.
type CrossReference struct {
	// Type is the textual reference kind.
	Type CrossRefType `json:"type"`

	// TargetWord is the referenced word text as it appears in the
	// definition body.
	TargetWord string `json:"target_word"`
}

// SenseRecord is one parsed dictionary sense as delivered by a source
// collaborator. Field semantics:
//
//   - WordID 0 means the extractor could not resolve a canonical word for
//     the entry; the HAS_SENSE edge is skipped but the sense still
//     participates in clustering.
//   - ParentSenseID 0 means the sense has no parent.
//   - Head is the normalized headword used for concept clustering and
//     cross-reference resolution.
type SenseRecord struct {
	// WordID is the canonical word row id, or 0 if unresolved.
	WordID int64 `json:"word_id,omitempty"`

	// Word is the entry's word text.
	Word string `json:"word"`

	// Head is the normalized headword.
	Head string `json:"head"`

	// SenseID is the sense row id. Required.
	SenseID int64 `json:"sense_id"`

	// ParentSenseID is the parent sense row id, or 0 for a top-level sense.
	ParentSenseID int64 `json:"parent_sense_id,omitempty"`

	// Domain is the subject domain label, possibly empty.
	Domain string `json:"domain,omitempty"`

	// PartOfSpeech is the inferred part of speech, possibly empty.
	PartOfSpeech string `json:"part_of_speech,omitempty"`

	// EtymologyLanguages are the etymology language codes attached to the
	// owning word.
	EtymologyLanguages []string `json:"etymology_languages,omitempty"`

	// CrossReferences are the textual references found in the definition.
	CrossReferences []CrossReference `json:"cross_references,omitempty"`

	// SourceCode identifies the originating dictionary dataset. Required.
	SourceCode string `json:"source_code"`
}

// Validate checks that the record is well-formed enough to build edges
// from. A failing record is an upstream data error: the builders skip it,
// log it, and continue with the rest of the batch.
func (r *SenseRecord) Validate() error {
	if r.SenseID == 0 {
		return fmt.Errorf("%w: missing sense id (word %q)", lexgraph.ErrInvalidRecord, r.Word)
	}
	if strings.TrimSpace(r.SourceCode) == "" {
		return fmt.Errorf("%w: sense %d has no source code", lexgraph.ErrInvalidRecord, r.SenseID)
	}
	for _, ref := range r.CrossReferences {
		if !ref.Type.IsValid() {
			return fmt.Errorf("%w: sense %d has unknown cross-reference type %q", lexgraph.ErrInvalidRecord, r.SenseID, ref.Type)
		}
		if strings.TrimSpace(ref.TargetWord) == "" {
			return fmt.Errorf("%w: sense %d has a cross-reference with an empty target", lexgraph.ErrInvalidRecord, r.SenseID)
		}
	}
	return nil
}

// ConceptKey returns the concept cluster key for the record.
func (r *SenseRecord) ConceptKey() lexgraph.ConceptKey {
	return lexgraph.NewConceptKey(r.Domain, r.PartOfSpeech, r.Head)
}

// Batch is the full set of parsed sense records for one source code.
type Batch struct {
	// SourceCode identifies the dictionary dataset.
	SourceCode string `json:"source_code"`

	// Records are the parsed senses, in extractor order.
	Records []SenseRecord `json:"records"`
}

// Validate checks the batch envelope. Individual records are validated by
// the builders record-by-record so that one bad tuple does not reject the
// whole batch.
func (b *Batch) Validate() error {
	if strings.TrimSpace(b.SourceCode) == "" {
		return fmt.Errorf("%w: batch has no source code", lexgraph.ErrInvalidRecord)
	}
	return nil
}
