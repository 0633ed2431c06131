package lexgraph

import "time"

// ConceptRank is the propagated relevance score of a concept.
// One row per concept, overwritten on every recalculation pass.
type ConceptRank struct {
	ConceptID int64     `json:"concept_id"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SenseRank is the propagated relevance score of a sense.
// One row per sense, overwritten on every recalculation pass.
type SenseRank struct {
	SenseID   int64     `json:"sense_id"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WordRank is the propagated relevance score of a canonical word.
// One row per word, overwritten on every recalculation pass.
type WordRank struct {
	WordID    int64     `json:"word_id"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}
