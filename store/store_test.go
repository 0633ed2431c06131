package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexibase/lexgraph"
)

// runGraphStoreSuite exercises the GraphStore contract against a backend.
// Every backend must pass the same suite: the memory store is the
// reference, Redis and SQLite must be observationally equivalent.
func runGraphStoreSuite(t *testing.T, newStore func(t *testing.T) GraphStore) {
	ctx := context.Background()

	t.Run("upsert node is idempotent", func(t *testing.T) {
		s := newStore(t)

		key, err := s.UpsertNode(ctx, lexgraph.KindWord, 1)
		require.NoError(t, err)
		assert.Equal(t, "Word:1", key.String())

		again, err := s.UpsertNode(ctx, lexgraph.KindWord, 1)
		require.NoError(t, err)
		assert.Equal(t, key, again)

		nodes, err := s.Nodes(ctx)
		require.NoError(t, err)
		assert.Len(t, nodes, 1)

		ok, err := s.NodeExists(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.NodeExists(ctx, lexgraph.NewNodeKey(lexgraph.KindWord, 2))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("upsert node rejects invalid kind", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpsertNode(ctx, "Lemma", 1)
		require.Error(t, err)
	})

	t.Run("intern label normalizes and is stable", func(t *testing.T) {
		s := newStore(t)

		a, err := s.InternLabel(ctx, lexgraph.KindDomain, "Botany")
		require.NoError(t, err)
		b, err := s.InternLabel(ctx, lexgraph.KindDomain, "  botany ")
		require.NoError(t, err)
		assert.Equal(t, a, b)

		c, err := s.InternLabel(ctx, lexgraph.KindDomain, "law")
		require.NoError(t, err)
		assert.NotEqual(t, a, c)

		_, err = s.InternLabel(ctx, lexgraph.KindDomain, "   ")
		require.ErrorIs(t, err, lexgraph.ErrInvalidRecord)
	})

	t.Run("upsert edge deduplicates on triple", func(t *testing.T) {
		s := newStore(t)

		word, err := s.UpsertNode(ctx, lexgraph.KindWord, 1)
		require.NoError(t, err)
		sense, err := s.UpsertNode(ctx, lexgraph.KindSense, 10)
		require.NoError(t, err)

		inserted, err := s.UpsertEdge(ctx, lexgraph.NewEdge(word, sense, lexgraph.RelHasSense, "webster", 1.0))
		require.NoError(t, err)
		assert.True(t, inserted)

		// Same triple, different metadata: still a no-op.
		inserted, err = s.UpsertEdge(ctx, lexgraph.NewEdge(word, sense, lexgraph.RelHasSense, "century21", 0.4))
		require.NoError(t, err)
		assert.False(t, inserted)

		edges, err := s.Edges(ctx)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, "webster", edges[0].SourceCode)
	})

	t.Run("upsert edge rejects self-loops and orphans", func(t *testing.T) {
		s := newStore(t)

		sense, err := s.UpsertNode(ctx, lexgraph.KindSense, 10)
		require.NoError(t, err)

		_, err = s.UpsertEdge(ctx, lexgraph.NewEdge(sense, sense, lexgraph.RelSee, "webster", 1.0))
		require.ErrorIs(t, err, lexgraph.ErrSelfLoop)

		missing := lexgraph.NewNodeKey(lexgraph.KindSense, 99)
		_, err = s.UpsertEdge(ctx, lexgraph.NewEdge(sense, missing, lexgraph.RelSee, "webster", 1.0))
		require.ErrorIs(t, err, lexgraph.ErrNodeNotFound)
	})

	t.Run("redirect edges preserves metadata and guards", func(t *testing.T) {
		s := newStore(t)

		sense1, err := s.UpsertNode(ctx, lexgraph.KindSense, 1)
		require.NoError(t, err)
		sense2, err := s.UpsertNode(ctx, lexgraph.KindSense, 2)
		require.NoError(t, err)
		oldConcept, err := s.UpsertNode(ctx, lexgraph.KindConcept, 2)
		require.NoError(t, err)
		newConcept, err := s.UpsertNode(ctx, lexgraph.KindConcept, 1)
		require.NoError(t, err)

		_, err = s.UpsertEdge(ctx, lexgraph.NewEdge(sense1, oldConcept, lexgraph.RelBelongsTo, "webster", 0.9))
		require.NoError(t, err)
		_, err = s.UpsertEdge(ctx, lexgraph.NewEdge(sense2, oldConcept, lexgraph.RelBelongsTo, "kaikki", 0.8))
		require.NoError(t, err)
		// sense2 already belongs to the canonical concept too.
		_, err = s.UpsertEdge(ctx, lexgraph.NewEdge(sense2, newConcept, lexgraph.RelBelongsTo, "webster", 0.7))
		require.NoError(t, err)

		moved, err := s.RedirectEdges(ctx, oldConcept, newConcept)
		require.NoError(t, err)
		assert.Equal(t, 2, moved)

		edges, err := s.Edges(ctx)
		require.NoError(t, err)
		require.Len(t, edges, 2)
		for _, e := range edges {
			assert.Equal(t, newConcept, e.To)
			assert.NotEqual(t, e.From, e.To)
		}
		// The redirected sense1 edge keeps its source code.
		var sources []string
		for _, e := range edges {
			sources = append(sources, e.SourceCode)
		}
		assert.Contains(t, sources, "webster")
	})

	t.Run("redirect drops would-be self-loops", func(t *testing.T) {
		s := newStore(t)

		a, err := s.UpsertNode(ctx, lexgraph.KindConcept, 1)
		require.NoError(t, err)
		b, err := s.UpsertNode(ctx, lexgraph.KindConcept, 2)
		require.NoError(t, err)

		_, err = s.UpsertEdge(ctx, lexgraph.NewEdge(a, b, lexgraph.RelRelatedTo, "webster", 1.0))
		require.NoError(t, err)

		_, err = s.RedirectEdges(ctx, b, a)
		require.NoError(t, err)

		edges, err := s.Edges(ctx)
		require.NoError(t, err)
		assert.Empty(t, edges)
	})

	t.Run("get or create concept", func(t *testing.T) {
		s := newStore(t)

		key := lexgraph.NewConceptKey("gen", "noun", "bank")
		c1, created, err := s.GetOrCreateConcept(ctx, key, "gen", "noun", "webster")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotZero(t, c1.ID)

		c2, created, err := s.GetOrCreateConcept(ctx, key, "gen", "noun", "century21")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, c1.ID, c2.ID)
		// The original creator's attribution is kept.
		assert.Equal(t, "webster", c2.SourceCode)

		other, created, err := s.GetOrCreateConcept(ctx, lexgraph.NewConceptKey("gen", "verb", "bank"), "gen", "verb", "webster")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, c1.ID, other.ID)
	})

	t.Run("supersede and alias bookkeeping", func(t *testing.T) {
		s := newStore(t)

		key := lexgraph.NewConceptKey("gen", "noun", "bank")
		canon, _, err := s.GetOrCreateConcept(ctx, key, "gen", "noun", "webster")
		require.NoError(t, err)
		dupID, err := s.AddConcept(ctx, lexgraph.Concept{Key: key, Domain: "gen", PartOfSpeech: "noun", SourceCode: "kaikki"})
		require.NoError(t, err)

		grouped, err := s.ConceptsByKey(ctx)
		require.NoError(t, err)
		require.Len(t, grouped[key], 2)

		require.NoError(t, s.MarkSuperseded(ctx, dupID, canon.ID))

		grouped, err = s.ConceptsByKey(ctx)
		require.NoError(t, err)
		require.Len(t, grouped[key], 1)
		assert.Equal(t, canon.ID, grouped[key][0].ID)

		dup, err := s.ConceptByID(ctx, dupID)
		require.NoError(t, err)
		assert.Equal(t, canon.ID, dup.SupersededBy)
		assert.False(t, dup.IsLive())

		alias := lexgraph.ConceptAlias{CanonicalID: canon.ID, AliasID: dupID, AliasKey: key, SourceCode: "kaikki"}
		require.NoError(t, s.InsertAlias(ctx, alias))
		require.NoError(t, s.InsertAlias(ctx, alias))

		aliases, err := s.Aliases(ctx)
		require.NoError(t, err)
		require.Len(t, aliases, 1)
		assert.Equal(t, canon.ID, aliases[0].CanonicalID)
		assert.Equal(t, dupID, aliases[0].AliasID)
	})

	t.Run("get or create adopts canonical after supersede", func(t *testing.T) {
		s := newStore(t)

		key := lexgraph.NewConceptKey("gen", "noun", "mole")
		first, _, err := s.GetOrCreateConcept(ctx, key, "gen", "noun", "webster")
		require.NoError(t, err)
		canonID, err := s.AddConcept(ctx, lexgraph.Concept{Key: key, SourceCode: "oxford"})
		require.NoError(t, err)

		// Merge direction: smallest id wins, so first stays canonical here;
		// supersede the added duplicate and make sure lookups return first.
		require.NoError(t, s.MarkSuperseded(ctx, canonID, first.ID))
		got, created, err := s.GetOrCreateConcept(ctx, key, "gen", "noun", "kaikki")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("set concept confidence", func(t *testing.T) {
		s := newStore(t)

		c, _, err := s.GetOrCreateConcept(ctx, lexgraph.NewConceptKey("gen", "noun", "fern"), "gen", "noun", "webster")
		require.NoError(t, err)
		require.NoError(t, s.SetConceptConfidence(ctx, c.ID, 0.75))

		got, err := s.ConceptByID(ctx, c.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, got.ConfidenceScore, 1e-9)

		err = s.SetConceptConfidence(ctx, 9999, 0.5)
		require.ErrorIs(t, err, lexgraph.ErrConceptNotFound)
	})

	t.Run("record sense unions sources", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.RecordSense(ctx, 10, 1, "noun", "gen", "webster"))
		require.NoError(t, s.RecordSense(ctx, 10, 1, "noun", "gen", "kaikki"))
		require.NoError(t, s.RecordSense(ctx, 10, 1, "noun", "gen", "webster"))
		// Later empty attributes never blank out earlier ones.
		require.NoError(t, s.RecordSense(ctx, 10, 0, "", "", "oxford"))

		infos, err := s.SenseInfos(ctx)
		require.NoError(t, err)
		info := infos[10]
		assert.Equal(t, int64(1), info.WordID)
		assert.Equal(t, "noun", info.PartOfSpeech)
		assert.Equal(t, "gen", info.Domain)
		assert.Equal(t, []string{"kaikki", "oxford", "webster"}, info.Sources)

		// A conflicting non-empty attribute from a later source wins.
		require.NoError(t, s.RecordSense(ctx, 10, 2, "verb", "law", "century"))

		infos, err = s.SenseInfos(ctx)
		require.NoError(t, err)
		info = infos[10]
		assert.Equal(t, int64(2), info.WordID)
		assert.Equal(t, "verb", info.PartOfSpeech)
		assert.Equal(t, "law", info.Domain)
	})

	t.Run("rank upserts overwrite", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.UpsertConceptRank(ctx, 1, 0.5))
		require.NoError(t, s.UpsertConceptRank(ctx, 1, 0.8))
		require.NoError(t, s.UpsertSenseRank(ctx, 10, 0.3))
		require.NoError(t, s.UpsertWordRank(ctx, 100, 0.9))

		conceptRanks, err := s.ConceptRanks(ctx)
		require.NoError(t, err)
		require.Len(t, conceptRanks, 1)
		assert.InDelta(t, 0.8, conceptRanks[0].Score, 1e-9)

		senseRanks, err := s.SenseRanks(ctx)
		require.NoError(t, err)
		require.Len(t, senseRanks, 1)
		assert.Equal(t, int64(10), senseRanks[0].SenseID)

		wordRanks, err := s.WordRanks(ctx)
		require.NoError(t, err)
		require.Len(t, wordRanks, 1)
		assert.Equal(t, int64(100), wordRanks[0].WordID)
	})
}
