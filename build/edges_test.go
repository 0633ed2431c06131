package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexibase/lexgraph"
	"github.com/lexibase/lexgraph/source"
	"github.com/lexibase/lexgraph/store"
	"github.com/lexibase/lexgraph/validate"
)

func newTestStore(t *testing.T) *store.MemStore {
	t.Helper()
	s := store.NewMemStore()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// websterBatch is a small but fully featured batch: two words, a sense
// hierarchy, domains, etymologies and cross-references in both directions.
func websterBatch() source.Batch {
	return source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			{
				WordID: 1, Word: "bank", Head: "bank", SenseID: 10,
				Domain: "Finance", PartOfSpeech: "noun",
				EtymologyLanguages: []string{"it", "fr"},
				CrossReferences: []source.CrossReference{
					{Type: source.RefSee, TargetWord: "shore"},
				},
				SourceCode: "webster",
			},
			{
				WordID: 1, Word: "bank", Head: "bank", SenseID: 11,
				ParentSenseID: 10, PartOfSpeech: "noun",
				SourceCode: "webster",
			},
			{
				WordID: 2, Word: "shore", Head: "shore", SenseID: 20,
				Domain: "Geography", PartOfSpeech: "noun",
				CrossReferences: []source.CrossReference{
					{Type: source.RefCf, TargetWord: "bank"},
				},
				SourceCode: "webster",
			},
		},
	}
}

func edgeSet(t *testing.T, s store.GraphStore) map[string]lexgraph.Edge {
	t.Helper()
	edges, err := s.Edges(context.Background())
	require.NoError(t, err)
	out := make(map[string]lexgraph.Edge, len(edges))
	for _, e := range edges {
		out[e.TripleKey()] = e
	}
	return out
}

func TestEdgeBuilder_Build(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewEdgeBuilder(s, nil)

	stats, err := b.Build(ctx, websterBatch())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 0, stats.Skipped)

	edges := edgeSet(t, s)

	// Word --HAS_SENSE--> Sense for every resolved word.
	assert.Contains(t, edges, "Word:1|HAS_SENSE|Sense:10")
	assert.Contains(t, edges, "Word:1|HAS_SENSE|Sense:11")
	assert.Contains(t, edges, "Word:2|HAS_SENSE|Sense:20")

	// Sense hierarchy.
	assert.Contains(t, edges, "Sense:11|SUB_SENSE_OF|Sense:10")

	// Cross-references resolved within the batch, both directions.
	assert.Contains(t, edges, "Sense:10|SEE|Sense:20")
	assert.Contains(t, edges, "Sense:20|COMPARE|Sense:10")

	// Domain and etymology links through interned labels.
	var domains, languages int
	for _, e := range edges {
		switch e.Relation {
		case lexgraph.RelInDomain:
			domains++
		case lexgraph.RelDerivedFrom:
			languages++
		}
	}
	assert.Equal(t, 2, domains)
	assert.Equal(t, 2, languages)
}

func TestEdgeBuilder_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewEdgeBuilder(s, nil)

	first, err := b.Build(ctx, websterBatch())
	require.NoError(t, err)
	snapshot1 := edgeSet(t, s)
	nodes1, err := s.Nodes(ctx)
	require.NoError(t, err)

	second, err := b.Build(ctx, websterBatch())
	require.NoError(t, err)
	snapshot2 := edgeSet(t, s)
	nodes2, err := s.Nodes(ctx)
	require.NoError(t, err)

	assert.Positive(t, first.EdgesCreated)
	assert.Zero(t, second.EdgesCreated, "second run must not insert anything")
	assert.Equal(t, snapshot1, snapshot2)
	assert.Equal(t, nodes1, nodes2)
}

func TestEdgeBuilder_SelfReferenceGuards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewEdgeBuilder(s, nil)

	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			{
				// Parent id equal to the sense id: extractor noise.
				WordID: 1, Word: "echo", Head: "echo", SenseID: 10,
				ParentSenseID: 10,
				// Cross-reference resolving to this very sense.
				CrossReferences: []source.CrossReference{
					{Type: source.RefSee, TargetWord: "echo"},
				},
				SourceCode: "webster",
			},
		},
	}
	_, err := b.Build(ctx, batch)
	require.NoError(t, err)

	for triple, e := range edgeSet(t, s) {
		assert.NotEqual(t, e.From, e.To, "self-loop leaked: %s", triple)
		assert.NotEqual(t, lexgraph.RelSubSenseOf, e.Relation)
		assert.False(t, e.Relation.IsCrossReference(), "self-resolving reference must produce zero edges")
	}
}

func TestEdgeBuilder_SkipsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewEdgeBuilder(s, nil)

	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			{WordID: 1, Word: "good", Head: "good", SenseID: 10, SourceCode: "webster"},
			{WordID: 2, Word: "bad", Head: "bad", SourceCode: "webster"}, // no sense id
		},
	}
	stats, err := b.Build(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.Skipped)

	edges := edgeSet(t, s)
	assert.Contains(t, edges, "Word:1|HAS_SENSE|Sense:10")
	assert.Len(t, edges, 1)
}

func TestEdgeBuilder_UnresolvedWord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewEdgeBuilder(s, nil)

	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			// No canonical word resolved: sense node only, no HAS_SENSE.
			{Word: "orphan", Head: "orphan", SenseID: 10, SourceCode: "webster"},
		},
	}
	_, err := b.Build(ctx, batch)
	require.NoError(t, err)

	assert.Empty(t, edgeSet(t, s))
	ok, err := s.NodeExists(ctx, lexgraph.NewNodeKey(lexgraph.KindSense, 10))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEdgeBuilder_UnresolvedWordDropsHierarchy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewEdgeBuilder(s, nil)

	// A sub-sense whose word could not be resolved: without a HAS_SENSE
	// edge the SUB_SENSE_OF edge would be structurally invalid, so it is
	// dropped as data noise instead.
	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			{Word: "stray", Head: "stray", SenseID: 11, ParentSenseID: 10, SourceCode: "webster"},
		},
	}
	_, err := b.Build(ctx, batch)
	require.NoError(t, err)

	assert.Empty(t, edgeSet(t, s))
	require.NoError(t, validate.NewValidator(s, nil).Validate(ctx))
}

func TestEdgeBuilder_CrossRefTargetOutsideBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewEdgeBuilder(s, nil)

	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			{
				WordID: 1, Word: "bank", Head: "bank", SenseID: 10,
				CrossReferences: []source.CrossReference{
					{Type: source.RefSeeAlso, TargetWord: "levee"},
				},
				SourceCode: "webster",
			},
		},
	}
	_, err := b.Build(ctx, batch)
	require.NoError(t, err)

	for _, e := range edgeSet(t, s) {
		assert.False(t, e.Relation.IsCrossReference())
	}
}

func TestEdgeBuilder_BadBatchEnvelope(t *testing.T) {
	ctx := context.Background()
	b := NewEdgeBuilder(newTestStore(t), nil)

	_, err := b.Build(ctx, source.Batch{})
	require.ErrorIs(t, err, lexgraph.ErrInvalidRecord)
}
