package build

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexibase/lexgraph"
	"github.com/lexibase/lexgraph/source"
)

func TestConceptBuilder_ClustersByKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewConceptBuilder(s, nil, nil)

	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			// Same key three times: one concept, three members.
			{WordID: 1, Word: "bank", Head: "bank", SenseID: 10, Domain: "Finance", PartOfSpeech: "noun", SourceCode: "webster"},
			{WordID: 1, Word: "bank", Head: "bank", SenseID: 11, Domain: "Finance", PartOfSpeech: "noun", SourceCode: "webster"},
			{WordID: 1, Word: "bank", Head: "bank", SenseID: 12, Domain: "Finance", PartOfSpeech: "noun", SourceCode: "webster"},
			// Different part of speech: separate concept.
			{WordID: 1, Word: "bank", Head: "bank", SenseID: 13, Domain: "Finance", PartOfSpeech: "verb", SourceCode: "webster"},
		},
	}
	stats, err := b.Build(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ConceptsCreated)
	assert.Equal(t, 4, stats.EdgesCreated)

	concepts, err := s.Concepts(ctx)
	require.NoError(t, err)
	require.Len(t, concepts, 2)

	byKey := make(map[lexgraph.ConceptKey]lexgraph.Concept, len(concepts))
	for _, c := range concepts {
		byKey[c.Key] = c
	}
	noun, ok := byKey[lexgraph.NewConceptKey("Finance", "noun", "bank")]
	require.True(t, ok)

	edges, err := s.Edges(ctx)
	require.NoError(t, err)
	var members int
	for _, e := range edges {
		if e.Relation == lexgraph.RelBelongsTo && e.To == noun.NodeKey() {
			members++
		}
	}
	assert.Equal(t, 3, members)
}

func TestConceptBuilder_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewConceptBuilder(s, nil, nil)

	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			{WordID: 1, Word: "bank", Head: "bank", SenseID: 10, Domain: "Finance", PartOfSpeech: "noun", SourceCode: "webster"},
		},
	}
	first, err := b.Build(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ConceptsCreated)

	second, err := b.Build(ctx, batch)
	require.NoError(t, err)
	assert.Zero(t, second.ConceptsCreated)
	assert.Zero(t, second.EdgesCreated)

	concepts, err := s.Concepts(ctx)
	require.NoError(t, err)
	assert.Len(t, concepts, 1)
}

func TestConceptBuilder_SkipsUnusableKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewConceptBuilder(s, nil, nil)

	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			// No headword means no concept key.
			{WordID: 1, Word: "", Head: "", SenseID: 10, Domain: "Finance", PartOfSpeech: "noun", SourceCode: "webster"},
			{WordID: 2, Word: "bank", Head: "bank", SenseID: 20, PartOfSpeech: "noun", SourceCode: "webster"},
		},
	}
	stats, err := b.Build(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.ConceptsCreated)
}

func TestConceptBuilder_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := NewConceptBuilder(s, nil, nil)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			batch := source.Batch{
				SourceCode: fmt.Sprintf("src-%d", n),
				Records: []source.SenseRecord{
					{WordID: 1, Word: "bank", Head: "bank", SenseID: int64(100 + n), Domain: "Finance", PartOfSpeech: "noun", SourceCode: fmt.Sprintf("src-%d", n)},
				},
			}
			_, errs[n] = b.Build(ctx, batch)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	concepts, err := s.Concepts(ctx)
	require.NoError(t, err)
	assert.Len(t, concepts, 1, "all writers must converge on one concept")
}

func TestConceptBuilder_Cancelled(t *testing.T) {
	s := newTestStore(t)
	b := NewConceptBuilder(s, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			{WordID: 1, Word: "bank", Head: "bank", SenseID: 10, PartOfSpeech: "noun", SourceCode: "webster"},
		},
	}
	_, err := b.Build(ctx, batch)
	require.ErrorIs(t, err, context.Canceled)
}
