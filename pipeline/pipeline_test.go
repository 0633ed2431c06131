package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

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

func websterBatch() source.Batch {
	return source.Batch{
		SourceCode: "webster",
		Records: []source.SenseRecord{
			{
				WordID: 1, Word: "bank", Head: "bank", SenseID: 10,
				Domain: "Finance", PartOfSpeech: "noun",
				EtymologyLanguages: []string{"it"},
				CrossReferences: []source.CrossReference{
					{Type: source.RefSee, TargetWord: "shore"},
				},
				SourceCode: "webster",
			},
			{
				WordID: 1, Word: "bank", Head: "bank", SenseID: 11,
				ParentSenseID: 10, Domain: "Finance", PartOfSpeech: "noun",
				SourceCode: "webster",
			},
			{
				WordID: 2, Word: "shore", Head: "shore", SenseID: 20,
				Domain: "Geography", PartOfSpeech: "noun",
				SourceCode: "webster",
			},
		},
	}
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := New(s)

	result, err := p.Run(ctx, websterBatch())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "webster", result.SourceCode)
	assert.Equal(t, 3, result.Edges.Records)
	assert.Positive(t, result.Edges.EdgesCreated)
	assert.Equal(t, 2, result.Concepts.ConceptsCreated)
	assert.Zero(t, result.Merge.Superseded)
	assert.Equal(t, 2, result.ConceptsScored)
	assert.Equal(t, 3, result.Ranks.Senses)
	assert.Equal(t, 2, result.Ranks.Words)
	assert.Positive(t, result.Duration)

	// Every stage output landed.
	ranks, err := s.WordRanks(ctx)
	require.NoError(t, err)
	assert.Len(t, ranks, 2)
	concepts, err := s.Concepts(ctx)
	require.NoError(t, err)
	for _, c := range concepts {
		assert.Positive(t, c.ConfidenceScore)
	}
}

func TestPipeline_RunIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := New(s)

	first, err := p.Run(ctx, websterBatch())
	require.NoError(t, err)
	edges1, err := s.Edges(ctx)
	require.NoError(t, err)

	second, err := p.Run(ctx, websterBatch())
	require.NoError(t, err)
	edges2, err := s.Edges(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Zero(t, second.Edges.EdgesCreated)
	assert.Zero(t, second.Concepts.ConceptsCreated)
	assert.Equal(t, edges1, edges2)
}

func TestPipeline_StageSpans(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	p := New(s, WithTracerProvider(tp))

	_, err := p.Run(ctx, websterBatch())
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, span := range recorder.Ended() {
		names[span.Name()] = true
	}
	for _, want := range []string{
		"pipeline.run", "pipeline.edges", "pipeline.concepts",
		"pipeline.merge", "pipeline.confidence", "pipeline.ranks",
		"pipeline.validate",
	} {
		assert.True(t, names[want], "missing span %s", want)
	}
}

func TestPipeline_RunAllContinuesPastBadBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := New(s)

	batches := []source.Batch{
		{SourceCode: ""}, // invalid envelope, fails the edge stage
		websterBatch(),
	}
	results, err := p.RunAll(ctx, batches)
	require.NoError(t, err, "a data error in one source must not abort the run")
	require.Len(t, results, 2)

	// The good batch still built its graph.
	edges, err := s.Edges(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, edges)
}

// brokenStore injects a structurally invalid edge that the normal write
// path would refuse, so validation fails.
type brokenStore struct {
	store.GraphStore
}

func (s *brokenStore) Edges(ctx context.Context) ([]lexgraph.Edge, error) {
	edges, err := s.GraphStore.Edges(ctx)
	if err != nil {
		return nil, err
	}
	key := lexgraph.NewNodeKey(lexgraph.KindSense, 10)
	return append(edges, lexgraph.Edge{From: key, To: key, Relation: lexgraph.RelSee}), nil
}

func TestPipeline_RunAllStopsOnStructuralError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := New(&brokenStore{GraphStore: s})

	batches := []source.Batch{websterBatch(), {
		SourceCode: "oxford",
		Records: []source.SenseRecord{
			{WordID: 3, Word: "levee", Head: "levee", SenseID: 30, SourceCode: "oxford"},
		},
	}}
	results, err := p.RunAll(ctx, batches)
	require.Error(t, err)

	var structural *validate.StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Len(t, results, 1, "second batch must not run after a structural failure")
}

func TestPipeline_RunAllStopsOnCancellation(t *testing.T) {
	s := newTestStore(t)
	p := New(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := p.RunAll(ctx, []source.Batch{websterBatch(), websterBatch()})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1)
}

func TestPipeline_MergesAcrossSources(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := New(s)

	// Seed a duplicate concept as a distributed writer would have left it.
	key := lexgraph.NewConceptKey("Finance", "noun", "bank")
	_, _, err := s.GetOrCreateConcept(ctx, key, "Finance", "noun", "legacy")
	require.NoError(t, err)
	dupID, err := s.AddConcept(ctx, lexgraph.Concept{Key: key, Domain: "Finance", PartOfSpeech: "noun", SourceCode: "legacy2"})
	require.NoError(t, err)
	_, err = s.UpsertNode(ctx, lexgraph.KindConcept, dupID)
	require.NoError(t, err)

	result, err := p.Run(ctx, websterBatch())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Merge.Groups)
	assert.Equal(t, 1, result.Merge.Superseded)

	groups, err := s.ConceptsByKey(ctx)
	require.NoError(t, err)
	assert.Len(t, groups[key], 1, "exactly one live concept per key after merge")
}
