// Package lexgraph defines the core data model of the lexical knowledge
// graph: typed nodes (words, senses, domains, languages, concepts), typed
// idempotent edges between them, concept clusters with their keys and
// aliases, and the derived rank rows.
//
// The graph is assembled incrementally from multiple heterogeneous
// dictionary sources. Every write in the system is idempotent, so a source
// batch can be re-imported at any time without creating duplicate rows;
// the (From, To, Relation) triple deduplicates edges and ConceptKey
// deduplicates concept clusters.
//
// # Core Types
//
//   - NodeKey / NodeKind: tagged node identity, serialized as "Kind:Ref"
//     only at the persistence boundary
//   - Edge / RelationKind: directed typed relations with a fixed relation
//     taxonomy
//   - Concept / ConceptKey / ConceptAlias: sense clusters, their
//     deterministic keys, and the audit trail of merged duplicates
//   - ConceptRank / SenseRank / WordRank: propagated relevance scores
//
// The build pipeline itself lives in the subpackages:
//
//   - store: the GraphStore contract and its memory, Redis and SQLite
//     backends
//   - source: input tuples delivered by the per-source extraction
//     collaborators
//   - build: EdgeBuilder and ConceptBuilder
//   - merge: ConceptMerger duplicate canonicalization
//   - rank: ConfidenceCalculator and the three-stage RankCalculator
//   - validate: GraphValidator structural invariant checks
//   - lock: keyed locking for concurrent concept creation
//   - pipeline: the per-source batch orchestrator
//
// # Typical Usage
//
//	st := store.NewMemStore()
//	defer st.Close()
//
//	p := pipeline.New(st)
//	results, err := p.RunAll(ctx, batches)
package lexgraph
