package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lexibase/lexgraph"
)

// MemStore is the in-process GraphStore backend. All state lives in maps
// guarded by a single RWMutex; concept get-or-create runs under the write
// lock, which closes the creation race completely for in-process
// producers.
//
// MemStore is the reference backend: the other backends must be
// observationally equivalent to it.
type MemStore struct {
	mu     sync.RWMutex
	closed bool

	nodes map[lexgraph.NodeKey]lexgraph.Node
	edges map[string]lexgraph.Edge

	labels    map[lexgraph.NodeKind]map[string]int64
	nextLabel int64

	concepts    map[int64]lexgraph.Concept
	nextConcept int64

	aliases map[string]lexgraph.ConceptAlias

	senses map[int64]*senseEntry

	conceptRanks map[int64]lexgraph.ConceptRank
	senseRanks   map[int64]lexgraph.SenseRank
	wordRanks    map[int64]lexgraph.WordRank
}

type senseEntry struct {
	wordID  int64
	pos     string
	domain  string
	sources map[string]bool
}

// NewMemStore creates an empty in-process graph store.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes:        make(map[lexgraph.NodeKey]lexgraph.Node),
		edges:        make(map[string]lexgraph.Edge),
		labels:       make(map[lexgraph.NodeKind]map[string]int64),
		concepts:     make(map[int64]lexgraph.Concept),
		aliases:      make(map[string]lexgraph.ConceptAlias),
		senses:       make(map[int64]*senseEntry),
		conceptRanks: make(map[int64]lexgraph.ConceptRank),
		senseRanks:   make(map[int64]lexgraph.SenseRank),
		wordRanks:    make(map[int64]lexgraph.WordRank),
	}
}

func (s *MemStore) checkOpen() error {
	if s.closed {
		return lexgraph.ErrStoreClosed
	}
	return nil
}

// UpsertNode ensures a node exists and returns its key.
func (s *MemStore) UpsertNode(ctx context.Context, kind lexgraph.NodeKind, ref int64) (lexgraph.NodeKey, error) {
	if err := kind.Validate(); err != nil {
		return lexgraph.NodeKey{}, err
	}
	key := lexgraph.NewNodeKey(kind, ref)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return lexgraph.NodeKey{}, err
	}
	if _, ok := s.nodes[key]; !ok {
		s.nodes[key] = lexgraph.Node{Key: key, CreatedAt: time.Now().UTC()}
	}
	return key, nil
}

// InternLabel maps a trimmed, lower-cased label to a stable ref id,
// creating the node on first use.
func (s *MemStore) InternLabel(ctx context.Context, kind lexgraph.NodeKind, label string) (lexgraph.NodeKey, error) {
	if err := kind.Validate(); err != nil {
		return lexgraph.NodeKey{}, err
	}
	norm := strings.ToLower(strings.TrimSpace(label))
	if norm == "" {
		return lexgraph.NodeKey{}, fmt.Errorf("%w: empty label for %s node", lexgraph.ErrInvalidRecord, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return lexgraph.NodeKey{}, err
	}
	byLabel := s.labels[kind]
	if byLabel == nil {
		byLabel = make(map[string]int64)
		s.labels[kind] = byLabel
	}
	ref, ok := byLabel[norm]
	if !ok {
		s.nextLabel++
		ref = s.nextLabel
		byLabel[norm] = ref
	}
	key := lexgraph.NewNodeKey(kind, ref)
	if _, ok := s.nodes[key]; !ok {
		s.nodes[key] = lexgraph.Node{Key: key, CreatedAt: time.Now().UTC()}
	}
	return key, nil
}

// NodeExists reports whether a node with the given key exists.
func (s *MemStore) NodeExists(ctx context.Context, key lexgraph.NodeKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	_, ok := s.nodes[key]
	return ok, nil
}

// UpsertEdge inserts the edge unless its triple already exists.
func (s *MemStore) UpsertEdge(ctx context.Context, edge lexgraph.Edge) (bool, error) {
	if err := edge.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if _, ok := s.nodes[edge.From]; !ok {
		return false, fmt.Errorf("%w: edge from %s", lexgraph.ErrNodeNotFound, edge.From)
	}
	if _, ok := s.nodes[edge.To]; !ok {
		return false, fmt.Errorf("%w: edge to %s", lexgraph.ErrNodeNotFound, edge.To)
	}
	triple := edge.TripleKey()
	if _, ok := s.edges[triple]; ok {
		return false, nil
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}
	s.edges[triple] = edge
	return true, nil
}

// RedirectEdges rewrites every edge targeting oldTo to target newTo.
func (s *MemStore) RedirectEdges(ctx context.Context, oldTo, newTo lexgraph.NodeKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if _, ok := s.nodes[newTo]; !ok {
		return 0, fmt.Errorf("%w: redirect target %s", lexgraph.ErrNodeNotFound, newTo)
	}

	moved := 0
	for triple, edge := range s.edges {
		if edge.To != oldTo {
			continue
		}
		delete(s.edges, triple)
		moved++
		if edge.From == newTo {
			// Rewriting would create a self-loop; drop the edge.
			continue
		}
		edge.To = newTo
		newTriple := edge.TripleKey()
		if _, ok := s.edges[newTriple]; ok {
			// The canonical concept already has this edge; keep the
			// existing row so its metadata is preserved.
			continue
		}
		s.edges[newTriple] = edge
	}
	return moved, nil
}

// GetOrCreateConcept finds the live concept with the given key or creates
// one. The whole operation runs under the write lock, so two in-process
// producers cannot both insert.
func (s *MemStore) GetOrCreateConcept(ctx context.Context, key lexgraph.ConceptKey, domain, pos, sourceCode string) (lexgraph.Concept, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return lexgraph.Concept{}, false, err
	}

	if existing, ok := s.liveConceptLocked(key); ok {
		return existing, false, nil
	}

	s.nextConcept++
	c := lexgraph.Concept{
		ID:           s.nextConcept,
		Key:          key,
		Domain:       domain,
		PartOfSpeech: pos,
		SourceCode:   sourceCode,
		CreatedAt:    time.Now().UTC(),
	}
	s.concepts[c.ID] = c
	return c, true, nil
}

// liveConceptLocked returns the live concept with the smallest id for the
// key. Callers must hold at least the read lock.
func (s *MemStore) liveConceptLocked(key lexgraph.ConceptKey) (lexgraph.Concept, bool) {
	var best lexgraph.Concept
	found := false
	for _, c := range s.concepts {
		if c.Key != key || !c.IsLive() {
			continue
		}
		if !found || c.ID < best.ID {
			best = c
			found = true
		}
	}
	return best, found
}

// AddConcept inserts a concept row without the key-uniqueness check and
// returns its id. This is the low-level path for importing pre-existing
// rows (which may contain duplicate keys produced by distributed writers
// before canonicalization); normal producers go through GetOrCreateConcept.
func (s *MemStore) AddConcept(ctx context.Context, c lexgraph.Concept) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if c.ID == 0 {
		s.nextConcept++
		c.ID = s.nextConcept
	} else if c.ID > s.nextConcept {
		s.nextConcept = c.ID
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.concepts[c.ID] = c
	return c.ID, nil
}

// ConceptByID returns the concept row with the given id.
func (s *MemStore) ConceptByID(ctx context.Context, id int64) (lexgraph.Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return lexgraph.Concept{}, err
	}
	c, ok := s.concepts[id]
	if !ok {
		return lexgraph.Concept{}, fmt.Errorf("%w: id %d", lexgraph.ErrConceptNotFound, id)
	}
	return c, nil
}

// ConceptsByKey returns all live concepts grouped by key.
func (s *MemStore) ConceptsByKey(ctx context.Context) (map[lexgraph.ConceptKey][]lexgraph.Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	grouped := make(map[lexgraph.ConceptKey][]lexgraph.Concept)
	for _, c := range s.concepts {
		if c.IsLive() {
			grouped[c.Key] = append(grouped[c.Key], c)
		}
	}
	for key := range grouped {
		sort.Slice(grouped[key], func(i, j int) bool { return grouped[key][i].ID < grouped[key][j].ID })
	}
	return grouped, nil
}

// MarkSuperseded records that aliasID has been merged into canonicalID.
func (s *MemStore) MarkSuperseded(ctx context.Context, aliasID, canonicalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	c, ok := s.concepts[aliasID]
	if !ok {
		return fmt.Errorf("%w: alias id %d", lexgraph.ErrConceptNotFound, aliasID)
	}
	if _, ok := s.concepts[canonicalID]; !ok {
		return fmt.Errorf("%w: canonical id %d", lexgraph.ErrConceptNotFound, canonicalID)
	}
	c.SupersededBy = canonicalID
	s.concepts[aliasID] = c
	return nil
}

// InsertAlias records a ConceptAlias row, idempotent on (canonical, alias).
func (s *MemStore) InsertAlias(ctx context.Context, alias lexgraph.ConceptAlias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	k := fmt.Sprintf("%d|%d", alias.CanonicalID, alias.AliasID)
	if _, ok := s.aliases[k]; ok {
		return nil
	}
	if alias.CreatedAt.IsZero() {
		alias.CreatedAt = time.Now().UTC()
	}
	s.aliases[k] = alias
	return nil
}

// SetConceptConfidence overwrites the concept's confidence score.
func (s *MemStore) SetConceptConfidence(ctx context.Context, id int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	c, ok := s.concepts[id]
	if !ok {
		return fmt.Errorf("%w: id %d", lexgraph.ErrConceptNotFound, id)
	}
	c.ConfidenceScore = score
	s.concepts[id] = c
	return nil
}

// RecordSense upserts the per-sense attribute record.
func (s *MemStore) RecordSense(ctx context.Context, senseID, wordID int64, pos, domain, sourceCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	e, ok := s.senses[senseID]
	if !ok {
		e = &senseEntry{sources: make(map[string]bool)}
		s.senses[senseID] = e
	}
	if wordID != 0 {
		e.wordID = wordID
	}
	if pos != "" {
		e.pos = pos
	}
	if domain != "" {
		e.domain = domain
	}
	if sourceCode != "" {
		e.sources[sourceCode] = true
	}
	return nil
}

// SenseInfos returns the per-sense attribute records keyed by sense id.
func (s *MemStore) SenseInfos(ctx context.Context) (map[int64]SenseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make(map[int64]SenseInfo, len(s.senses))
	for id, e := range s.senses {
		sources := make([]string, 0, len(e.sources))
		for src := range e.sources {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		out[id] = SenseInfo{
			SenseID:      id,
			WordID:       e.wordID,
			PartOfSpeech: e.pos,
			Domain:       e.domain,
			Sources:      sources,
		}
	}
	return out, nil
}

// Nodes returns a snapshot of all nodes, ordered by key.
func (s *MemStore) Nodes(ctx context.Context) ([]lexgraph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]lexgraph.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}

// Edges returns a snapshot of all edges, ordered by triple key.
func (s *MemStore) Edges(ctx context.Context) ([]lexgraph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]lexgraph.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TripleKey() < out[j].TripleKey() })
	return out, nil
}

// Concepts returns a snapshot of all concept rows, ordered by id.
func (s *MemStore) Concepts(ctx context.Context) ([]lexgraph.Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]lexgraph.Concept, 0, len(s.concepts))
	for _, c := range s.concepts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Aliases returns a snapshot of all ConceptAlias rows.
func (s *MemStore) Aliases(ctx context.Context) ([]lexgraph.ConceptAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]lexgraph.ConceptAlias, 0, len(s.aliases))
	for _, a := range s.aliases {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CanonicalID != out[j].CanonicalID {
			return out[i].CanonicalID < out[j].CanonicalID
		}
		return out[i].AliasID < out[j].AliasID
	})
	return out, nil
}

// UpsertConceptRank overwrites the rank row for a concept.
func (s *MemStore) UpsertConceptRank(ctx context.Context, conceptID int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.conceptRanks[conceptID] = lexgraph.ConceptRank{ConceptID: conceptID, Score: score, UpdatedAt: time.Now().UTC()}
	return nil
}

// UpsertSenseRank overwrites the rank row for a sense.
func (s *MemStore) UpsertSenseRank(ctx context.Context, senseID int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.senseRanks[senseID] = lexgraph.SenseRank{SenseID: senseID, Score: score, UpdatedAt: time.Now().UTC()}
	return nil
}

// UpsertWordRank overwrites the rank row for a word.
func (s *MemStore) UpsertWordRank(ctx context.Context, wordID int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.wordRanks[wordID] = lexgraph.WordRank{WordID: wordID, Score: score, UpdatedAt: time.Now().UTC()}
	return nil
}

// ConceptRanks returns all concept rank rows, ordered by id.
func (s *MemStore) ConceptRanks(ctx context.Context) ([]lexgraph.ConceptRank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]lexgraph.ConceptRank, 0, len(s.conceptRanks))
	for _, r := range s.conceptRanks {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConceptID < out[j].ConceptID })
	return out, nil
}

// SenseRanks returns all sense rank rows, ordered by id.
func (s *MemStore) SenseRanks(ctx context.Context) ([]lexgraph.SenseRank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]lexgraph.SenseRank, 0, len(s.senseRanks))
	for _, r := range s.senseRanks {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SenseID < out[j].SenseID })
	return out, nil
}

// WordRanks returns all word rank rows, ordered by id.
func (s *MemStore) WordRanks(ctx context.Context) ([]lexgraph.WordRank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]lexgraph.WordRank, 0, len(s.wordRanks))
	for _, r := range s.wordRanks {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WordID < out[j].WordID })
	return out, nil
}

// Close marks the store closed. Further operations fail.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
