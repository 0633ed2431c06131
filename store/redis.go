package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexibase/lexgraph"
)

// RedisOptions configures the Redis connection for a RedisStore.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// Namespace prefixes every key the store writes. Defaults to "lexgraph".
	Namespace string

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration
}

// RedisStore implements GraphStore on Redis using go-redis/v9.
//
// Layout (all keys under the configured namespace):
//
//	nodes                 set of serialized node keys
//	node:{key}            hash: created_at
//	edges                 set of edge triple keys
//	edge:{triple}         hash: from, to, relation, source, confidence, created_at
//	labels:{kind}         hash: normalized label -> ref id
//	label_seq             counter for label ref ids
//	concepts              set of concept ids
//	concept:{id}          hash: key, domain, pos, source, confidence, superseded_by, created_at
//	conceptkey:{key}      first-writer-wins index: concept key -> live id
//	concept_seq           counter for concept ids
//	aliases               set of "canonical|alias" pairs
//	alias:{canon}|{alias} hash: key, source, created_at
//	senses                set of sense ids
//	sense:{id}            hash: word_id, pos, domain
//	sense:{id}:sources    set of source codes
//	rank:{concept|sense|word} hash: id -> "score|unixnano"
//
// Edge deduplication rides on SADD's return value; concept creation rides
// on SETNX of the conceptkey index, so the first writer wins and later
// writers adopt its row. The residual duplicate window across separate
// namespaces (or a flushed index) is closed by the merge pass.
type RedisStore struct {
	client *redis.Client
	ns     string
}

// NewRedisStore creates a Redis-backed graph store and verifies
// connectivity with a ping.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Namespace == "" {
		opts.Namespace = "lexgraph"
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}
	if opts.ReadTimeout > 0 {
		redisOpts.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		redisOpts.WriteTimeout = opts.WriteTimeout
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ns: opts.Namespace}, nil
}

func (s *RedisStore) key(parts ...string) string {
	return s.ns + ":" + strings.Join(parts, ":")
}

// UpsertNode ensures a node exists and returns its key.
func (s *RedisStore) UpsertNode(ctx context.Context, kind lexgraph.NodeKind, ref int64) (lexgraph.NodeKey, error) {
	if err := kind.Validate(); err != nil {
		return lexgraph.NodeKey{}, err
	}
	key := lexgraph.NewNodeKey(kind, ref)
	added, err := s.client.SAdd(ctx, s.key("nodes"), key.String()).Result()
	if err != nil {
		return lexgraph.NodeKey{}, fmt.Errorf("failed to upsert node %s: %w", key, err)
	}
	if added > 0 {
		err = s.client.HSet(ctx, s.key("node", key.String()),
			"created_at", time.Now().UTC().UnixNano()).Err()
		if err != nil {
			return lexgraph.NodeKey{}, fmt.Errorf("failed to write node %s: %w", key, err)
		}
	}
	return key, nil
}

// InternLabel maps a trimmed, lower-cased label to a stable ref id.
func (s *RedisStore) InternLabel(ctx context.Context, kind lexgraph.NodeKind, label string) (lexgraph.NodeKey, error) {
	if err := kind.Validate(); err != nil {
		return lexgraph.NodeKey{}, err
	}
	norm := strings.ToLower(strings.TrimSpace(label))
	if norm == "" {
		return lexgraph.NodeKey{}, fmt.Errorf("%w: empty label for %s node", lexgraph.ErrInvalidRecord, kind)
	}

	labels := s.key("labels", string(kind))
	ref, err := s.client.HGet(ctx, labels, norm).Int64()
	if err == redis.Nil {
		// Allocate a candidate ref; HSetNX decides the winner.
		candidate, err := s.client.Incr(ctx, s.key("label_seq")).Result()
		if err != nil {
			return lexgraph.NodeKey{}, fmt.Errorf("failed to allocate label ref: %w", err)
		}
		won, err := s.client.HSetNX(ctx, labels, norm, candidate).Result()
		if err != nil {
			return lexgraph.NodeKey{}, fmt.Errorf("failed to intern label %q: %w", norm, err)
		}
		if won {
			ref = candidate
		} else {
			ref, err = s.client.HGet(ctx, labels, norm).Int64()
			if err != nil {
				return lexgraph.NodeKey{}, fmt.Errorf("failed to read interned label %q: %w", norm, err)
			}
		}
	} else if err != nil {
		return lexgraph.NodeKey{}, fmt.Errorf("failed to read label %q: %w", norm, err)
	}

	return s.UpsertNode(ctx, kind, ref)
}

// NodeExists reports whether a node with the given key exists.
func (s *RedisStore) NodeExists(ctx context.Context, key lexgraph.NodeKey) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key("nodes"), key.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check node %s: %w", key, err)
	}
	return ok, nil
}

// UpsertEdge inserts the edge unless its triple already exists.
func (s *RedisStore) UpsertEdge(ctx context.Context, edge lexgraph.Edge) (bool, error) {
	if err := edge.Validate(); err != nil {
		return false, err
	}
	for _, endpoint := range []lexgraph.NodeKey{edge.From, edge.To} {
		ok, err := s.NodeExists(ctx, endpoint)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("%w: edge endpoint %s", lexgraph.ErrNodeNotFound, endpoint)
		}
	}

	triple := edge.TripleKey()
	added, err := s.client.SAdd(ctx, s.key("edges"), triple).Result()
	if err != nil {
		return false, fmt.Errorf("failed to upsert edge %s: %w", triple, err)
	}
	if added == 0 {
		return false, nil
	}
	created := edge.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	err = s.client.HSet(ctx, s.key("edge", triple),
		"from", edge.From.String(),
		"to", edge.To.String(),
		"relation", string(edge.Relation),
		"source", edge.SourceCode,
		"confidence", edge.Confidence,
		"created_at", created.UnixNano(),
	).Err()
	if err != nil {
		return false, fmt.Errorf("failed to write edge %s: %w", triple, err)
	}
	return true, nil
}

// RedirectEdges rewrites every edge targeting oldTo to target newTo.
func (s *RedisStore) RedirectEdges(ctx context.Context, oldTo, newTo lexgraph.NodeKey) (int, error) {
	ok, err := s.NodeExists(ctx, newTo)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: redirect target %s", lexgraph.ErrNodeNotFound, newTo)
	}

	edges, err := s.Edges(ctx)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, edge := range edges {
		if edge.To != oldTo {
			continue
		}
		oldTriple := edge.TripleKey()
		if err := s.client.SRem(ctx, s.key("edges"), oldTriple).Err(); err != nil {
			return moved, fmt.Errorf("failed to remove edge %s: %w", oldTriple, err)
		}
		if err := s.client.Del(ctx, s.key("edge", oldTriple)).Err(); err != nil {
			return moved, fmt.Errorf("failed to delete edge %s: %w", oldTriple, err)
		}
		moved++
		if edge.From == newTo {
			// Rewriting would create a self-loop; drop the edge.
			continue
		}
		edge.To = newTo
		newTriple := edge.TripleKey()
		added, err := s.client.SAdd(ctx, s.key("edges"), newTriple).Result()
		if err != nil {
			return moved, fmt.Errorf("failed to add redirected edge %s: %w", newTriple, err)
		}
		if added == 0 {
			// The canonical target already has this edge.
			continue
		}
		err = s.client.HSet(ctx, s.key("edge", newTriple),
			"from", edge.From.String(),
			"to", edge.To.String(),
			"relation", string(edge.Relation),
			"source", edge.SourceCode,
			"confidence", edge.Confidence,
			"created_at", edge.CreatedAt.UnixNano(),
		).Err()
		if err != nil {
			return moved, fmt.Errorf("failed to write redirected edge %s: %w", newTriple, err)
		}
	}
	return moved, nil
}

// GetOrCreateConcept finds the live concept for the key or creates one.
// First writer wins via SETNX on the concept-key index.
func (s *RedisStore) GetOrCreateConcept(ctx context.Context, key lexgraph.ConceptKey, domain, pos, sourceCode string) (lexgraph.Concept, bool, error) {
	indexKey := s.key("conceptkey", string(key))
	id, err := s.client.Get(ctx, indexKey).Int64()
	if err == nil {
		c, err := s.ConceptByID(ctx, id)
		return c, false, err
	}
	if err != redis.Nil {
		return lexgraph.Concept{}, false, fmt.Errorf("failed to read concept index for %q: %w", key, err)
	}

	candidate, err := s.client.Incr(ctx, s.key("concept_seq")).Result()
	if err != nil {
		return lexgraph.Concept{}, false, fmt.Errorf("failed to allocate concept id: %w", err)
	}
	won, err := s.client.SetNX(ctx, indexKey, candidate, 0).Result()
	if err != nil {
		return lexgraph.Concept{}, false, fmt.Errorf("failed to claim concept key %q: %w", key, err)
	}
	if !won {
		id, err := s.client.Get(ctx, indexKey).Int64()
		if err != nil {
			return lexgraph.Concept{}, false, fmt.Errorf("failed to read concept index for %q: %w", key, err)
		}
		c, err := s.ConceptByID(ctx, id)
		return c, false, err
	}

	c := lexgraph.Concept{
		ID:           candidate,
		Key:          key,
		Domain:       domain,
		PartOfSpeech: pos,
		SourceCode:   sourceCode,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.writeConcept(ctx, c); err != nil {
		return lexgraph.Concept{}, false, err
	}
	return c, true, nil
}

func (s *RedisStore) writeConcept(ctx context.Context, c lexgraph.Concept) error {
	if err := s.client.SAdd(ctx, s.key("concepts"), c.ID).Err(); err != nil {
		return fmt.Errorf("failed to register concept %d: %w", c.ID, err)
	}
	err := s.client.HSet(ctx, s.key("concept", strconv.FormatInt(c.ID, 10)),
		"key", string(c.Key),
		"domain", c.Domain,
		"pos", c.PartOfSpeech,
		"source", c.SourceCode,
		"confidence", c.ConfidenceScore,
		"superseded_by", c.SupersededBy,
		"created_at", c.CreatedAt.UnixNano(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write concept %d: %w", c.ID, err)
	}
	return nil
}

// AddConcept inserts a concept row without touching the key index.
func (s *RedisStore) AddConcept(ctx context.Context, c lexgraph.Concept) (int64, error) {
	if c.ID == 0 {
		id, err := s.client.Incr(ctx, s.key("concept_seq")).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to allocate concept id: %w", err)
		}
		c.ID = id
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if err := s.writeConcept(ctx, c); err != nil {
		return 0, err
	}
	return c.ID, nil
}

// ConceptByID returns the concept row with the given id.
func (s *RedisStore) ConceptByID(ctx context.Context, id int64) (lexgraph.Concept, error) {
	fields, err := s.client.HGetAll(ctx, s.key("concept", strconv.FormatInt(id, 10))).Result()
	if err != nil {
		return lexgraph.Concept{}, fmt.Errorf("failed to read concept %d: %w", id, err)
	}
	if len(fields) == 0 {
		return lexgraph.Concept{}, fmt.Errorf("%w: id %d", lexgraph.ErrConceptNotFound, id)
	}
	return conceptFromFields(id, fields), nil
}

func conceptFromFields(id int64, fields map[string]string) lexgraph.Concept {
	confidence, _ := strconv.ParseFloat(fields["confidence"], 64)
	superseded, _ := strconv.ParseInt(fields["superseded_by"], 10, 64)
	createdNanos, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	return lexgraph.Concept{
		ID:              id,
		Key:             lexgraph.ConceptKey(fields["key"]),
		Domain:          fields["domain"],
		PartOfSpeech:    fields["pos"],
		SourceCode:      fields["source"],
		ConfidenceScore: confidence,
		SupersededBy:    superseded,
		CreatedAt:       time.Unix(0, createdNanos).UTC(),
	}
}

// ConceptsByKey returns all live concepts grouped by key.
func (s *RedisStore) ConceptsByKey(ctx context.Context) (map[lexgraph.ConceptKey][]lexgraph.Concept, error) {
	concepts, err := s.Concepts(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[lexgraph.ConceptKey][]lexgraph.Concept)
	for _, c := range concepts {
		if c.IsLive() {
			grouped[c.Key] = append(grouped[c.Key], c)
		}
	}
	return grouped, nil
}

// MarkSuperseded records the merge and repoints the key index at the
// canonical id so later get-or-create calls adopt the survivor.
func (s *RedisStore) MarkSuperseded(ctx context.Context, aliasID, canonicalID int64) error {
	alias, err := s.ConceptByID(ctx, aliasID)
	if err != nil {
		return err
	}
	if _, err := s.ConceptByID(ctx, canonicalID); err != nil {
		return err
	}
	alias.SupersededBy = canonicalID
	if err := s.writeConcept(ctx, alias); err != nil {
		return err
	}

	indexKey := s.key("conceptkey", string(alias.Key))
	current, err := s.client.Get(ctx, indexKey).Int64()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read concept index for %q: %w", alias.Key, err)
	}
	if err == nil && current == aliasID {
		if err := s.client.Set(ctx, indexKey, canonicalID, 0).Err(); err != nil {
			return fmt.Errorf("failed to repoint concept index for %q: %w", alias.Key, err)
		}
	}
	return nil
}

// InsertAlias records a ConceptAlias row, idempotent on (canonical, alias).
func (s *RedisStore) InsertAlias(ctx context.Context, alias lexgraph.ConceptAlias) error {
	member := fmt.Sprintf("%d|%d", alias.CanonicalID, alias.AliasID)
	added, err := s.client.SAdd(ctx, s.key("aliases"), member).Result()
	if err != nil {
		return fmt.Errorf("failed to record alias %s: %w", member, err)
	}
	if added == 0 {
		return nil
	}
	created := alias.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	err = s.client.HSet(ctx, s.key("alias", member),
		"key", string(alias.AliasKey),
		"source", alias.SourceCode,
		"created_at", created.UnixNano(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write alias %s: %w", member, err)
	}
	return nil
}

// SetConceptConfidence overwrites the concept's confidence score.
func (s *RedisStore) SetConceptConfidence(ctx context.Context, id int64, score float64) error {
	if _, err := s.ConceptByID(ctx, id); err != nil {
		return err
	}
	err := s.client.HSet(ctx, s.key("concept", strconv.FormatInt(id, 10)), "confidence", score).Err()
	if err != nil {
		return fmt.Errorf("failed to set confidence for concept %d: %w", id, err)
	}
	return nil
}

// RecordSense upserts the per-sense attribute record.
func (s *RedisStore) RecordSense(ctx context.Context, senseID, wordID int64, pos, domain, sourceCode string) error {
	id := strconv.FormatInt(senseID, 10)
	if err := s.client.SAdd(ctx, s.key("senses"), senseID).Err(); err != nil {
		return fmt.Errorf("failed to register sense %d: %w", senseID, err)
	}
	fields := []any{}
	if wordID != 0 {
		fields = append(fields, "word_id", wordID)
	}
	if pos != "" {
		fields = append(fields, "pos", pos)
	}
	if domain != "" {
		fields = append(fields, "domain", domain)
	}
	if len(fields) > 0 {
		if err := s.client.HSet(ctx, s.key("sense", id), fields...).Err(); err != nil {
			return fmt.Errorf("failed to write sense %d: %w", senseID, err)
		}
	}
	if sourceCode != "" {
		if err := s.client.SAdd(ctx, s.key("sense", id, "sources"), sourceCode).Err(); err != nil {
			return fmt.Errorf("failed to record source for sense %d: %w", senseID, err)
		}
	}
	return nil
}

// SenseInfos returns the per-sense attribute records keyed by sense id.
func (s *RedisStore) SenseInfos(ctx context.Context) (map[int64]SenseInfo, error) {
	members, err := s.client.SMembers(ctx, s.key("senses")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list senses: %w", err)
	}
	out := make(map[int64]SenseInfo, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		fields, err := s.client.HGetAll(ctx, s.key("sense", member)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read sense %s: %w", member, err)
		}
		sources, err := s.client.SMembers(ctx, s.key("sense", member, "sources")).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read sources for sense %s: %w", member, err)
		}
		sort.Strings(sources)
		wordID, _ := strconv.ParseInt(fields["word_id"], 10, 64)
		out[id] = SenseInfo{
			SenseID:      id,
			WordID:       wordID,
			PartOfSpeech: fields["pos"],
			Domain:       fields["domain"],
			Sources:      sources,
		}
	}
	return out, nil
}

// Nodes returns a snapshot of all nodes, ordered by key.
func (s *RedisStore) Nodes(ctx context.Context) ([]lexgraph.Node, error) {
	members, err := s.client.SMembers(ctx, s.key("nodes")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	sort.Strings(members)
	out := make([]lexgraph.Node, 0, len(members))
	for _, member := range members {
		key, err := lexgraph.ParseNodeKey(member)
		if err != nil {
			return nil, fmt.Errorf("corrupt node entry: %w", err)
		}
		createdRaw, err := s.client.HGet(ctx, s.key("node", member), "created_at").Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to read node %s: %w", member, err)
		}
		createdNanos, _ := strconv.ParseInt(createdRaw, 10, 64)
		out = append(out, lexgraph.Node{Key: key, CreatedAt: time.Unix(0, createdNanos).UTC()})
	}
	return out, nil
}

// Edges returns a snapshot of all edges, ordered by triple key.
func (s *RedisStore) Edges(ctx context.Context) ([]lexgraph.Edge, error) {
	members, err := s.client.SMembers(ctx, s.key("edges")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	sort.Strings(members)
	out := make([]lexgraph.Edge, 0, len(members))
	for _, triple := range members {
		fields, err := s.client.HGetAll(ctx, s.key("edge", triple)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read edge %s: %w", triple, err)
		}
		from, err := lexgraph.ParseNodeKey(fields["from"])
		if err != nil {
			return nil, fmt.Errorf("corrupt edge %s: %w", triple, err)
		}
		to, err := lexgraph.ParseNodeKey(fields["to"])
		if err != nil {
			return nil, fmt.Errorf("corrupt edge %s: %w", triple, err)
		}
		confidence, _ := strconv.ParseFloat(fields["confidence"], 64)
		createdNanos, _ := strconv.ParseInt(fields["created_at"], 10, 64)
		out = append(out, lexgraph.Edge{
			From:       from,
			To:         to,
			Relation:   lexgraph.RelationKind(fields["relation"]),
			SourceCode: fields["source"],
			Confidence: confidence,
			CreatedAt:  time.Unix(0, createdNanos).UTC(),
		})
	}
	return out, nil
}

// Concepts returns a snapshot of all concept rows, ordered by id.
func (s *RedisStore) Concepts(ctx context.Context) ([]lexgraph.Concept, error) {
	members, err := s.client.SMembers(ctx, s.key("concepts")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]lexgraph.Concept, 0, len(ids))
	for _, id := range ids {
		c, err := s.ConceptByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Aliases returns a snapshot of all ConceptAlias rows.
func (s *RedisStore) Aliases(ctx context.Context) ([]lexgraph.ConceptAlias, error) {
	members, err := s.client.SMembers(ctx, s.key("aliases")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	sort.Strings(members)
	out := make([]lexgraph.ConceptAlias, 0, len(members))
	for _, member := range members {
		canonRaw, aliasRaw, ok := strings.Cut(member, "|")
		if !ok {
			continue
		}
		canonID, _ := strconv.ParseInt(canonRaw, 10, 64)
		aliasID, _ := strconv.ParseInt(aliasRaw, 10, 64)
		fields, err := s.client.HGetAll(ctx, s.key("alias", member)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read alias %s: %w", member, err)
		}
		createdNanos, _ := strconv.ParseInt(fields["created_at"], 10, 64)
		out = append(out, lexgraph.ConceptAlias{
			CanonicalID: canonID,
			AliasID:     aliasID,
			AliasKey:    lexgraph.ConceptKey(fields["key"]),
			SourceCode:  fields["source"],
			CreatedAt:   time.Unix(0, createdNanos).UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CanonicalID != out[j].CanonicalID {
			return out[i].CanonicalID < out[j].CanonicalID
		}
		return out[i].AliasID < out[j].AliasID
	})
	return out, nil
}

func (s *RedisStore) upsertRank(ctx context.Context, table string, id int64, score float64) error {
	value := fmt.Sprintf("%g|%d", score, time.Now().UTC().UnixNano())
	err := s.client.HSet(ctx, s.key("rank", table), strconv.FormatInt(id, 10), value).Err()
	if err != nil {
		return fmt.Errorf("failed to upsert %s rank for %d: %w", table, id, err)
	}
	return nil
}

func (s *RedisStore) rankRows(ctx context.Context, table string) (map[int64]float64, map[int64]time.Time, error) {
	fields, err := s.client.HGetAll(ctx, s.key("rank", table)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s ranks: %w", table, err)
	}
	scores := make(map[int64]float64, len(fields))
	updated := make(map[int64]time.Time, len(fields))
	for idRaw, value := range fields {
		id, err := strconv.ParseInt(idRaw, 10, 64)
		if err != nil {
			continue
		}
		scoreRaw, tsRaw, _ := strings.Cut(value, "|")
		score, _ := strconv.ParseFloat(scoreRaw, 64)
		nanos, _ := strconv.ParseInt(tsRaw, 10, 64)
		scores[id] = score
		updated[id] = time.Unix(0, nanos).UTC()
	}
	return scores, updated, nil
}

// UpsertConceptRank overwrites the rank row for a concept.
func (s *RedisStore) UpsertConceptRank(ctx context.Context, conceptID int64, score float64) error {
	return s.upsertRank(ctx, "concept", conceptID, score)
}

// UpsertSenseRank overwrites the rank row for a sense.
func (s *RedisStore) UpsertSenseRank(ctx context.Context, senseID int64, score float64) error {
	return s.upsertRank(ctx, "sense", senseID, score)
}

// UpsertWordRank overwrites the rank row for a word.
func (s *RedisStore) UpsertWordRank(ctx context.Context, wordID int64, score float64) error {
	return s.upsertRank(ctx, "word", wordID, score)
}

// ConceptRanks returns all concept rank rows, ordered by id.
func (s *RedisStore) ConceptRanks(ctx context.Context) ([]lexgraph.ConceptRank, error) {
	scores, updated, err := s.rankRows(ctx, "concept")
	if err != nil {
		return nil, err
	}
	out := make([]lexgraph.ConceptRank, 0, len(scores))
	for id, score := range scores {
		out = append(out, lexgraph.ConceptRank{ConceptID: id, Score: score, UpdatedAt: updated[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConceptID < out[j].ConceptID })
	return out, nil
}

// SenseRanks returns all sense rank rows, ordered by id.
func (s *RedisStore) SenseRanks(ctx context.Context) ([]lexgraph.SenseRank, error) {
	scores, updated, err := s.rankRows(ctx, "sense")
	if err != nil {
		return nil, err
	}
	out := make([]lexgraph.SenseRank, 0, len(scores))
	for id, score := range scores {
		out = append(out, lexgraph.SenseRank{SenseID: id, Score: score, UpdatedAt: updated[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SenseID < out[j].SenseID })
	return out, nil
}

// WordRanks returns all word rank rows, ordered by id.
func (s *RedisStore) WordRanks(ctx context.Context) ([]lexgraph.WordRank, error) {
	scores, updated, err := s.rankRows(ctx, "word")
	if err != nil {
		return nil, err
	}
	out := make([]lexgraph.WordRank, 0, len(scores))
	for id, score := range scores {
		out = append(out, lexgraph.WordRank{WordID: id, Score: score, UpdatedAt: updated[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WordID < out[j].WordID })
	return out, nil
}

// Close closes the Redis connection. Later operations fail with the
// client's closed-connection error.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
