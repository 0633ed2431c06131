package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lexibase/lexgraph"
)

// schema defines the six persisted entities plus the label symbol table
// and the per-sense attribute records. The edges primary key is the
// deduplication triple, and concept rows deliberately allow duplicate
// keys: a duplicate produced by a distributed writer is data the merge
// pass must be able to see.
const schema = `
CREATE TABLE IF NOT EXISTS nodes (
    key        TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS edges (
    from_key    TEXT NOT NULL,
    to_key      TEXT NOT NULL,
    relation    TEXT NOT NULL,
    source_code TEXT NOT NULL DEFAULT '',
    confidence  REAL NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    PRIMARY KEY (from_key, to_key, relation)
);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_key);

CREATE TABLE IF NOT EXISTS labels (
    ref   INTEGER PRIMARY KEY AUTOINCREMENT,
    kind  TEXT NOT NULL,
    label TEXT NOT NULL,
    UNIQUE (kind, label)
);

CREATE TABLE IF NOT EXISTS concepts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    key           TEXT NOT NULL,
    domain        TEXT NOT NULL DEFAULT '',
    pos           TEXT NOT NULL DEFAULT '',
    source_code   TEXT NOT NULL DEFAULT '',
    confidence    REAL NOT NULL DEFAULT 0,
    superseded_by INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_concepts_key ON concepts(key);

CREATE TABLE IF NOT EXISTS concept_aliases (
    canonical_id INTEGER NOT NULL,
    alias_id     INTEGER NOT NULL,
    alias_key    TEXT NOT NULL,
    source_code  TEXT NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL,
    PRIMARY KEY (canonical_id, alias_id)
);

CREATE TABLE IF NOT EXISTS senses (
    sense_id INTEGER PRIMARY KEY,
    word_id  INTEGER NOT NULL DEFAULT 0,
    pos      TEXT NOT NULL DEFAULT '',
    domain   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sense_sources (
    sense_id    INTEGER NOT NULL,
    source_code TEXT NOT NULL,
    PRIMARY KEY (sense_id, source_code)
);

CREATE TABLE IF NOT EXISTS concept_ranks (
    concept_id INTEGER PRIMARY KEY,
    score      REAL NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sense_ranks (
    sense_id   INTEGER PRIMARY KEY,
    score      REAL NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS word_ranks (
    word_id    INTEGER PRIMARY KEY,
    score      REAL NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLiteStore implements GraphStore on SQLite via the pure-Go
// ncruces/go-sqlite3 driver. Edge idempotence rides on the triple primary
// key (INSERT OR IGNORE); concept get-or-create runs select-then-insert
// inside a transaction, which SQLite's single-writer model serializes.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens an in-memory SQLite graph store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN opens (or creates) a SQLite graph store at the
// given DSN and applies the schema.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// UpsertNode ensures a node exists and returns its key.
func (s *SQLiteStore) UpsertNode(ctx context.Context, kind lexgraph.NodeKind, ref int64) (lexgraph.NodeKey, error) {
	if err := kind.Validate(); err != nil {
		return lexgraph.NodeKey{}, err
	}
	key := lexgraph.NewNodeKey(kind, ref)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO nodes (key, created_at) VALUES (?, ?)`,
		key.String(), time.Now().UTC().UnixNano())
	if err != nil {
		return lexgraph.NodeKey{}, fmt.Errorf("failed to upsert node %s: %w", key, err)
	}
	return key, nil
}

// InternLabel maps a trimmed, lower-cased label to a stable ref id.
func (s *SQLiteStore) InternLabel(ctx context.Context, kind lexgraph.NodeKind, label string) (lexgraph.NodeKey, error) {
	if err := kind.Validate(); err != nil {
		return lexgraph.NodeKey{}, err
	}
	norm := strings.ToLower(strings.TrimSpace(label))
	if norm == "" {
		return lexgraph.NodeKey{}, fmt.Errorf("%w: empty label for %s node", lexgraph.ErrInvalidRecord, kind)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO labels (kind, label) VALUES (?, ?)`,
		string(kind), norm)
	if err != nil {
		return lexgraph.NodeKey{}, fmt.Errorf("failed to intern label %q: %w", norm, err)
	}
	var ref int64
	err = s.db.QueryRowContext(ctx,
		`SELECT ref FROM labels WHERE kind = ? AND label = ?`,
		string(kind), norm).Scan(&ref)
	if err != nil {
		return lexgraph.NodeKey{}, fmt.Errorf("failed to read interned label %q: %w", norm, err)
	}
	return s.UpsertNode(ctx, kind, ref)
}

// NodeExists reports whether a node with the given key exists.
func (s *SQLiteStore) NodeExists(ctx context.Context, key lexgraph.NodeKey) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM nodes WHERE key = ?`, key.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check node %s: %w", key, err)
	}
	return true, nil
}

// UpsertEdge inserts the edge unless its triple already exists.
func (s *SQLiteStore) UpsertEdge(ctx context.Context, edge lexgraph.Edge) (bool, error) {
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
	created := edge.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO edges (from_key, to_key, relation, source_code, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		edge.From.String(), edge.To.String(), string(edge.Relation),
		edge.SourceCode, edge.Confidence, created.UnixNano())
	if err != nil {
		return false, fmt.Errorf("failed to upsert edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RedirectEdges rewrites every edge targeting oldTo to target newTo,
// within a single transaction.
func (s *SQLiteStore) RedirectEdges(ctx context.Context, oldTo, newTo lexgraph.NodeKey) (int, error) {
	ok, err := s.NodeExists(ctx, newTo)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: redirect target %s", lexgraph.ErrNodeNotFound, newTo)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin redirect transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT from_key, relation, source_code, confidence, created_at FROM edges WHERE to_key = ?`,
		oldTo.String())
	if err != nil {
		return 0, fmt.Errorf("failed to list edges for redirect: %w", err)
	}
	type pending struct {
		from       string
		relation   string
		source     string
		confidence float64
		created    int64
	}
	var moved []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.from, &p.relation, &p.source, &p.confidence, &p.created); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan edge for redirect: %w", err)
		}
		moved = append(moved, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate edges for redirect: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE to_key = ?`, oldTo.String()); err != nil {
		return 0, fmt.Errorf("failed to delete redirected edges: %w", err)
	}
	for _, p := range moved {
		if p.from == newTo.String() {
			// Rewriting would create a self-loop; drop the edge.
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO edges (from_key, to_key, relation, source_code, confidence, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.from, newTo.String(), p.relation, p.source, p.confidence, p.created)
		if err != nil {
			return 0, fmt.Errorf("failed to insert redirected edge: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit redirect: %w", err)
	}
	return len(moved), nil
}

// GetOrCreateConcept finds the live concept for the key or creates one,
// select-then-insert inside a transaction.
func (s *SQLiteStore) GetOrCreateConcept(ctx context.Context, key lexgraph.ConceptKey, domain, pos, sourceCode string) (lexgraph.Concept, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lexgraph.Concept{}, false, fmt.Errorf("failed to begin concept transaction: %w", err)
	}
	defer tx.Rollback()

	var c lexgraph.Concept
	var createdNanos int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, key, domain, pos, source_code, confidence, superseded_by, created_at
		 FROM concepts WHERE key = ? AND superseded_by = 0 ORDER BY id LIMIT 1`,
		string(key)).Scan(&c.ID, &c.Key, &c.Domain, &c.PartOfSpeech, &c.SourceCode,
		&c.ConfidenceScore, &c.SupersededBy, &createdNanos)
	if err == nil {
		c.CreatedAt = time.Unix(0, createdNanos).UTC()
		return c, false, tx.Commit()
	}
	if err != sql.ErrNoRows {
		return lexgraph.Concept{}, false, fmt.Errorf("failed to look up concept %q: %w", key, err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO concepts (key, domain, pos, source_code, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(key), domain, pos, sourceCode, now.UnixNano())
	if err != nil {
		return lexgraph.Concept{}, false, fmt.Errorf("failed to insert concept %q: %w", key, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return lexgraph.Concept{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return lexgraph.Concept{}, false, fmt.Errorf("failed to commit concept insert: %w", err)
	}
	return lexgraph.Concept{
		ID:           id,
		Key:          key,
		Domain:       domain,
		PartOfSpeech: pos,
		SourceCode:   sourceCode,
		CreatedAt:    now,
	}, true, nil
}

// AddConcept inserts a concept row without the key-uniqueness check.
func (s *SQLiteStore) AddConcept(ctx context.Context, c lexgraph.Concept) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.ID != 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO concepts (id, key, domain, pos, source_code, confidence, superseded_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, string(c.Key), c.Domain, c.PartOfSpeech, c.SourceCode,
			c.ConfidenceScore, c.SupersededBy, c.CreatedAt.UnixNano())
		if err != nil {
			return 0, fmt.Errorf("failed to insert concept %d: %w", c.ID, err)
		}
		return c.ID, nil
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO concepts (key, domain, pos, source_code, confidence, superseded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(c.Key), c.Domain, c.PartOfSpeech, c.SourceCode,
		c.ConfidenceScore, c.SupersededBy, c.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to insert concept: %w", err)
	}
	return res.LastInsertId()
}

// ConceptByID returns the concept row with the given id.
func (s *SQLiteStore) ConceptByID(ctx context.Context, id int64) (lexgraph.Concept, error) {
	var c lexgraph.Concept
	var createdNanos int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, key, domain, pos, source_code, confidence, superseded_by, created_at
		 FROM concepts WHERE id = ?`, id).Scan(&c.ID, &c.Key, &c.Domain, &c.PartOfSpeech,
		&c.SourceCode, &c.ConfidenceScore, &c.SupersededBy, &createdNanos)
	if err == sql.ErrNoRows {
		return lexgraph.Concept{}, fmt.Errorf("%w: id %d", lexgraph.ErrConceptNotFound, id)
	}
	if err != nil {
		return lexgraph.Concept{}, fmt.Errorf("failed to read concept %d: %w", id, err)
	}
	c.CreatedAt = time.Unix(0, createdNanos).UTC()
	return c, nil
}

// ConceptsByKey returns all live concepts grouped by key.
func (s *SQLiteStore) ConceptsByKey(ctx context.Context) (map[lexgraph.ConceptKey][]lexgraph.Concept, error) {
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

// MarkSuperseded records that aliasID has been merged into canonicalID.
func (s *SQLiteStore) MarkSuperseded(ctx context.Context, aliasID, canonicalID int64) error {
	if _, err := s.ConceptByID(ctx, canonicalID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE concepts SET superseded_by = ? WHERE id = ?`, canonicalID, aliasID)
	if err != nil {
		return fmt.Errorf("failed to supersede concept %d: %w", aliasID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: alias id %d", lexgraph.ErrConceptNotFound, aliasID)
	}
	return nil
}

// InsertAlias records a ConceptAlias row, idempotent on (canonical, alias).
func (s *SQLiteStore) InsertAlias(ctx context.Context, alias lexgraph.ConceptAlias) error {
	created := alias.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO concept_aliases (canonical_id, alias_id, alias_key, source_code, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		alias.CanonicalID, alias.AliasID, string(alias.AliasKey), alias.SourceCode, created.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record alias %d->%d: %w", alias.AliasID, alias.CanonicalID, err)
	}
	return nil
}

// SetConceptConfidence overwrites the concept's confidence score.
func (s *SQLiteStore) SetConceptConfidence(ctx context.Context, id int64, score float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE concepts SET confidence = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("failed to set confidence for concept %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", lexgraph.ErrConceptNotFound, id)
	}
	return nil
}

// RecordSense upserts the per-sense attribute record.
func (s *SQLiteStore) RecordSense(ctx context.Context, senseID, wordID int64, pos, domain, sourceCode string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO senses (sense_id, word_id, pos, domain) VALUES (?, ?, ?, ?)
		 ON CONFLICT (sense_id) DO UPDATE SET
		   word_id = CASE WHEN excluded.word_id != 0 THEN excluded.word_id ELSE word_id END,
		   pos     = CASE WHEN excluded.pos != '' THEN excluded.pos ELSE pos END,
		   domain  = CASE WHEN excluded.domain != '' THEN excluded.domain ELSE domain END`,
		senseID, wordID, pos, domain)
	if err != nil {
		return fmt.Errorf("failed to record sense %d: %w", senseID, err)
	}
	if sourceCode != "" {
		_, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO sense_sources (sense_id, source_code) VALUES (?, ?)`,
			senseID, sourceCode)
		if err != nil {
			return fmt.Errorf("failed to record source for sense %d: %w", senseID, err)
		}
	}
	return nil
}

// SenseInfos returns the per-sense attribute records keyed by sense id.
func (s *SQLiteStore) SenseInfos(ctx context.Context) (map[int64]SenseInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sense_id, word_id, pos, domain FROM senses`)
	if err != nil {
		return nil, fmt.Errorf("failed to list senses: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]SenseInfo)
	for rows.Next() {
		var info SenseInfo
		if err := rows.Scan(&info.SenseID, &info.WordID, &info.PartOfSpeech, &info.Domain); err != nil {
			return nil, fmt.Errorf("failed to scan sense: %w", err)
		}
		out[info.SenseID] = info
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srcRows, err := s.db.QueryContext(ctx,
		`SELECT sense_id, source_code FROM sense_sources ORDER BY sense_id, source_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sense sources: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var id int64
		var src string
		if err := srcRows.Scan(&id, &src); err != nil {
			return nil, fmt.Errorf("failed to scan sense source: %w", err)
		}
		info := out[id]
		info.SenseID = id
		info.Sources = append(info.Sources, src)
		out[id] = info
	}
	return out, srcRows.Err()
}

// Nodes returns a snapshot of all nodes, ordered by key.
func (s *SQLiteStore) Nodes(ctx context.Context) ([]lexgraph.Node, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, created_at FROM nodes ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	var out []lexgraph.Node
	for rows.Next() {
		var raw string
		var createdNanos int64
		if err := rows.Scan(&raw, &createdNanos); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		key, err := lexgraph.ParseNodeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt node row: %w", err)
		}
		out = append(out, lexgraph.Node{Key: key, CreatedAt: time.Unix(0, createdNanos).UTC()})
	}
	return out, rows.Err()
}

// Edges returns a snapshot of all edges, ordered by triple key.
func (s *SQLiteStore) Edges(ctx context.Context) ([]lexgraph.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_key, to_key, relation, source_code, confidence, created_at
		 FROM edges ORDER BY from_key, relation, to_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	defer rows.Close()

	var out []lexgraph.Edge
	for rows.Next() {
		var fromRaw, toRaw, relation, source string
		var confidence float64
		var createdNanos int64
		if err := rows.Scan(&fromRaw, &toRaw, &relation, &source, &confidence, &createdNanos); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		from, err := lexgraph.ParseNodeKey(fromRaw)
		if err != nil {
			return nil, fmt.Errorf("corrupt edge row: %w", err)
		}
		to, err := lexgraph.ParseNodeKey(toRaw)
		if err != nil {
			return nil, fmt.Errorf("corrupt edge row: %w", err)
		}
		out = append(out, lexgraph.Edge{
			From:       from,
			To:         to,
			Relation:   lexgraph.RelationKind(relation),
			SourceCode: source,
			Confidence: confidence,
			CreatedAt:  time.Unix(0, createdNanos).UTC(),
		})
	}
	return out, rows.Err()
}

// Concepts returns a snapshot of all concept rows, ordered by id.
func (s *SQLiteStore) Concepts(ctx context.Context) ([]lexgraph.Concept, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, domain, pos, source_code, confidence, superseded_by, created_at
		 FROM concepts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}
	defer rows.Close()

	var out []lexgraph.Concept
	for rows.Next() {
		var c lexgraph.Concept
		var createdNanos int64
		if err := rows.Scan(&c.ID, &c.Key, &c.Domain, &c.PartOfSpeech, &c.SourceCode,
			&c.ConfidenceScore, &c.SupersededBy, &createdNanos); err != nil {
			return nil, fmt.Errorf("failed to scan concept: %w", err)
		}
		c.CreatedAt = time.Unix(0, createdNanos).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// Aliases returns a snapshot of all ConceptAlias rows.
func (s *SQLiteStore) Aliases(ctx context.Context) ([]lexgraph.ConceptAlias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT canonical_id, alias_id, alias_key, source_code, created_at
		 FROM concept_aliases ORDER BY canonical_id, alias_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	var out []lexgraph.ConceptAlias
	for rows.Next() {
		var a lexgraph.ConceptAlias
		var createdNanos int64
		if err := rows.Scan(&a.CanonicalID, &a.AliasID, &a.AliasKey, &a.SourceCode, &createdNanos); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		a.CreatedAt = time.Unix(0, createdNanos).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) upsertRank(ctx context.Context, table, idColumn string, id int64, score float64) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, score, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (%s) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		table, idColumn, idColumn)
	if _, err := s.db.ExecContext(ctx, query, id, score, time.Now().UTC().UnixNano()); err != nil {
		return fmt.Errorf("failed to upsert %s for %d: %w", table, id, err)
	}
	return nil
}

// UpsertConceptRank overwrites the rank row for a concept.
func (s *SQLiteStore) UpsertConceptRank(ctx context.Context, conceptID int64, score float64) error {
	return s.upsertRank(ctx, "concept_ranks", "concept_id", conceptID, score)
}

// UpsertSenseRank overwrites the rank row for a sense.
func (s *SQLiteStore) UpsertSenseRank(ctx context.Context, senseID int64, score float64) error {
	return s.upsertRank(ctx, "sense_ranks", "sense_id", senseID, score)
}

// UpsertWordRank overwrites the rank row for a word.
func (s *SQLiteStore) UpsertWordRank(ctx context.Context, wordID int64, score float64) error {
	return s.upsertRank(ctx, "word_ranks", "word_id", wordID, score)
}

func (s *SQLiteStore) rankRows(ctx context.Context, table, idColumn string) ([]int64, []float64, []time.Time, error) {
	query := fmt.Sprintf(`SELECT %s, score, updated_at FROM %s ORDER BY %s`, idColumn, table, idColumn)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int64
	var scores []float64
	var updated []time.Time
	for rows.Next() {
		var id int64
		var score float64
		var nanos int64
		if err := rows.Scan(&id, &score, &nanos); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		ids = append(ids, id)
		scores = append(scores, score)
		updated = append(updated, time.Unix(0, nanos).UTC())
	}
	return ids, scores, updated, rows.Err()
}

// ConceptRanks returns all concept rank rows, ordered by id.
func (s *SQLiteStore) ConceptRanks(ctx context.Context) ([]lexgraph.ConceptRank, error) {
	ids, scores, updated, err := s.rankRows(ctx, "concept_ranks", "concept_id")
	if err != nil {
		return nil, err
	}
	out := make([]lexgraph.ConceptRank, len(ids))
	for i := range ids {
		out[i] = lexgraph.ConceptRank{ConceptID: ids[i], Score: scores[i], UpdatedAt: updated[i]}
	}
	return out, nil
}

// SenseRanks returns all sense rank rows, ordered by id.
func (s *SQLiteStore) SenseRanks(ctx context.Context) ([]lexgraph.SenseRank, error) {
	ids, scores, updated, err := s.rankRows(ctx, "sense_ranks", "sense_id")
	if err != nil {
		return nil, err
	}
	out := make([]lexgraph.SenseRank, len(ids))
	for i := range ids {
		out[i] = lexgraph.SenseRank{SenseID: ids[i], Score: scores[i], UpdatedAt: updated[i]}
	}
	return out, nil
}

// WordRanks returns all word rank rows, ordered by id.
func (s *SQLiteStore) WordRanks(ctx context.Context) ([]lexgraph.WordRank, error) {
	ids, scores, updated, err := s.rankRows(ctx, "word_ranks", "word_id")
	if err != nil {
		return nil, err
	}
	out := make([]lexgraph.WordRank, len(ids))
	for i := range ids {
		out[i] = lexgraph.WordRank{WordID: ids[i], Score: scores[i], UpdatedAt: updated[i]}
	}
	return out, nil
}

// Close closes the underlying database. Later operations fail with
// database/sql's closed-database error.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
