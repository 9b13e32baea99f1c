// Package store is the optional result-persistence layer of spec.md §5:
// accepted methods from a methsearch run (C8 output) and maximal-true-lead
// snapshots from a fextent run (C10 output), saved to PostgreSQL via pgx so
// a long search can be interrupted and its results inspected without
// replaying the whole run.
package store

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exparrot/ringsearch/pkg/method"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("store: unable to connect: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}

	log.Println("[store] connected to PostgreSQL for method-search results")
	return &Store{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file alongside this package.
func (s *Store) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/store/schema.sql")
	if err != nil {
		return fmt.Errorf("store: failed to read schema file: %w", err)
	}

	if _, err := s.pool.Exec(context.Background(), string(schemaBytes)); err != nil {
		return fmt.Errorf("store: failed to execute schema migrations: %w", err)
	}

	log.Println("[store] schema initialized")
	return nil
}

// MethodRecord is one accepted method from a methsearch run, as persisted
// and returned by ListMethods.
type MethodRecord struct {
	RunID         string `json:"runId"`
	Name          string `json:"name"`
	Bells         int    `json:"bells"`
	PlaceNotation string `json:"placeNotation"`
	Symmetry      string `json:"symmetry"`
	MusicScore    int    `json:"musicScore"`
}

// SaveMethod persists one accepted method found during runID, along with
// the music score it was accepted with. It upserts on (run_id, name) so a
// resumed run can overwrite a stale entry rather than duplicate it.
func (s *Store) SaveMethod(ctx context.Context, runID string, m *method.Method, musicScore int) error {
	sql := `
		INSERT INTO found_methods (run_id, name, bells, place_notation, symmetry, music_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, name) DO UPDATE
		SET place_notation = EXCLUDED.place_notation, symmetry = EXCLUDED.symmetry, music_score = EXCLUDED.music_score;
	`
	_, err := s.pool.Exec(ctx, sql, runID, m.Name, m.Bells(), m.PlaceNotation(), m.SymmetrySignature().String(), musicScore)
	if err != nil {
		return fmt.Errorf("store: failed to insert found_methods: %w", err)
	}
	return nil
}

// ListMethods returns a page of methods accepted during runID, highest
// music score first.
func (s *Store) ListMethods(ctx context.Context, runID string, page, limit int) ([]MethodRecord, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var totalCount int
	countSQL := `SELECT COUNT(*) FROM found_methods WHERE run_id = $1`
	if err := s.pool.QueryRow(ctx, countSQL, runID).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	dataSQL := `
		SELECT run_id, name, bells, place_notation, symmetry, music_score
		FROM found_methods
		WHERE run_id = $1
		ORDER BY music_score DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.pool.Query(ctx, dataSQL, runID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []MethodRecord
	for rows.Next() {
		var r MethodRecord
		if err := rows.Scan(&r.RunID, &r.Name, &r.Bells, &r.PlaceNotation, &r.Symmetry, &r.MusicScore); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if out == nil {
		out = []MethodRecord{}
	}
	return out, totalCount, nil
}

// SnapshotField names one field of a maximal-true-leads snapshot that may
// be updated in place by UpdateSnapshotField. The column name comes from
// caller-controlled input, so it is checked against a fixed allowlist
// before being interpolated into SQL.
type SnapshotField string

const (
	SnapshotScore SnapshotField = "score"
	SnapshotLinks SnapshotField = "link_count"
	SnapshotLen   SnapshotField = "lead_count"
)

var validSnapshotFields = map[SnapshotField]bool{
	SnapshotScore: true,
	SnapshotLinks: true,
	SnapshotLen:   true,
}

// SaveSnapshot persists a point-in-time maximal-true-leads snapshot: the
// serialized set of present lead-heads for runID at the given annealing
// iteration, together with its score and link count.
func (s *Store) SaveSnapshot(ctx context.Context, runID string, iteration int, leadHeads []string, score float64, linkCount, leadCount int) error {
	sql := `
		INSERT INTO maxtrue_snapshots (run_id, iteration, lead_heads, score, link_count, lead_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, iteration) DO UPDATE
		SET lead_heads = EXCLUDED.lead_heads, score = EXCLUDED.score, link_count = EXCLUDED.link_count, lead_count = EXCLUDED.lead_count;
	`
	_, err := s.pool.Exec(ctx, sql, runID, iteration, leadHeads, score, linkCount, leadCount)
	if err != nil {
		return fmt.Errorf("store: failed to insert maxtrue_snapshots: %w", err)
	}
	return nil
}

// UpdateSnapshotField updates a single allowlisted numeric field of the
// snapshot recorded for runID at iteration, without rewriting the whole row.
func (s *Store) UpdateSnapshotField(ctx context.Context, runID string, iteration int, field SnapshotField, value float64) error {
	if !validSnapshotFields[field] {
		return fmt.Errorf("store: invalid snapshot field: %s", field)
	}
	sql := fmt.Sprintf("UPDATE maxtrue_snapshots SET %s = $1 WHERE run_id = $2 AND iteration = $3", field)
	_, err := s.pool.Exec(ctx, sql, value, runID, iteration)
	return err
}

// BestSnapshot returns the run's highest-scoring snapshot to date.
type BestSnapshot struct {
	Iteration int      `json:"iteration"`
	LeadHeads []string `json:"leadHeads"`
	Score     float64  `json:"score"`
	LinkCount int      `json:"linkCount"`
	LeadCount int      `json:"leadCount"`
}

// BestSnapshot queries the highest-scoring snapshot recorded for runID.
func (s *Store) BestSnapshot(ctx context.Context, runID string) (*BestSnapshot, error) {
	sql := `
		SELECT iteration, lead_heads, score, link_count, lead_count
		FROM maxtrue_snapshots
		WHERE run_id = $1
		ORDER BY score DESC
		LIMIT 1
	`
	var b BestSnapshot
	err := s.pool.QueryRow(ctx, sql, runID).Scan(&b.Iteration, &b.LeadHeads, &b.Score, &b.LinkCount, &b.LeadCount)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetPool exposes the connection pool for callers that need to run
// ad hoc queries outside this package's fixed statements.
func (s *Store) GetPool() *pgxpool.Pool {
	return s.pool
}
