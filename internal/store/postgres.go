// Package store persists finished reviews in Postgres and caches aggregated reviews in Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agusespa/prsentinel/internal/pipeline"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("review not found")

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Connect opens and pings a connection pool.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 5
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS reviews (
	id             UUID PRIMARY KEY,
	repo           TEXT NOT NULL,
	pr             INTEGER NOT NULL,
	head_sha       TEXT NOT NULL,
	score          INTEGER NOT NULL,
	conclusion     TEXT NOT NULL,
	issue_count    INTEGER NOT NULL,
	blocking_count INTEGER NOT NULL,
	review         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS reviews_repo_pr_idx ON reviews (repo, pr, created_at DESC);
`

// Record is one stored review snapshot.
type Record struct {
	ID            uuid.UUID
	Repo          string
	PR            int
	HeadSHA       string
	Score         int
	Conclusion    types.Conclusion
	IssueCount    int
	BlockingCount int
	Review        types.AggregatedReview
	CreatedAt     time.Time
}

func RecordFromResult(result *pipeline.Result) Record {
	return Record{
		ID:            result.ID,
		Repo:          result.PR.FullName(),
		PR:            result.PR.Number,
		HeadSHA:       result.PR.HeadSHA,
		Score:         result.Review.OverallScore,
		Conclusion:    result.Decision.Conclusion,
		IssueCount:    len(result.Review.Issues),
		BlockingCount: len(result.Classification.Blocking),
		Review:        result.Review,
		CreatedAt:     result.CreatedAt,
	}
}

type ReviewStore struct {
	db DBTX
}

func NewReviewStore(db DBTX) *ReviewStore {
	return &ReviewStore{db: db}
}

func (s *ReviewStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating reviews table: %w", err)
	}
	return nil
}

func (s *ReviewStore) Save(ctx context.Context, record Record) error {
	review, err := json.Marshal(record.Review)
	if err != nil {
		return fmt.Errorf("encoding review %s: %w", record.ID, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO reviews (id, repo, pr, head_sha, score, conclusion, issue_count, blocking_count, review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID.String(), record.Repo, record.PR, record.HeadSHA, record.Score, string(record.Conclusion),
		record.IssueCount, record.BlockingCount, review, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting review %s: %w", record.ID, err)
	}
	return nil
}

// Latest returns the most recent review of a pull request, or ErrNotFound.
func (s *ReviewStore) Latest(ctx context.Context, repo string, pr int) (Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id::text, repo, pr, head_sha, score, conclusion, issue_count, blocking_count, review, created_at
		FROM reviews
		WHERE repo = $1 AND pr = $2
		ORDER BY created_at DESC
		LIMIT 1`, repo, pr)

	var (
		record     Record
		id         string
		conclusion string
		review     []byte
	)
	err := row.Scan(&id, &record.Repo, &record.PR, &record.HeadSHA, &record.Score, &conclusion,
		&record.IssueCount, &record.BlockingCount, &review, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("querying latest review of %s#%d: %w", repo, pr, err)
	}

	if record.ID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("parsing review id %q: %w", id, err)
	}
	record.Conclusion = types.Conclusion(conclusion)
	if err := json.Unmarshal(review, &record.Review); err != nil {
		return Record{}, fmt.Errorf("decoding review %s: %w", id, err)
	}
	return record, nil
}
