package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists long-term user facts in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memory_records (
			memory_id TEXT PRIMARY KEY,
			user_profile_id TEXT NOT NULL,
			mem_type TEXT NOT NULL DEFAULT 'general',
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			source_session_id TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memory_records_user ON memory_records (user_profile_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, userProfileID, memType, content, sourceSessionID string) (Record, error) {
	if err := validateCreate(userProfileID, content); err != nil {
		return Record{}, err
	}
	if memType == "" {
		memType = "general"
	}

	record := Record{
		UserProfileID:   userProfileID,
		MemoryID:        uuid.NewString(),
		MemType:         memType,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
		SourceSessionID: sourceSessionID,
	}

	var src any
	if sourceSessionID != "" {
		src = sourceSessionID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO memory_records (memory_id, user_profile_id, mem_type, content, created_at, source_session_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.MemoryID,
		record.UserProfileID,
		record.MemType,
		record.Content,
		record.CreatedAt,
		src,
	)
	if err != nil {
		return Record{}, fmt.Errorf("%w: create record: %w", ErrUnavailable, err)
	}
	return record, nil
}

func (s *PostgresStore) List(ctx context.Context, userProfileID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT memory_id, user_profile_id, mem_type, content, created_at, COALESCE(source_session_id, '')
		 FROM memory_records WHERE user_profile_id=$1`,
		userProfileID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query records: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	records := make([]Record, 0, 16)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.MemoryID, &r.UserProfileID, &r.MemType, &r.Content, &r.CreatedAt, &r.SourceSessionID); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate record rows: %w", ErrUnavailable, err)
	}

	return records, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
