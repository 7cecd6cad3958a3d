package session

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists session turn logs in PostgreSQL.
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
		`CREATE TABLE IF NOT EXISTS session_turns (
			session_id TEXT NOT NULL,
			sequence_index BIGINT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (session_id, sequence_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_session_turns_session_seq ON session_turns (session_id, sequence_index);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, sessionID, role, text string) (Turn, error) {
	if err := validateAppend(sessionID, role, text); err != nil {
		return Turn{}, err
	}

	var turn Turn
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// Advisory transaction lock on the session key is the per-session
		// serialization point: concurrent appends cannot both read the same
		// MAX(sequence_index), so indexes stay contiguous and gap-free.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
			return fmt.Errorf("lock session: %w", err)
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO session_turns (session_id, sequence_index, role, text, timestamp)
			 SELECT $1, COALESCE(MAX(sequence_index), 0) + 1, $2, $3, now()
			 FROM session_turns WHERE session_id = $1
			 RETURNING session_id, sequence_index, role, text, timestamp`,
			sessionID, role, text,
		)
		if err := row.Scan(&turn.SessionID, &turn.SequenceIndex, &turn.Role, &turn.Text, &turn.Timestamp); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		return nil
	})
	if err != nil {
		return Turn{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return turn, nil
}

func (s *PostgresStore) ReadRecent(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT session_id, sequence_index, role, text, timestamp
		 FROM session_turns WHERE session_id=$1 ORDER BY sequence_index DESC LIMIT $2`,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query recent turns: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	turns := make([]Turn, 0, limit)
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.SessionID, &t.SequenceIndex, &t.Role, &t.Text, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate turn rows: %w", ErrUnavailable, err)
	}

	// Reverse into ascending sequence order for prompt coherence.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM session_turns WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("%w: clear session: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
