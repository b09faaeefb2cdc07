package transcript

import (
	"context"
	"fmt"

	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcript_messages (
	message_id  UUID PRIMARY KEY,
	session_id  UUID NOT NULL,
	position    INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	content     TEXT NOT NULL,
	produced_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS transcript_messages_session_idx
	ON transcript_messages (session_id, position);
`

// PostgresStore persists transcripts in PostgreSQL
type PostgresStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewPostgresStore connects to databaseURL and verifies the connection
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresStoreFromPool(pool), nil
}

// NewPostgresStoreFromPool wraps an existing pool; Close closes it
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		tracer: otel.Tracer("transcript-store"),
	}
}

// EnsureSchema creates the transcript table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create transcript schema: %w", err)
	}
	return nil
}

// Append records msg; a message already recorded is ignored
func (s *PostgresStore) Append(ctx context.Context, sessionID string, msg models.DisplayMessage) error {
	ctx, span := s.tracer.Start(ctx, "transcript.append")
	defer span.End()

	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("message.kind", string(msg.Kind)),
	)

	if msg.Pending {
		return ErrPendingMessage
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transcript_messages (message_id, session_id, position, kind, content, produced_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id) DO NOTHING
	`, msg.ID, sessionID, msg.Index, string(msg.Kind), msg.Content, msg.ProducedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to record message: %w", err)
	}

	return nil
}

// List returns the session's messages ordered by their position in the log
func (s *PostgresStore) List(ctx context.Context, sessionID string) ([]models.DisplayMessage, error) {
	ctx, span := s.tracer.Start(ctx, "transcript.list")
	defer span.End()

	span.SetAttributes(attribute.String("session.id", sessionID))

	rows, err := s.pool.Query(ctx, `
		SELECT message_id::text, position, kind, content, produced_at
		FROM transcript_messages
		WHERE session_id = $1
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer rows.Close()

	var messages []models.DisplayMessage
	for rows.Next() {
		var msg models.DisplayMessage
		var kind string
		if err := rows.Scan(&msg.ID, &msg.Index, &kind, &msg.Content, &msg.ProducedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Kind = models.StepKind(kind)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transcript: %w", err)
	}

	if len(messages) == 0 {
		return nil, ErrSessionNotFound
	}

	return messages, nil
}

// Close closes the underlying pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}
