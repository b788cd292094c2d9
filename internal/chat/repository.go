package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transcript is one stored user turn with the assistant reply.
type Transcript struct {
	ID        string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message"`
	Reply     []byte    `json:"reply,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository provides PostgreSQL backed persistence for chat transcripts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one transcript row.
func (r *Repository) Insert(ctx context.Context, t Transcript) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_messages (message_id, user_id, session_id, message, reply, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NOW())`,
		t.ID, t.UserID, t.SessionID, t.Message, t.Reply)
	if err != nil {
		return fmt.Errorf("chat: insert transcript: %w", err)
	}
	return nil
}

// DeleteOlderThan purges transcripts created before the cutoff and returns
// how many rows went away.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chat_messages WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("chat: purge transcripts: %w", err)
	}
	return tag.RowsAffected(), nil
}
