package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PGMessageStore implements store.MessageStore backed by Postgres.
type PGMessageStore struct {
	db *sql.DB
}

func NewPGMessageStore(db *sql.DB) *PGMessageStore {
	return &PGMessageStore{db: db}
}

func (s *PGMessageStore) Insert(ctx context.Context, conversationID, role, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content)
		VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), conversationID, role, content,
	)
	if err != nil {
		return fmt.Errorf("insert %s message: %w", role, err)
	}
	return nil
}
