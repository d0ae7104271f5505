package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PGUserStore implements store.UserStore backed by Postgres.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

// Upsert creates the user if absent, refreshes the profile name if it
// changed, and returns the user id.
func (s *PGUserStore) Upsert(ctx context.Context, phoneNumber, name string) (string, error) {
	if name == "" {
		name = phoneNumber
	}
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, phone_number, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number)
		DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		RETURNING id`,
		uuid.NewString(), phoneNumber, name,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert user %s: %w", phoneNumber, err)
	}
	return id, nil
}
