package database

import (
	"context"
	"receipt-server/internal/models"
	"time"

	"github.com/google/uuid"
)

type CreateAPIKeyParams struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	KeyHash   string
	Name      string
	ExpiresAt *time.Time
}

func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (*models.APIKey, error) {
	query := `
		INSERT INTO api_keys (id, user_id, key_hash, name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, key_hash, name, created_at, expires_at, last_used_at
	`
	now := time.Now()

	var key models.APIKey
	err := q.db.QueryRow(ctx, query,
		arg.ID,
		arg.UserID,
		arg.KeyHash,
		arg.Name,
		now,
		arg.ExpiresAt,
	).Scan(
		&key.ID,
		&key.UserID,
		&key.KeyHash,
		&key.Name,
		&key.CreatedAt,
		&key.ExpiresAt,
		&key.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	return &key, nil
}

// ListActiveAPIKeys returns every non-expired key across all users. API-key
// verification hashes the candidate against each of these in turn.
func (q *Queries) ListActiveAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	query := `
		SELECT id, user_id, key_hash, name, created_at, expires_at, last_used_at
		FROM api_keys
		WHERE expires_at IS NULL OR expires_at > NOW()
	`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var key models.APIKey
		err := rows.Scan(
			&key.ID,
			&key.UserID,
			&key.KeyHash,
			&key.Name,
			&key.CreatedAt,
			&key.ExpiresAt,
			&key.LastUsedAt,
		)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if keys == nil {
		return []models.APIKey{}, nil
	}

	return keys, nil
}

func (q *Queries) TouchAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`
	_, err := q.db.Exec(ctx, query, time.Now(), id)
	return err
}
