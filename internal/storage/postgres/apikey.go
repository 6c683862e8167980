package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/marketloop/checkout/internal/domain/auth"
)

const findAPIKeyByHashSQL = `SELECT k.key_hash, k.name, u.id, u.email, u.name
	FROM api_keys k JOIN users u ON u.id = k.user_id
	WHERE k.key_hash = $1`

// ErrAPIKeyNotFound is returned when no API key matches the given hash.
var ErrAPIKeyNotFound = errors.New("api key not found")

var _ auth.Repository = (*APIKeyStore)(nil)

// APIKeyStore implements auth.Repository backed by PostgreSQL.
type APIKeyStore struct {
	db Querier
}

// NewAPIKeyStore returns an APIKeyStore that uses the given querier.
func NewAPIKeyStore(db Querier) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// FindByHash looks up an API key and its owning user by key hash.
func (s *APIKeyStore) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	var info auth.APIKeyInfo
	err := s.db.QueryRow(ctx, findAPIKeyByHashSQL, hash).Scan(
		&info.KeyHash, &info.Name,
		&info.User.ID, &info.User.Email, &info.User.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	return &info, nil
}
