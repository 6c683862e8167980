package auth

import "context"

// User is the authenticated shopper an API key maps to.
type User struct {
	ID    string
	Email string
	Name  string
}

// APIKeyInfo holds the stored hash and owner of a validated API key.
type APIKeyInfo struct {
	KeyHash string
	Name    string
	User    User
}

// Repository provides lookup of API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
