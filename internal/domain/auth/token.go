package auth

import "context"

// TokenInfo holds the identity and role data for a validated admin token.
type TokenInfo struct {
	ID      string
	KeyHash string
	Name    string
	Role    string
}

// RoleAdmin marks tokens allowed to manage orders through the back office.
const RoleAdmin = "admin"

// Repository provides lookup of admin tokens by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*TokenInfo, error)
}
