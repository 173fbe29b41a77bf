package account

import "time"

// Account is a locally managed login. Only the local auth provider stores
// accounts; the Supabase provider keeps users in the hosted project.
type Account struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// RevokedToken marks a token id that must no longer be accepted.
type RevokedToken struct {
	TokenID   string    `db:"token_id"`
	ExpiresAt time.Time `db:"expires_at"`
}
