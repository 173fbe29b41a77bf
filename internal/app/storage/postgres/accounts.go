package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/remnanthub/platform/internal/app/domain/account"
)

// --- AccountStore -----------------------------------------------------------

func (s *Store) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	acct.Email = strings.ToLower(strings.TrimSpace(acct.Email))
	acct.CreatedAt = now()
	acct.UpdatedAt = acct.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, acct.ID, acct.Email, acct.PasswordHash, acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return account.Account{}, mapErr("account", acct.Email, err)
	}
	return acct, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (account.Account, error) {
	var acct account.Account
	err := s.db.GetContext(ctx, &acct, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id)
	if err != nil {
		return account.Account{}, mapErr("account", id, err)
	}
	return acct, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var acct account.Account
	err := s.db.GetContext(ctx, &acct, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`, email)
	if err != nil {
		return account.Account{}, mapErr("account", email, err)
	}
	return acct, nil
}

func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (token_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING
	`, tokenID, expiresAt.UTC())
	return err
}

func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID)
	return exists, err
}
