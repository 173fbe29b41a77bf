package memory

import (
	"context"
	"strings"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/account"
)

// AccountStore implementation -------------------------------------------------

func (s *Store) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(acct.Email))
	if _, exists := s.accountsByEmail[email]; exists {
		return account.Account{}, duplicate("account", email)
	}
	if acct.ID == "" {
		acct.ID = s.nextIDLocked()
	} else if _, exists := s.accounts[acct.ID]; exists {
		return account.Account{}, duplicate("account", acct.ID)
	}

	now := time.Now().UTC()
	acct.Email = email
	acct.CreatedAt = now
	acct.UpdatedAt = now

	s.accounts[acct.ID] = acct
	s.accountsByEmail[email] = acct.ID
	return acct, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return account.Account{}, notFound("account", id)
	}
	return acct, nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	id, ok := s.accountsByEmail[email]
	if !ok {
		return account.Account{}, notFound("account", email)
	}
	return s.accounts[id], nil
}

func (s *Store) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for id, tok := range s.revokedTokens {
		if tok.ExpiresAt.Before(now) {
			delete(s.revokedTokens, id)
		}
	}
	s.revokedTokens[tokenID] = account.RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt.UTC()}
	return nil
}

func (s *Store) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.revokedTokens[tokenID]
	return ok, nil
}
