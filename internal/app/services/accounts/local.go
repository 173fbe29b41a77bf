package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/remnanthub/platform/internal/app/domain/account"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
)

const localIssuer = "remnanthub"

func invalidCredentials() error {
	return apperrors.Unauthorized("invalid email or password")
}

// LocalProvider keeps accounts in the platform store and issues its own tokens.
type LocalProvider struct {
	store  storage.AccountStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider signing tokens with secret.
func NewLocalProvider(store storage.AccountStore, secret string, ttl time.Duration) (*LocalProvider, error) {
	if secret == "" {
		return nil, fmt.Errorf("local auth requires a signing secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LocalProvider{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}, nil
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return Session{}, apperrors.Validation("password must be at most %d bytes", MaxPasswordBytes)
	}
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	acct, err := p.store.CreateAccount(ctx, account.Account{Email: email, PasswordHash: string(hash)})
	if errors.Is(err, storage.ErrDuplicate) {
		return Session{}, apperrors.Conflict("email already registered")
	}
	if err != nil {
		return Session{}, err
	}
	return p.issue(acct)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	acct, err := p.store.GetAccountByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, invalidCredentials()
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Session{}, invalidCredentials()
	}
	return p.issue(acct)
}

// SignOut revokes the token id until the token would have expired anyway.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	claims, err := parseToken(p.secret, token, p.now, jwt.WithIssuer(localIssuer))
	if err != nil {
		return apperrors.InvalidToken(err)
	}
	if claims.ID == "" {
		return apperrors.InvalidToken(errors.New("token has no id"))
	}
	expires := p.now().Add(p.ttl)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return p.store.RevokeToken(ctx, claims.ID, expires)
}

func (p *LocalProvider) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := parseToken(p.secret, token, p.now, jwt.WithIssuer(localIssuer))
	if err != nil {
		return Identity{}, apperrors.InvalidToken(err)
	}
	revoked, err := p.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, err
	}
	if revoked {
		return Identity{}, apperrors.InvalidToken(errors.New("token revoked"))
	}
	return Identity{UserID: claims.Subject, Email: claims.Email, TokenID: claims.ID}, nil
}

func (p *LocalProvider) issue(acct account.Account) (Session, error) {
	now := p.now().UTC()
	expires := now.Add(p.ttl)
	token, err := signToken(p.secret, Claims{
		Email: acct.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acct.ID,
			Issuer:    localIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	if err != nil {
		return Session{}, err
	}
	return Session{AccessToken: token, ExpiresAt: expires, UserID: acct.ID}, nil
}
