package ports

import (
	"context"
	"time"

	"github.com/loga-alumni/portal/internal/core/domain"
)

// AccountRepository stores login credentials.
type AccountRepository interface {
	// Create returns domain.ErrDuplicate when the email is taken.
	Create(ctx context.Context, cred *domain.Credentials) error
	FindByEmail(ctx context.Context, email string) (*domain.Credentials, error)
	FindByID(ctx context.Context, id string) (*domain.Credentials, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// TokenRevoker remembers signed-out tokens until they would expire anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type SignUpInput struct {
	Name        string
	Email       string
	PhoneNumber string
	YearGroup   string
	Occupation  string
	Institution string
	Password    string
}

type ChangePasswordInput struct {
	Current string
	New     string
	Confirm string
}

// AccountListener is told about every sign-in, sign-up and sign-out; nil
// means signed out.
type AccountListener func(ctx context.Context, acct *domain.Account)

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (string, *domain.Account, error)
	SignIn(ctx context.Context, email, password string) (string, *domain.Account, error)
	SignOut(ctx context.Context, tokenID string, expiresAt time.Time) error
	ChangePassword(ctx context.Context, acct domain.Account, in ChangePasswordInput) error
	OnAccountChanged(fn AccountListener) (cancel func())
}
