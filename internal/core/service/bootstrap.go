package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/ids"
)

// ProfileStore is what the admin bootstrap needs from the profiles.
type ProfileStore interface {
	ProfileWriter
	Get(ctx context.Context, id string) (domain.Identity, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
}

// AdminBootstrap makes sure the reserved admin account exists.
type AdminBootstrap struct {
	accounts ports.AccountRepository
	profiles ProfileStore
	email    string
	password string
	log      zerolog.Logger
}

func NewAdminBootstrap(accounts ports.AccountRepository, profiles ProfileStore, email, password string, log zerolog.Logger) *AdminBootstrap {
	return &AdminBootstrap{accounts: accounts, profiles: profiles, email: email, password: password, log: log}
}

// EnsureAdmin looks the admin account up and creates it when missing, with
// an admin profile. Running it again changes nothing.
func (b *AdminBootstrap) EnsureAdmin(ctx context.Context) (*domain.Account, error) {
	// 1. Look up; a concurrent creator losing the race lands here too.
	cred, err := b.accounts.FindByEmail(ctx, b.email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		cred, err = b.create(ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	// 2. Make sure the profile exists and carries the admin flag.
	p, err := b.profiles.Get(ctx, cred.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		err = b.profiles.CreateProfile(ctx, domain.Identity{
			ID:      cred.ID,
			Name:    "Administrator",
			Email:   cred.Email,
			IsAdmin: true,
		})
	case err == nil && !p.IsAdmin:
		err = b.profiles.SetAdmin(ctx, cred.ID, true)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure admin profile: %w", err)
	}

	return cred.Account(), nil
}

func (b *AdminBootstrap) create(ctx context.Context) (*domain.Credentials, error) {
	hash, err := hashPassword(b.password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	cred := &domain.Credentials{
		ID:           ids.New(),
		Email:        b.email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := b.accounts.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return b.accounts.FindByEmail(ctx, b.email)
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	b.log.Info().Str("email", b.email).Msg("admin account created")
	return cred, nil
}
