package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/live"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/sanitize"
)

var usersQuery = ports.Query{OrderBy: ports.Order{Field: "createdAt", Desc: true}}

// DuesReconciler repairs the cached dues fields of a profile.
type DuesReconciler interface {
	Reconcile(ctx context.Context, profile *domain.Identity) (*domain.Identity, error)
}

// ProfileService owns the member profiles and keeps the member directory
// mirrored for the admin views.
type ProfileService struct {
	coll    ports.Collection[domain.Identity]
	members *live.Binding[domain.Identity]
	dues    DuesReconciler
	now     func() time.Time
	log     zerolog.Logger
}

// NewProfileService binds the users collection. dues may be nil.
func NewProfileService(coll ports.Collection[domain.Identity], dues DuesReconciler, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		coll:    coll,
		members: live.New(coll, usersQuery, live.WithLogger(log)),
		dues:    dues,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log,
	}
}

func (s *ProfileService) Start(ctx context.Context) error { return s.members.Start(ctx) }
func (s *ProfileService) Close()                          { s.members.Close() }

// LoadProfile fetches the profile of accountID and reconciles its dues
// projection on the way.
func (s *ProfileService) LoadProfile(ctx context.Context, accountID string) (*domain.Identity, error) {
	p, err := s.coll.Get(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if s.dues == nil {
		return &p, nil
	}

	fixed, err := s.dues.Reconcile(ctx, &p)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", accountID).Msg("dues reconcile failed")
		return &p, nil
	}
	return fixed, nil
}

// CreateProfile stores the profile document under its account id.
func (s *ProfileService) CreateProfile(ctx context.Context, p domain.Identity) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if p.DuesStatus == "" {
		p.DuesStatus = domain.DuesPending
	}
	if err := s.coll.Set(ctx, p.ID, p); err != nil {
		return writeError(s.coll.Name(), "create", "Failed to create profile", err)
	}
	return nil
}

// SetAdmin flips the stored admin flag of a profile.
func (s *ProfileService) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	if err := s.members.Update(ctx, id, ports.Fields{"isAdmin": isAdmin}); err != nil {
		return writeError(s.coll.Name(), "update", "Failed to update user", err)
	}
	return nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, actor domain.Actor, in ports.ProfileInput) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}
	if err := validateInput(in); err != nil {
		return err
	}

	fields := ports.Fields{
		"name":        sanitize.Text(in.Name),
		"phoneNumber": sanitize.Text(in.PhoneNumber),
		"occupation":  sanitize.Text(in.Occupation),
		"institution": sanitize.Text(in.Institution),
		"updatedAt":   s.now(),
	}
	if err := s.members.Update(ctx, actor.Account.ID, fields); err != nil {
		return writeError(s.coll.Name(), "update", "Failed to update profile", err)
	}

	s.log.Info().Str("user_id", actor.Account.ID).Msg("profile updated")
	return nil
}

// Get reads a profile from the mirror, falling back to the store.
func (s *ProfileService) Get(ctx context.Context, id string) (domain.Identity, error) {
	if p, ok := s.members.Find(id); ok {
		return p, nil
	}
	return s.coll.Get(ctx, id)
}

func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if err := s.members.Delete(ctx, id); err != nil {
		return writeError(s.coll.Name(), "delete", "Failed to delete user", err)
	}
	return nil
}

// Members is the mirrored member directory, newest first.
func (s *ProfileService) Members() []domain.Identity { return s.members.Items() }
