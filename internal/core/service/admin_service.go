package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
)

// AdminService backs the admin dashboard from the process-wide mirrors.
type AdminService struct {
	profiles  *ProfileService
	accounts  ports.AccountRepository
	events    *EventService
	jobs      *JobService
	forum     *ForumService
	donations *DonationService
	now       func() time.Time
	log       zerolog.Logger
}

func NewAdminService(
	profiles *ProfileService,
	accounts ports.AccountRepository,
	events *EventService,
	jobs *JobService,
	forum *ForumService,
	donations *DonationService,
	log zerolog.Logger,
) *AdminService {
	return &AdminService{
		profiles:  profiles,
		accounts:  accounts,
		events:    events,
		jobs:      jobs,
		forum:     forum,
		donations: donations,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

func (s *AdminService) Stats(_ context.Context, actor domain.Actor) (*views.Stats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	st := views.BuildStats(
		s.profiles.Members(),
		s.events.List().Items,
		s.jobs.List(views.All).Items,
		s.forum.Posts(),
		s.now(),
	)
	return &st, nil
}

// ListMembers searches the member directory and returns one page of it.
func (s *AdminService) ListMembers(actor domain.Actor, query string, page int) (*views.Page[domain.Identity], error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	found := views.SearchIdentities(s.profiles.Members(), query)
	p := views.Paginate(found, page, views.AdminUsersPageSize)
	return &p, nil
}

// ToggleAdmin flips the admin flag of a member and returns the new value.
func (s *AdminService) ToggleAdmin(ctx context.Context, actor domain.Actor, id string) (bool, error) {
	if err := requireAdmin(actor); err != nil {
		return false, err
	}
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("toggle admin: %w", err)
	}

	next := !p.IsAdmin
	if err := s.profiles.SetAdmin(ctx, id, next); err != nil {
		return false, err
	}

	s.log.Info().Str("user_id", id).Bool("is_admin", next).Str("by", actor.Account.ID).Msg("admin flag changed")
	return next, nil
}

// DeleteMember removes a member profile together with their credentials.
// Admins cannot delete themselves.
func (s *AdminService) DeleteMember(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.Account.ID {
		return &domain.ValidationError{Field: "id", Message: "you cannot delete your own account"}
	}

	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Warn().Err(err).Str("user_id", id).Msg("credential delete failed")
	}

	s.log.Info().Str("user_id", id).Str("by", actor.Account.ID).Msg("member deleted")
	return nil
}

func (s *AdminService) Donations(actor domain.Actor) (ports.View[domain.Donation], error) {
	if err := requireAdmin(actor); err != nil {
		return ports.View[domain.Donation]{}, err
	}
	return s.donations.List(), nil
}
