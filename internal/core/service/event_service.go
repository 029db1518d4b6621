package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/live"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/sanitize"
)

var eventsQuery = ports.Query{OrderBy: ports.Order{Field: "createdAt", Desc: true}}

// EventService keeps a live mirror of the events board and runs its commands.
type EventService struct {
	coll      ports.Collection[domain.Event]
	events    *live.Binding[domain.Event]
	adminOnly bool
	log       zerolog.Logger
}

// NewEventService binds the events collection. When adminOnly is set only
// admins may announce events.
func NewEventService(coll ports.Collection[domain.Event], adminOnly bool, log zerolog.Logger) *EventService {
	return &EventService{
		coll:      coll,
		events:    live.New(coll, eventsQuery, live.WithLogger(log)),
		adminOnly: adminOnly,
		log:       log,
	}
}

func (s *EventService) Start(ctx context.Context) error { return s.events.Start(ctx) }
func (s *EventService) Close()                          { s.events.Close() }

func (s *EventService) List() ports.View[domain.Event] { return s.events.View() }

func (s *EventService) Watch(ctx context.Context) (<-chan ports.View[domain.Event], error) {
	return live.Watch(ctx, s.coll, eventsQuery, live.WithLogger(s.log))
}

// Create announces a new event owned by actor.
func (s *EventService) Create(ctx context.Context, actor domain.Actor, in ports.EventInput) (string, error) {
	// 1. Authorisation.
	if err := requireSignedIn(actor); err != nil {
		return "", err
	}
	if s.adminOnly && !actor.IsAdmin {
		return "", domain.ErrForbidden
	}

	// 2. Validate before anything reaches the store.
	if err := validateInput(in); err != nil {
		return "", err
	}

	// 3. Write; the mirror picks the event up with the next snapshot.
	ev := eventFromInput(in)
	ev.CreatedBy = actor.Account.ID
	id, err := s.events.Create(ctx, ev)
	if err != nil {
		return "", writeError(s.coll.Name(), "create", "Failed to create event", err)
	}

	s.log.Info().Str("event_id", id).Str("by", actor.Account.ID).Msg("event created")
	return id, nil
}

func (s *EventService) Update(ctx context.Context, actor domain.Actor, id string, in ports.EventInput) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}
	if err := validateInput(in); err != nil {
		return err
	}

	existing, err := s.coll.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if !actor.CanModify(existing.OwnerID()) {
		return domain.ErrForbidden
	}

	ev := eventFromInput(in)
	fields := ports.Fields{
		"title":            ev.Title,
		"description":      ev.Description,
		"date":             ev.Date,
		"time":             ev.Time,
		"venue":            ev.Venue,
		"registrationLink": ev.RegistrationLink,
	}
	if err := s.events.Update(ctx, id, fields); err != nil {
		return writeError(s.coll.Name(), "update", "Failed to update event", err)
	}

	s.log.Info().Str("event_id", id).Str("by", actor.Account.ID).Msg("event updated")
	return nil
}

// Delete removes an event. Deleting one that is already gone succeeds.
func (s *EventService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}

	existing, err := s.coll.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !actor.CanModify(existing.OwnerID()) {
		return domain.ErrForbidden
	}

	if err := s.events.Delete(ctx, id); err != nil {
		return writeError(s.coll.Name(), "delete", "Failed to delete event", err)
	}

	s.log.Info().Str("event_id", id).Str("by", actor.Account.ID).Msg("event deleted")
	return nil
}

func eventFromInput(in ports.EventInput) domain.Event {
	return domain.Event{
		Title:            sanitize.Text(in.Title),
		Description:      sanitize.Text(in.Description),
		Date:             sanitize.Text(in.Date),
		Time:             sanitize.Text(in.Time),
		Venue:            sanitize.Text(in.Venue),
		RegistrationLink: in.RegistrationLink,
	}
}
