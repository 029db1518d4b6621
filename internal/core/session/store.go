// Package session holds who is signed in, their derived role and their
// profile. A Store is an explicit object: the HTTP layer builds one per
// request, long-lived clients keep one for the life of the process.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
)

// ProfileLoader fetches the identity document of an account. A missing
// profile is (nil, nil).
type ProfileLoader interface {
	LoadProfile(ctx context.Context, accountID string) (*domain.Identity, error)
}

// State is one consistent reading of the session. A nil Profile with a
// non-nil Account means the profile is not loaded (or does not exist).
type State struct {
	Account *domain.Account  `json:"account"`
	Role    domain.Role      `json:"role"`
	Profile *domain.Identity `json:"profile"`
	Loading bool             `json:"loading"`
}

func (s State) SignedIn() bool { return s.Account != nil }

// Actor is the command identity of the signed-in account.
func (s State) Actor() domain.Actor {
	if s.Account == nil {
		return domain.Actor{}
	}
	a := domain.Actor{Account: *s.Account, IsAdmin: s.Role.IsAdmin}
	if s.Profile != nil {
		a.Name = s.Profile.Name
	}
	return a
}

type Store struct {
	loader     ProfileLoader
	adminEmail string
	log        zerolog.Logger

	mu       sync.RWMutex
	state    State
	seq      uint64
	watchers map[int]func(State)
	next     int
}

// NewStore starts in the loading state until the first OnIdentityChanged.
func NewStore(loader ProfileLoader, adminEmail string, log zerolog.Logger) *Store {
	return &Store{
		loader:     loader,
		adminEmail: adminEmail,
		log:        log,
		state:      State{Loading: true},
		watchers:   make(map[int]func(State)),
	}
}

// OnIdentityChanged resolves role and profile for acct; nil signs out.
// When changes overlap, the most recent one wins.
func (s *Store) OnIdentityChanged(ctx context.Context, acct *domain.Account) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if acct == nil {
		s.state = State{}
		s.mu.Unlock()
		s.publish()
		return
	}
	s.state.Loading = true
	s.mu.Unlock()

	var profile *domain.Identity
	if s.loader != nil {
		p, err := s.loader.LoadProfile(ctx, acct.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("account_id", acct.ID).Msg("profile fetch failed")
		} else {
			profile = p
		}
	}

	a := *acct
	next := State{
		Account: &a,
		Role:    domain.DeriveRole(&a, profile, s.adminEmail),
		Profile: profile,
	}

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()
	s.publish()
}

func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Watch calls fn after every state change until cancel is called.
func (s *Store) Watch(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish() {
	s.mu.RLock()
	st := s.state
	fns := make([]func(State), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(st)
	}
}
