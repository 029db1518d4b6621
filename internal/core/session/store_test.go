package session

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loga-alumni/portal/internal/core/domain"
)

const reservedAdmin = "admin@loga.com"

type stubLoader struct {
	profiles map[string]*domain.Identity
	err      error
	calls    int
}

func (l *stubLoader) LoadProfile(_ context.Context, id string) (*domain.Identity, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.profiles[id], nil
}

func TestStore_StartsLoading(t *testing.T) {
	s := NewStore(&stubLoader{}, reservedAdmin, zerolog.Nop())
	st := s.Current()
	assert.True(t, st.Loading)
	assert.False(t, st.SignedIn())
}

func TestStore_ReservedEmailIsAdminRegardlessOfProfile(t *testing.T) {
	loader := &stubLoader{profiles: map[string]*domain.Identity{
		"a1": {ID: "a1", Name: "Admin", IsAdmin: false},
	}}
	s := NewStore(loader, reservedAdmin, zerolog.Nop())

	s.OnIdentityChanged(context.Background(), &domain.Account{ID: "a1", Email: reservedAdmin})

	st := s.Current()
	assert.True(t, st.Role.IsAdmin)
	assert.False(t, st.Loading)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "Admin", st.Actor().Name)
	assert.True(t, st.Actor().IsAdmin)
}

func TestStore_RoleFromProfileFlag(t *testing.T) {
	loader := &stubLoader{profiles: map[string]*domain.Identity{
		"m1": {ID: "m1", IsAdmin: true},
		"m2": {ID: "m2"},
	}}
	s := NewStore(loader, reservedAdmin, zerolog.Nop())
	ctx := context.Background()

	s.OnIdentityChanged(ctx, &domain.Account{ID: "m1", Email: "kofi@loga.com"})
	assert.True(t, s.Current().Role.IsAdmin)

	s.OnIdentityChanged(ctx, &domain.Account{ID: "m2", Email: "ama@loga.com"})
	assert.False(t, s.Current().Role.IsAdmin)
}

func TestStore_ProfileFailureStillResolvesRole(t *testing.T) {
	loader := &stubLoader{err: errors.New("unavailable")}
	s := NewStore(loader, reservedAdmin, zerolog.Nop())
	ctx := context.Background()

	s.OnIdentityChanged(ctx, &domain.Account{ID: "x", Email: "ADMIN@loga.com"})
	st := s.Current()
	assert.True(t, st.Role.IsAdmin)
	assert.Nil(t, st.Profile)
	assert.False(t, st.Loading)

	s.OnIdentityChanged(ctx, &domain.Account{ID: "y", Email: "member@loga.com"})
	st = s.Current()
	assert.False(t, st.Role.IsAdmin)
	assert.True(t, st.SignedIn())
}

func TestStore_SignOutClearsEverything(t *testing.T) {
	loader := &stubLoader{profiles: map[string]*domain.Identity{"m1": {ID: "m1"}}}
	s := NewStore(loader, reservedAdmin, zerolog.Nop())
	ctx := context.Background()

	s.OnIdentityChanged(ctx, &domain.Account{ID: "m1"})
	s.OnIdentityChanged(ctx, nil)

	assert.Equal(t, State{}, s.Current())
	assert.Equal(t, domain.Actor{}, s.Current().Actor())
}

func TestStore_WatchSeesChanges(t *testing.T) {
	s := NewStore(&stubLoader{}, reservedAdmin, zerolog.Nop())
	var seen []State
	cancel := s.Watch(func(st State) { seen = append(seen, st) })

	s.OnIdentityChanged(context.Background(), &domain.Account{ID: "m1"})
	s.OnIdentityChanged(context.Background(), nil)
	cancel()
	s.OnIdentityChanged(context.Background(), &domain.Account{ID: "m2"})

	require.Len(t, seen, 2)
	assert.Equal(t, "m1", seen[0].Account.ID)
	assert.False(t, seen[1].SignedIn())
}
