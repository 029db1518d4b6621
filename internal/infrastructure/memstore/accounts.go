package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/loga-alumni/portal/internal/core/domain"
)

// AccountRepository keeps credentials in memory, unique by lower-cased email.
type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Credentials
	byEmail map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]domain.Credentials),
		byEmail: make(map[string]string),
	}
}

func (r *AccountRepository) Create(_ context.Context, cred *domain.Credentials) error {
	key := strings.ToLower(cred.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[key]; taken {
		return domain.ErrDuplicate
	}
	r.byID[cred.ID] = *cred
	r.byEmail[key] = cred.ID
	return nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*domain.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cred := r.byID[id]
	return &cred, nil
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*domain.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cred, nil
}

func (r *AccountRepository) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	cred.PasswordHash = hash
	cred.UpdatedAt = at
	r.byID[id] = cred
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cred, ok := r.byID[id]; ok {
		delete(r.byEmail, strings.ToLower(cred.Email))
		delete(r.byID, id)
	}
	return nil
}
