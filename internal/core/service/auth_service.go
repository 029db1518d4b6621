package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/ids"
	"github.com/loga-alumni/portal/internal/pkg/metrics"
)

const minPasswordLen = 6

// ProfileWriter creates the member profile that goes with a new account.
type ProfileWriter interface {
	CreateProfile(ctx context.Context, p domain.Identity) error
}

type signUpInput struct {
	Name     string `validate:"notblank"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// AuthService implements sign-up, sign-in and password changes, and tells
// listeners whenever the signed-in account changes.
type AuthService struct {
	accounts  ports.AccountRepository
	profiles  ProfileWriter
	revoker   ports.TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
	log       zerolog.Logger

	mu        sync.RWMutex
	listeners map[int]ports.AccountListener
	nextID    int
}

// NewAuthService builds the service. revoker may be nil, in which case
// sign-out only notifies listeners.
func NewAuthService(
	accounts ports.AccountRepository,
	profiles ProfileWriter,
	revoker ports.TokenRevoker,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		accounts:  accounts,
		profiles:  profiles,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
		listeners: make(map[int]ports.AccountListener),
	}
}

// SignUp creates the account and its profile, then signs the member in.
func (s *AuthService) SignUp(ctx context.Context, in ports.SignUpInput) (string, *domain.Account, error) {
	// 1. Validate.
	if err := validateInput(signUpInput{Name: in.Name, Email: in.Email, Password: in.Password}); err != nil {
		return "", nil, err
	}
	if len(in.Password) < minPasswordLen {
		return "", nil, domain.NewAuthError(domain.AuthCodeWeakPassword, nil)
	}

	// 2. Store the credentials.
	hash, err := hashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}
	now := s.now()
	cred := &domain.Credentials{
		ID:           ids.New(),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, cred); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "error").Inc()
		if errors.Is(err, domain.ErrDuplicate) {
			return "", nil, domain.NewAuthError(domain.AuthCodeEmailInUse, err)
		}
		return "", nil, fmt.Errorf("sign up: %w", err)
	}

	// 3. Create the profile; roll the credentials back if that fails.
	profile := domain.Identity{
		ID:          cred.ID,
		Name:        strings.TrimSpace(in.Name),
		Email:       cred.Email,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		YearGroup:   strings.TrimSpace(in.YearGroup),
		Occupation:  strings.TrimSpace(in.Occupation),
		Institution: strings.TrimSpace(in.Institution),
		CreatedAt:   now,
		DuesStatus:  domain.DuesPending,
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		if delErr := s.accounts.Delete(ctx, cred.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("user_id", cred.ID).Msg("rollback of credentials failed")
		}
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "error").Inc()
		return "", nil, err
	}

	// 4. Sign in.
	acct := cred.Account()
	token, err := s.generateToken(acct)
	if err != nil {
		return "", nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("signup", "ok").Inc()
	s.log.Info().Str("user_id", acct.ID).Msg("account created")
	s.notify(ctx, acct)
	return token, acct, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *domain.Account, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, domain.NewAuthError(domain.AuthCodeInvalidCredential, nil)
	}

	cred, err := s.accounts.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signin", "error").Inc()
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.NewAuthError(domain.AuthCodeInvalidCredential, nil)
		}
		return "", nil, fmt.Errorf("sign in: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signin", "error").Inc()
		return "", nil, domain.NewAuthError(domain.AuthCodeInvalidCredential, nil)
	}

	acct := cred.Account()
	token, err := s.generateToken(acct)
	if err != nil {
		return "", nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("signin", "ok").Inc()
	s.notify(ctx, acct)
	return token, acct, nil
}

// SignOut revokes the token until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revoker != nil && tokenID != "" {
		if err := s.revoker.Revoke(ctx, tokenID, expiresAt); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
	}
	metrics.AuthAttemptsTotal.WithLabelValues("signout", "ok").Inc()
	s.notify(ctx, nil)
	return nil
}

// ChangePassword re-authenticates with the current password before storing
// the new one.
func (s *AuthService) ChangePassword(ctx context.Context, acct domain.Account, in ports.ChangePasswordInput) error {
	if in.New != in.Confirm {
		return domain.NewAuthError(domain.AuthCodePasswordMismatch, nil)
	}
	if len(in.New) < minPasswordLen {
		return domain.NewAuthError(domain.AuthCodeWeakPassword, nil)
	}

	cred, err := s.accounts.FindByID(ctx, acct.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewAuthError(domain.AuthCodeRequiresRecentAuth, err)
		}
		return fmt.Errorf("change password: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(in.Current)) != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("password", "error").Inc()
		return domain.NewAuthError(domain.AuthCodeWrongPassword, nil)
	}

	hash, err := hashPassword(in.New)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, acct.ID, hash, s.now()); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("password", "ok").Inc()
	s.log.Info().Str("user_id", acct.ID).Msg("password changed")
	return nil
}

// OnAccountChanged registers fn for every sign-in, sign-up and sign-out.
func (s *AuthService) OnAccountChanged(fn ports.AccountListener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthService) notify(ctx context.Context, acct *domain.Account) {
	s.mu.RLock()
	fns := make([]ports.AccountListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, acct)
	}
}

func (s *AuthService) generateToken(acct *domain.Account) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   acct.ID,
		"email": acct.Email,
		"jti":   ids.New(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
