package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/api/middleware"
	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/session"
)

type profileLoaderFunc func(ctx context.Context, id string) (*domain.Identity, error)

func (f profileLoaderFunc) LoadProfile(ctx context.Context, id string) (*domain.Identity, error) {
	return f(ctx, id)
}

var (
	kofi = &domain.Identity{ID: "m1", Name: "Kofi", Email: "kofi@loga.com"}
	ama  = &domain.Identity{ID: "a1", Name: "Ama", Email: "ama@loga.com", IsAdmin: true}
)

// newRequest builds an echo context for method and target with an optional
// JSON body. profile, when set, is the signed-in member.
func newRequest(t *testing.T, method, target, body string, profile *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if profile != nil {
		p := profile
		store := session.NewStore(profileLoaderFunc(func(context.Context, string) (*domain.Identity, error) {
			return p, nil
		}), "", zerolog.Nop())
		store.OnIdentityChanged(context.Background(), &domain.Account{ID: p.ID, Email: p.Email})
		c.Set(middleware.KeySession, store)
	}
	return c, rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
