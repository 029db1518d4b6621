package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
)

type stubAdminService struct {
	lastQuery string
	lastPage  int
}

func (s *stubAdminService) Stats(_ context.Context, actor domain.Actor) (*views.Stats, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	return &views.Stats{Members: 3}, nil
}

func (s *stubAdminService) ListMembers(_ domain.Actor, q string, page int) (*views.Page[domain.Identity], error) {
	s.lastQuery, s.lastPage = q, page
	p := views.Paginate([]domain.Identity{{ID: "u1"}}, page, 5)
	return &p, nil
}

func (s *stubAdminService) ToggleAdmin(_ context.Context, _ domain.Actor, id string) (bool, error) {
	if id == "missing" {
		return false, domain.ErrNotFound
	}
	return true, nil
}

func (s *stubAdminService) DeleteMember(_ context.Context, actor domain.Actor, id string) error {
	if id == actor.Account.ID {
		return &domain.ValidationError{Field: "id", Message: "cannot delete your own account"}
	}
	return nil
}

func (s *stubAdminService) Donations(domain.Actor) (ports.View[domain.Donation], error) {
	return ports.View[domain.Donation]{Items: []domain.Donation{{ID: "d1", Amount: 5000}}}, nil
}

func TestAdminHandler_Members(t *testing.T) {
	stub := &stubAdminService{}
	h := NewAdminHandler(stub)

	c, rec := newRequest(t, http.MethodGet, "/v1/admin/users?q=kofi&page=2", "", ama)
	if err := h.Members(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
	if stub.lastQuery != "kofi" || stub.lastPage != 2 {
		t.Fatalf("unexpected args: %q %d", stub.lastQuery, stub.lastPage)
	}

	c, rec = newRequest(t, http.MethodGet, "/v1/admin/users?page=two", "", ama)
	_ = h.Members(c)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestAdminHandler_ToggleAndDelete(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{})

	c, rec := newRequest(t, http.MethodPatch, "/v1/admin/users/u1/admin", "", ama)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := h.ToggleAdmin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
	var resp toggleAdminResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.IsAdmin || resp.ID != "u1" {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}

	c, _ = newRequest(t, http.MethodPatch, "/v1/admin/users/missing/admin", "", ama)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	if err := h.ToggleAdmin(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	c, _ = newRequest(t, http.MethodDelete, "/v1/admin/users/a1", "", ama)
	c.SetParamNames("id")
	c.SetParamValues("a1")
	var ve *domain.ValidationError
	if err := h.DeleteMember(c); !errors.As(err, &ve) {
		t.Fatalf("expected self-delete refusal, got %v", err)
	}
}

func TestAdminHandler_StatsForbiddenForMembers(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{})

	c, _ := newRequest(t, http.MethodGet, "/v1/admin/stats", "", kofi)
	if err := h.Stats(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReadinessHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	h := NewReadinessHandler(map[string]Pinger{"mongodb": ok, "redis": ok})
	c, rec := newRequest(t, http.MethodGet, "/health/ready", "", nil)
	_ = h.Readiness(c)
	expectStatus(t, rec, http.StatusOK)

	h = NewReadinessHandler(map[string]Pinger{"mongodb": ok, "redis": down})
	c, rec = newRequest(t, http.MethodGet, "/health/ready", "", nil)
	_ = h.Readiness(c)
	expectStatus(t, rec, http.StatusServiceUnavailable)

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
