package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/loga-alumni/portal/internal/api/middleware"
	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/session"
)

// actorFrom returns who the request runs as. Without a signed-in session it
// returns domain.ErrUnauthenticated, which the error handler maps to 401.
func actorFrom(c echo.Context) (domain.Actor, error) {
	st, err := sessionState(c)
	if err != nil {
		return domain.Actor{}, err
	}
	return st.Actor(), nil
}

func sessionState(c echo.Context) (session.State, error) {
	s := middleware.Session(c)
	if s == nil {
		return session.State{}, domain.ErrUnauthenticated
	}
	st := s.Current()
	if !st.SignedIn() {
		return session.State{}, domain.ErrUnauthenticated
	}
	return st, nil
}
