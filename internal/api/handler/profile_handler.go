package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loga-alumni/portal/internal/core/ports"
)

// ProfileHandler serves the signed-in member's own profile.
type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me returns the session: account, derived role and profile.
//
// @Summary      Current session
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/me [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	st, err := sessionState(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{
		Account: st.Account,
		IsAdmin: st.Role.IsAdmin,
		Profile: st.Profile,
	})
}

// Update changes the editable profile fields.
//
// @Summary      Update profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile fields"
// @Success      200   {object}  meResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/me/profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	st, err := sessionState(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.profiles.UpdateProfile(ctx, st.Actor(), toProfileInput(req)); err != nil {
		return err
	}

	profile, err := h.profiles.LoadProfile(ctx, st.Account.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{Account: st.Account, IsAdmin: st.Role.IsAdmin, Profile: profile})
}
