package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/loga-alumni/portal/internal/core/ports"
)

// AdminHandler backs the admin dashboard. The routes sit behind
// middleware.RequireAdmin; the service checks the role again.
type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Stats handles GET /v1/admin/stats.
//
// @Summary      Dashboard counts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  views.Stats
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	st, err := h.admin.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Members handles GET /v1/admin/users.
//
// @Summary      Search and page through members
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Matches name, email or year group"
// @Param        page  query     int     false  "1-based page, clamped to the last page"
// @Success      200   {object}  views.Page[domain.Identity]
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/users [get]
func (h *AdminHandler) Members(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid page"})
		}
		page = n
	}

	p, err := h.admin.ListMembers(actor, c.QueryParam("q"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// ToggleAdmin handles PATCH /v1/admin/users/:id/admin.
//
// @Summary      Grant or revoke admin
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Member id"
// @Success      200  {object}  toggleAdminResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{id}/admin [patch]
func (h *AdminHandler) ToggleAdmin(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	isAdmin, err := h.admin.ToggleAdmin(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toggleAdminResponse{ID: id, IsAdmin: isAdmin})
}

// DeleteMember handles DELETE /v1/admin/users/:id.
//
// @Summary      Delete a member
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "Member id"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/users/{id} [delete]
func (h *AdminHandler) DeleteMember(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.admin.DeleteMember(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Donations handles GET /v1/admin/donations.
//
// @Summary      Donation history
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  donationsResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/donations [get]
func (h *AdminHandler) Donations(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	v, err := h.admin.Donations(actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, donationsResponse(v))
}
