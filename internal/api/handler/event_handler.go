package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
)

// EventHandler serves the events board.
type EventHandler struct {
	events ports.EventService
}

func NewEventHandler(events ports.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// List handles GET /v1/events.
//
// @Summary      List events
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse[domain.Event]
// @Failure      401  {object}  errorResponse
// @Router       /v1/events [get]
func (h *EventHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(h.events.List(), actor))
}

// Create handles POST /v1/events.
//
// @Summary      Announce an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      eventRequest  true  "Event"
// @Success      201   {object}  createdResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/events [post]
func (h *EventHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := h.events.Create(c.Request().Context(), actor, toEventInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id})
}

// Update handles PATCH /v1/events/:id.
//
// @Summary      Edit an event
// @Tags         events
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string        true  "Event id"
// @Param        body  body  eventRequest  true  "Event"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/events/{id} [patch]
func (h *EventHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.events.Update(c.Request().Context(), actor, c.Param("id"), toEventInput(req)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/events/:id. Deleting a missing event succeeds.
//
// @Summary      Delete an event
// @Tags         events
// @Security     BearerAuth
// @Param        id  path  string  true  "Event id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.events.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream handles GET /v1/events/stream.
//
// @Summary      Live events board
// @Tags         events
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {object}  listResponse[domain.Event]
// @Router       /v1/events/stream [get]
func (h *EventHandler) Stream(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ch, err := h.events.Watch(c.Request().Context())
	if err != nil {
		return err
	}
	return streamViews(c, ch, func(v ports.View[domain.Event]) any {
		return toListResponse(v, actor)
	})
}
