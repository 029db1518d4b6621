package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
)

// ForumHandler serves discussion threads and their comments.
type ForumHandler struct {
	forum ports.ForumService
}

func NewForumHandler(forum ports.ForumService) *ForumHandler {
	return &ForumHandler{forum: forum}
}

// List handles GET /v1/forum.
//
// @Summary      List forum posts
// @Tags         forum
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Category filter, all by default"
// @Success      200       {object}  listResponse[domain.ForumPost]
// @Failure      401       {object}  errorResponse
// @Router       /v1/forum [get]
func (h *ForumHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(h.forum.List(c.QueryParam("category")), actor))
}

// Create handles POST /v1/forum.
//
// @Summary      Start a discussion
// @Tags         forum
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      postRequest  true  "Post"
// @Success      201   {object}  createdResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/forum [post]
func (h *ForumHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := h.forum.Create(c.Request().Context(), actor, toPostInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id})
}

// Delete handles DELETE /v1/forum/:id.
//
// @Summary      Delete a discussion
// @Tags         forum
// @Security     BearerAuth
// @Param        id  path  string  true  "Post id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/forum/{id} [delete]
func (h *ForumHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.forum.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddComment handles POST /v1/forum/:id/comments.
//
// @Summary      Comment on a discussion
// @Tags         forum
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Post id"
// @Param        body  body      commentRequest  true  "Comment"
// @Success      201   {object}  createdResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/forum/{id}/comments [post]
func (h *ForumHandler) AddComment(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := h.forum.AddComment(c.Request().Context(), actor, c.Param("id"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id})
}

// DeleteComment handles DELETE /v1/forum/:id/comments/:comment_id.
//
// @Summary      Delete a comment
// @Tags         forum
// @Security     BearerAuth
// @Param        id          path  string  true  "Post id"
// @Param        comment_id  path  string  true  "Comment id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/forum/{id}/comments/{comment_id} [delete]
func (h *ForumHandler) DeleteComment(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.forum.DeleteComment(c.Request().Context(), actor, c.Param("id"), c.Param("comment_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream handles GET /v1/forum/stream.
//
// @Summary      Live forum
// @Tags         forum
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        category  query     string  false  "Category filter"
// @Success      200       {object}  listResponse[domain.ForumPost]
// @Router       /v1/forum/stream [get]
func (h *ForumHandler) Stream(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	category := c.QueryParam("category")
	ch, err := h.forum.Watch(c.Request().Context())
	if err != nil {
		return err
	}
	return streamViews(c, ch, func(v ports.View[domain.ForumPost]) any {
		v.Items = views.FilterByTag(v.Items, category, func(p domain.ForumPost) domain.ForumCategory { return p.Category })
		return toListResponse(v, actor)
	})
}
