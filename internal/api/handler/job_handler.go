package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
)

// JobHandler serves the job board.
type JobHandler struct {
	jobs ports.JobService
}

func NewJobHandler(jobs ports.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// List handles GET /v1/jobs.
//
// @Summary      List job postings
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        type  query     string  false  "Job type filter, all by default"
// @Success      200   {object}  listResponse[domain.JobPosting]
// @Failure      401   {object}  errorResponse
// @Router       /v1/jobs [get]
func (h *JobHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(h.jobs.List(c.QueryParam("type")), actor))
}

// Create handles POST /v1/jobs.
//
// @Summary      Post a job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      jobRequest  true  "Job posting"
// @Success      201   {object}  createdResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/jobs [post]
func (h *JobHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req jobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := h.jobs.Create(c.Request().Context(), actor, toJobInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id})
}

// Update handles PATCH /v1/jobs/:id.
//
// @Summary      Edit a job posting
// @Tags         jobs
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string      true  "Job id"
// @Param        body  body  jobRequest  true  "Job posting"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/jobs/{id} [patch]
func (h *JobHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req jobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.jobs.Update(c.Request().Context(), actor, c.Param("id"), toJobInput(req)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/jobs/:id.
//
// @Summary      Delete a job posting
// @Tags         jobs
// @Security     BearerAuth
// @Param        id  path  string  true  "Job id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/jobs/{id} [delete]
func (h *JobHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.jobs.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream handles GET /v1/jobs/stream.
//
// @Summary      Live job board
// @Tags         jobs
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        type  query     string  false  "Job type filter"
// @Success      200   {object}  listResponse[domain.JobPosting]
// @Router       /v1/jobs/stream [get]
func (h *JobHandler) Stream(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobType := c.QueryParam("type")
	ch, err := h.jobs.Watch(c.Request().Context())
	if err != nil {
		return err
	}
	return streamViews(c, ch, func(v ports.View[domain.JobPosting]) any {
		v.Items = views.FilterByTag(v.Items, jobType, func(j domain.JobPosting) domain.JobType { return j.Type })
		return toListResponse(v, actor)
	})
}
