package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/live"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
	"github.com/loga-alumni/portal/internal/pkg/sanitize"
)

var jobsQuery = ports.Query{OrderBy: ports.Order{Field: "postedAt", Desc: true}}

// JobService keeps a live mirror of the job board and runs its commands.
type JobService struct {
	coll ports.Collection[domain.JobPosting]
	jobs *live.Binding[domain.JobPosting]
	log  zerolog.Logger
}

func NewJobService(coll ports.Collection[domain.JobPosting], log zerolog.Logger) *JobService {
	return &JobService{
		coll: coll,
		jobs: live.New(coll, jobsQuery, live.WithLogger(log)),
		log:  log,
	}
}

func (s *JobService) Start(ctx context.Context) error { return s.jobs.Start(ctx) }
func (s *JobService) Close()                          { s.jobs.Close() }

func (s *JobService) List(jobType string) ports.View[domain.JobPosting] {
	v := s.jobs.View()
	v.Items = views.FilterByTag(v.Items, jobType, func(j domain.JobPosting) domain.JobType { return j.Type })
	return v
}

func (s *JobService) Watch(ctx context.Context) (<-chan ports.View[domain.JobPosting], error) {
	return live.Watch(ctx, s.coll, jobsQuery, live.WithLogger(s.log))
}

func (s *JobService) Create(ctx context.Context, actor domain.Actor, in ports.JobInput) (string, error) {
	if err := requireSignedIn(actor); err != nil {
		return "", err
	}
	if err := validateInput(in); err != nil {
		return "", err
	}

	job := jobFromInput(in)
	job.PostedBy = actor.Account.ID
	id, err := s.jobs.Create(ctx, job)
	if err != nil {
		return "", writeError(s.coll.Name(), "create", "Failed to post job", err)
	}

	s.log.Info().Str("job_id", id).Str("by", actor.Account.ID).Msg("job posted")
	return id, nil
}

func (s *JobService) Update(ctx context.Context, actor domain.Actor, id string, in ports.JobInput) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}
	if err := validateInput(in); err != nil {
		return err
	}

	existing, err := s.coll.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if !actor.CanModify(existing.OwnerID()) {
		return domain.ErrForbidden
	}

	job := jobFromInput(in)
	fields := ports.Fields{
		"title":           job.Title,
		"company":         job.Company,
		"description":     job.Description,
		"requirements":    job.Requirements,
		"location":        job.Location,
		"type":            job.Type,
		"salary":          job.Salary,
		"contactEmail":    job.ContactEmail,
		"applicationLink": job.ApplicationLink,
		"deadline":        job.Deadline,
	}
	if err := s.jobs.Update(ctx, id, fields); err != nil {
		return writeError(s.coll.Name(), "update", "Failed to update job", err)
	}
	return nil
}

// Delete removes a posting. Deleting one that is already gone succeeds.
func (s *JobService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}

	existing, err := s.coll.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if !actor.CanModify(existing.OwnerID()) {
		return domain.ErrForbidden
	}

	if err := s.jobs.Delete(ctx, id); err != nil {
		return writeError(s.coll.Name(), "delete", "Failed to delete job", err)
	}

	s.log.Info().Str("job_id", id).Str("by", actor.Account.ID).Msg("job deleted")
	return nil
}

func jobFromInput(in ports.JobInput) domain.JobPosting {
	jobType := domain.JobType(in.Type)
	if jobType == "" {
		jobType = domain.JobFullTime
	}
	return domain.JobPosting{
		Title:           sanitize.Text(in.Title),
		Company:         sanitize.Text(in.Company),
		Description:     sanitize.Text(in.Description),
		Requirements:    sanitize.Lines(domain.SplitRequirements(in.Requirements)),
		Location:        sanitize.Text(in.Location),
		Type:            jobType,
		Salary:          sanitize.Text(in.Salary),
		ContactEmail:    in.ContactEmail,
		ApplicationLink: in.ApplicationLink,
		Deadline:        sanitize.Text(in.Deadline),
	}
}
