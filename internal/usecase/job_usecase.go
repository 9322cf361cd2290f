package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
)

type JobInput struct {
	Domain          string
	Title           string
	Degree          string
	Skills          []string
	Eligibilities   []string
	YearsExperience int
	Capacity        *int
}

type JobUsecase interface {
	Create(ctx context.Context, in JobInput, actor lifecycle.Actor) (lifecycle.Job, error)
	Get(ctx context.Context, id uuid.UUID) (lifecycle.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target lifecycle.JobStatus, actor lifecycle.Actor) (lifecycle.Job, error)
	PipelineSummary(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (repository.PipelineSummary, error)
}

type Jobs struct {
	jobs     repository.JobRepository
	pipeline repository.PipelineStatusRepository
	events   EventPublisher
	log      *log.Logger
	now      func() time.Time
}

func NewJobUsecase(jobs repository.JobRepository, pipeline repository.PipelineStatusRepository, events EventPublisher, logger *log.Logger) *Jobs {
	if logger == nil {
		logger = log.Default()
	}
	return &Jobs{jobs: jobs, pipeline: pipeline, events: publisherOrNoop(events), log: logger, now: timeNow}
}

func (u *Jobs) Create(ctx context.Context, in JobInput, actor lifecycle.Actor) (lifecycle.Job, error) {
	if !actor.IsStaff() {
		return lifecycle.Job{}, fmt.Errorf("%w: creating a job requires a staff role", lifecycle.ErrForbidden)
	}

	domain, err := lifecycle.ParseDomain(in.Domain)
	if err != nil {
		return lifecycle.Job{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return lifecycle.Job{}, fmt.Errorf("%w: title is required", lifecycle.ErrInvalidInput)
	}
	if in.YearsExperience < 0 {
		return lifecycle.Job{}, fmt.Errorf("%w: years_experience must not be negative", lifecycle.ErrInvalidInput)
	}
	if in.Capacity != nil && *in.Capacity < 0 {
		return lifecycle.Job{}, fmt.Errorf("%w: capacity must not be negative", lifecycle.ErrInvalidInput)
	}

	now := u.now()
	job := lifecycle.Job{
		ID:     uuid.New(),
		Domain: domain,
		Title:  title,
		Requirements: lifecycle.Requirements{
			Degree:          strings.TrimSpace(in.Degree),
			Skills:          cleanList(in.Skills),
			Eligibilities:   cleanList(in.Eligibilities),
			YearsExperience: in.YearsExperience,
		},
		Status:    lifecycle.JobActive,
		Capacity:  in.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.jobs.Create(ctx, job); err != nil {
		return lifecycle.Job{}, err
	}

	u.log.Printf("job_create job_id=%s domain=%s", job.ID, job.Domain)
	return job, nil
}

func (u *Jobs) Get(ctx context.Context, id uuid.UUID) (lifecycle.Job, error) {
	return u.jobs.GetByID(ctx, id)
}

// UpdateStatus moves a posting along the job graph. Closing here does not
// resolve the remaining applications; the cascade endpoints do that.
func (u *Jobs) UpdateStatus(ctx context.Context, id uuid.UUID, target lifecycle.JobStatus, actor lifecycle.Actor) (lifecycle.Job, error) {
	if !actor.IsStaff() {
		return lifecycle.Job{}, fmt.Errorf("%w: changing a job requires a staff role", lifecycle.ErrForbidden)
	}

	job, err := u.jobs.GetByID(ctx, id)
	if err != nil {
		return lifecycle.Job{}, err
	}
	if job.Status == target {
		return job, nil
	}
	if !lifecycle.CanTransitionJob(job.Status, target) {
		return lifecycle.Job{}, fmt.Errorf("%w: job %s -> %s", lifecycle.ErrInvalidTransition, job.Status, target)
	}

	updated, err := u.jobs.UpdateStatus(ctx, id, job.Status, target)
	if err != nil {
		return lifecycle.Job{}, err
	}

	u.log.Printf("job_status job_id=%s from=%s to=%s", id, job.Status, target)
	u.events.Publish(ctx, lifecycle.Event{
		Type:      lifecycle.EventJobStatusChanged,
		JobID:     &id,
		From:      string(job.Status),
		To:        string(target),
		Timestamp: u.now(),
	})
	return updated, nil
}

func (u *Jobs) PipelineSummary(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (repository.PipelineSummary, error) {
	if !actor.IsStaff() {
		return repository.PipelineSummary{}, fmt.Errorf("%w: pipeline summary requires a staff role", lifecycle.ErrForbidden)
	}
	if _, err := u.jobs.GetByID(ctx, id); err != nil {
		return repository.PipelineSummary{}, err
	}
	if u.pipeline == nil {
		return repository.PipelineSummary{JobID: id, ByStatus: map[lifecycle.Status]int{}}, nil
	}
	return u.pipeline.GetJobSummary(ctx, id)
}
