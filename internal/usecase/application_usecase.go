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

type ProfileInput struct {
	Degree          string
	YearsExperience int
	Skills          []string
	Eligibilities   []string
}

type ApplicationUsecase interface {
	Submit(ctx context.Context, jobID uuid.UUID, actor lifecycle.Actor) (lifecycle.Application, error)
	Get(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (lifecycle.Application, error)
	List(ctx context.Context, jobID uuid.UUID, opts repository.ListOptions, actor lifecycle.Actor) ([]lifecycle.Application, error)
	History(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) ([]lifecycle.StatusHistoryEntry, error)
	Purge(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) error
	SaveProfile(ctx context.Context, actor lifecycle.Actor, in ProfileInput) (lifecycle.ApplicantProfile, error)
}

type Applications struct {
	jobs       repository.JobRepository
	apps       repository.ApplicationRepository
	applicants repository.ApplicantRepository
	events     EventPublisher
	log        *log.Logger
	now        func() time.Time
}

func NewApplicationUsecase(
	jobs repository.JobRepository,
	apps repository.ApplicationRepository,
	applicants repository.ApplicantRepository,
	events EventPublisher,
	logger *log.Logger,
) *Applications {
	if logger == nil {
		logger = log.Default()
	}
	return &Applications{
		jobs:       jobs,
		apps:       apps,
		applicants: applicants,
		events:     publisherOrNoop(events),
		log:        logger,
		now:        timeNow,
	}
}

// Submit creates a pending application with its first history entry.
func (u *Applications) Submit(ctx context.Context, jobID uuid.UUID, actor lifecycle.Actor) (lifecycle.Application, error) {
	if actor.Role != lifecycle.RoleApplicant || actor.ID == uuid.Nil {
		return lifecycle.Application{}, fmt.Errorf("%w: only applicants can apply", lifecycle.ErrForbidden)
	}

	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return lifecycle.Application{}, err
	}
	if job.Status != lifecycle.JobActive {
		return lifecycle.Application{}, fmt.Errorf("%w: job %s is %s", lifecycle.ErrInvalidJobState, jobID, job.Status)
	}

	exists, err := u.apps.ExistsForApplicant(ctx, jobID, actor.ID)
	if err != nil {
		return lifecycle.Application{}, err
	}
	if exists {
		return lifecycle.Application{}, fmt.Errorf("%w: applicant already applied to this posting", lifecycle.ErrConflict)
	}

	now := u.now()
	app := lifecycle.Application{
		ID:          uuid.New(),
		JobID:       jobID,
		ApplicantID: actor.ID,
		Domain:      job.Domain,
		Status:      lifecycle.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	entry := lifecycle.StatusHistoryEntry{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		To:            lifecycle.StatusPending,
		ChangedAt:     now,
		ChangedBy:     actor.ChangedBy(),
	}
	if err := u.apps.Create(ctx, app, entry); err != nil {
		return lifecycle.Application{}, err
	}

	u.log.Printf("submit application_id=%s job_id=%s applicant_id=%s", app.ID, jobID, actor.ID)

	appID := app.ID
	u.events.Publish(ctx, lifecycle.Event{
		Type:          lifecycle.EventApplicationCreated,
		ApplicationID: &appID,
		JobID:         &jobID,
		To:            string(lifecycle.StatusPending),
		Timestamp:     now,
	})
	return app, nil
}

func (u *Applications) Get(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (lifecycle.Application, error) {
	app, err := u.apps.GetByID(ctx, id)
	if err != nil {
		return lifecycle.Application{}, err
	}
	if err := canRead(actor, app); err != nil {
		return lifecycle.Application{}, err
	}
	return app, nil
}

func (u *Applications) List(ctx context.Context, jobID uuid.UUID, opts repository.ListOptions, actor lifecycle.Actor) ([]lifecycle.Application, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: listing applications requires a staff role", lifecycle.ErrForbidden)
	}
	if _, err := u.jobs.GetByID(ctx, jobID); err != nil {
		return nil, err
	}
	return u.apps.ListByJob(ctx, jobID, opts.Normalize())
}

func (u *Applications) History(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) ([]lifecycle.StatusHistoryEntry, error) {
	if _, err := u.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	return u.apps.History(ctx, id)
}

// Purge hard-deletes an application and its audit log.
func (u *Applications) Purge(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) error {
	if actor.Role != lifecycle.RoleAdmin {
		return fmt.Errorf("%w: purge requires the admin role", lifecycle.ErrForbidden)
	}
	app, err := u.apps.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := u.apps.Purge(ctx, id); err != nil {
		return err
	}
	u.log.Printf("purge application_id=%s actor_id=%s", id, actor.ID)

	jobID := app.JobID
	u.events.Publish(ctx, lifecycle.Event{
		Type:          lifecycle.EventApplicationPurged,
		ApplicationID: &id,
		JobID:         &jobID,
		From:          string(app.Status),
		Timestamp:     u.now(),
	})
	return nil
}

func (u *Applications) SaveProfile(ctx context.Context, actor lifecycle.Actor, in ProfileInput) (lifecycle.ApplicantProfile, error) {
	if actor.Role != lifecycle.RoleApplicant || actor.ID == uuid.Nil {
		return lifecycle.ApplicantProfile{}, fmt.Errorf("%w: only applicants have a profile", lifecycle.ErrForbidden)
	}
	if in.YearsExperience < 0 {
		return lifecycle.ApplicantProfile{}, fmt.Errorf("%w: years_experience must not be negative", lifecycle.ErrInvalidInput)
	}

	p := lifecycle.ApplicantProfile{
		ApplicantID:     actor.ID,
		Degree:          strings.TrimSpace(in.Degree),
		YearsExperience: in.YearsExperience,
		Skills:          cleanList(in.Skills),
		Eligibilities:   cleanList(in.Eligibilities),
		UpdatedAt:       u.now(),
	}
	if err := u.applicants.Upsert(ctx, p); err != nil {
		return lifecycle.ApplicantProfile{}, err
	}
	return p, nil
}

func canRead(actor lifecycle.Actor, app lifecycle.Application) error {
	switch {
	case actor.IsStaff(), actor.Role == lifecycle.RoleSystem:
		return nil
	case actor.Role == lifecycle.RoleApplicant && actor.ID == app.ApplicantID:
		return nil
	}
	return fmt.Errorf("%w: application belongs to another applicant", lifecycle.ErrForbidden)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
