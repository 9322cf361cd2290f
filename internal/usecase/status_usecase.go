package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type StatusUsecase interface {
	Transition(ctx context.Context, applicationID uuid.UUID, target lifecycle.Status, actor lifecycle.Actor, meta lifecycle.Metadata) (lifecycle.Application, error)
	Apply(ctx context.Context, app lifecycle.Application, target lifecycle.Status, actor lifecycle.Actor, meta lifecycle.Metadata) (lifecycle.Application, error)
	ValidTransitions(domain lifecycle.Domain, status lifecycle.Status) []lifecycle.Status
}

// StatusEngine is the only writer of application status outside the
// cascade re-route path.
type StatusEngine struct {
	apps   repository.ApplicationRepository
	events EventPublisher
	log    *log.Logger
	now    func() time.Time
}

func NewStatusEngine(apps repository.ApplicationRepository, events EventPublisher, logger *log.Logger) *StatusEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &StatusEngine{apps: apps, events: publisherOrNoop(events), log: logger, now: timeNow}
}

func (e *StatusEngine) ValidTransitions(domain lifecycle.Domain, status lifecycle.Status) []lifecycle.Status {
	return lifecycle.ValidTransitions(domain, status)
}

func (e *StatusEngine) Transition(ctx context.Context, applicationID uuid.UUID, target lifecycle.Status, actor lifecycle.Actor, meta lifecycle.Metadata) (lifecycle.Application, error) {
	app, err := e.apps.GetByID(ctx, applicationID)
	if err != nil {
		return lifecycle.Application{}, err
	}
	return e.Apply(ctx, app, target, actor, meta)
}

// Apply validates and persists target for an application the caller has
// already loaded. app.Status is the observed status the write is guarded on.
func (e *StatusEngine) Apply(ctx context.Context, app lifecycle.Application, target lifecycle.Status, actor lifecycle.Actor, meta lifecycle.Metadata) (_ lifecycle.Application, err error) {
	ctx, span := tracer.Start(ctx, "StatusEngine.Apply", trace.WithAttributes(
		attribute.String("application.id", app.ID.String()),
		attribute.String("status.from", string(app.Status)),
		attribute.String("status.to", string(target)),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer func() { endSpan(span, err) }()

	if !lifecycle.IsKnown(app.Domain, target) {
		return lifecycle.Application{}, fmt.Errorf("%w: unknown %s status %q", lifecycle.ErrInvalidInput, app.Domain, target)
	}
	if meta.ExpectedStatus != nil && *meta.ExpectedStatus != app.Status {
		return lifecycle.Application{}, fmt.Errorf("%w: application %s is %s, expected %s", lifecycle.ErrConflict, app.ID, app.Status, *meta.ExpectedStatus)
	}
	if target == app.Status {
		return app, nil
	}
	if err := lifecycle.Authorize(actor, app, target); err != nil {
		return lifecycle.Application{}, err
	}
	if !lifecycle.CanTransition(app.Domain, app.Status, target) {
		return lifecycle.Application{}, fmt.Errorf("%w: %s -> %s is not allowed for %s applications", lifecycle.ErrInvalidTransition, app.Status, target, app.Domain)
	}

	now := e.now()
	if err := lifecycle.ValidateMetadata(target, meta, now); err != nil {
		return lifecycle.Application{}, err
	}

	next := app
	next.Status = target
	next.UpdatedAt = now
	switch target {
	case lifecycle.StatusDenied:
		next.DenialReason = lifecycle.StringPtr(meta.DenialReason)
	case lifecycle.StatusInterviewScheduled:
		d := meta.InterviewDate.UTC()
		next.InterviewDate = &d
	case lifecycle.StatusHired, lifecycle.StatusApproved:
		if v := lifecycle.StringPtr(meta.NextSteps); v != nil {
			next.NextSteps = v
		}
		if v := lifecycle.StringPtr(meta.HRNotes); v != nil {
			next.HRNotes = v
		}
	}

	reason := lifecycle.StringPtr(meta.Reason)
	if reason == nil && target == lifecycle.StatusDenied {
		reason = next.DenialReason
	}
	entry := lifecycle.StatusHistoryEntry{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		From:          lifecycle.StatusPtr(app.Status),
		To:            target,
		ChangedAt:     now,
		ChangedBy:     actor.ChangedBy(),
		Reason:        reason,
	}

	if err := e.apps.SaveTransition(ctx, next, app.Status, entry); err != nil {
		return lifecycle.Application{}, err
	}

	transitionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("domain", string(app.Domain)),
		attribute.String("to", string(target)),
	))
	e.log.Printf("transition application_id=%s from=%s to=%s actor_role=%s", app.ID, app.Status, target, actor.Role)

	appID, jobID := next.ID, next.JobID
	data := map[string]any{"actor_role": string(actor.Role)}
	if reason != nil {
		data["reason"] = *reason
	}
	e.events.Publish(ctx, lifecycle.Event{
		Type:          lifecycle.EventStatusChanged,
		ApplicationID: &appID,
		JobID:         &jobID,
		From:          string(app.Status),
		To:            string(target),
		Data:          data,
		Timestamp:     now,
	})

	return next, nil
}
