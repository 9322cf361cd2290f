package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/domain/scoring"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type CascadeMode string

const (
	CascadeDeny    CascadeMode = "deny"
	CascadeReroute CascadeMode = "reroute"
)

func ParseCascadeMode(s string) (CascadeMode, error) {
	m := CascadeMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case CascadeDeny, CascadeReroute:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown cascade mode %q", lifecycle.ErrInvalidInput, s)
}

const DefaultFallbackDenialReason = "no alternative position found"

type OutcomeAction string

const (
	OutcomeDenied   OutcomeAction = "denied"
	OutcomeRerouted OutcomeAction = "rerouted"
	OutcomeSkipped  OutcomeAction = "skipped"
)

type Outcome struct {
	ApplicationID uuid.UUID     `json:"application_id"`
	Action        OutcomeAction `json:"action"`
	ToJobID       *uuid.UUID    `json:"to_job_id,omitempty"`
	Error         string        `json:"error,omitempty"`

	seq int
	err error
}

type CascadeFailure struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Error         string    `json:"error"`
}

// CascadeResult is the fold of every per-application outcome of one call.
// Resolved is always Denied + Rerouted.
type CascadeResult struct {
	JobID    uuid.UUID        `json:"job_id"`
	Mode     CascadeMode      `json:"mode"`
	Resolved int              `json:"resolved_count"`
	Denied   int              `json:"denied_count"`
	Rerouted int              `json:"rerouted_count"`
	Skipped  int              `json:"skipped_count"`
	Failures []CascadeFailure `json:"failures"`
	Outcomes []Outcome        `json:"outcomes"`
}

func (r *CascadeResult) add(o Outcome) {
	switch o.Action {
	case OutcomeDenied:
		r.Denied++
		r.Resolved++
	case OutcomeRerouted:
		r.Rerouted++
		r.Resolved++
	default:
		r.Skipped++
		if o.Error != "" {
			r.Failures = append(r.Failures, CascadeFailure{ApplicationID: o.ApplicationID, Error: o.Error})
		}
	}
	r.Outcomes = append(r.Outcomes, o)
}

type CascadeUsecase interface {
	ResolveRemaining(ctx context.Context, jobID uuid.UUID, mode CascadeMode, reason string, actor lifecycle.Actor) (CascadeResult, error)
}

type CascadeConfig struct {
	Workers     int
	MaxReroutes int
	LockTTL     time.Duration
	LockWait    time.Duration
}

type Cascade struct {
	jobs       repository.JobRepository
	apps       repository.ApplicationRepository
	applicants repository.ApplicantRepository
	status     StatusUsecase
	engine     *scoring.Engine
	locker     TargetLocker
	events     EventPublisher
	cfg        CascadeConfig
	log        *log.Logger

	targets *keyedMutex
	now     func() time.Time
}

func NewCascadeUsecase(
	jobs repository.JobRepository,
	apps repository.ApplicationRepository,
	applicants repository.ApplicantRepository,
	status StatusUsecase,
	engine *scoring.Engine,
	locker TargetLocker,
	events EventPublisher,
	cfg CascadeConfig,
	logger *log.Logger,
) *Cascade {
	if logger == nil {
		logger = log.Default()
	}
	if engine == nil {
		engine = scoring.NewEngine(scoring.DefaultRules())
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxReroutes < 0 {
		cfg.MaxReroutes = 0
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 5 * time.Second
	}
	return &Cascade{
		jobs:       jobs,
		apps:       apps,
		applicants: applicants,
		status:     status,
		engine:     engine,
		locker:     locker,
		events:     publisherOrNoop(events),
		cfg:        cfg,
		log:        logger,
		targets:    newKeyedMutex(),
		now:        timeNow,
	}
}

// openStatuses is the still-open set the cascade resolves.
func openStatuses(mode CascadeMode) []lifecycle.Status {
	if mode == CascadeReroute {
		return []lifecycle.Status{lifecycle.StatusPending, lifecycle.StatusUnderReview}
	}
	return []lifecycle.Status{lifecycle.StatusPending}
}

type rerouteTarget struct {
	job   lifecycle.Job
	score float64
}

// ResolveRemaining closes the job if needed and resolves every still-open
// application once. Per-application errors never fail the call; they are
// folded into the result as skips with a failure record.
func (u *Cascade) ResolveRemaining(ctx context.Context, jobID uuid.UUID, mode CascadeMode, reason string, actor lifecycle.Actor) (_ CascadeResult, err error) {
	ctx, span := tracer.Start(ctx, "Cascade.ResolveRemaining", trace.WithAttributes(
		attribute.String("job.id", jobID.String()),
		attribute.String("cascade.mode", string(mode)),
	))
	defer func() { endSpan(span, err) }()

	if mode != CascadeDeny && mode != CascadeReroute {
		return CascadeResult{}, fmt.Errorf("%w: unknown cascade mode %q", lifecycle.ErrInvalidInput, mode)
	}
	if !actor.IsStaff() && actor.Role != lifecycle.RoleSystem {
		return CascadeResult{}, fmt.Errorf("%w: closing a job requires a staff role", lifecycle.ErrForbidden)
	}
	reason = strings.TrimSpace(reason)
	if mode == CascadeDeny && reason == "" {
		return CascadeResult{}, fmt.Errorf("%w: a denial reason is required to deny remaining applications", lifecycle.ErrMissingMetadata)
	}

	job, err := u.closeJob(ctx, jobID)
	if err != nil {
		return CascadeResult{}, err
	}

	open, err := u.apps.ListByJob(ctx, jobID, repository.ListOptions{
		Statuses: openStatuses(mode),
		SortBy:   repository.SortByCreatedAt,
	})
	if err != nil {
		return CascadeResult{}, err
	}

	var (
		targets  []lifecycle.Job
		profiles map[uuid.UUID]lifecycle.ApplicantProfile
	)
	if mode == CascadeReroute && len(open) > 0 {
		targets, profiles, err = u.rerouteInputs(ctx, job, open)
		if err != nil {
			return CascadeResult{}, err
		}
	}

	u.log.Printf("cascade job_id=%s mode=%s open=%d status=start", jobID, mode, len(open))

	result := CascadeResult{JobID: jobID, Mode: mode, Failures: []CascadeFailure{}, Outcomes: []Outcome{}}

	workers := u.cfg.Workers
	if workers > len(open) {
		workers = len(open)
	}
	pool := newWorkerPool[Outcome](workers, len(open))
	results := pool.Run(ctx)
	for i, app := range open {
		pool.Submit(ctx, func(ctx context.Context) Outcome {
			var o Outcome
			if mode == CascadeDeny {
				o = u.deny(ctx, app, reason)
			} else {
				o = u.reroute(ctx, job, app, reason, targets, profiles)
			}
			o.seq = i
			return o
		})
	}
	pool.Close()

	outcomes := make([]Outcome, 0, len(open))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].seq < outcomes[j].seq })
	for _, o := range outcomes {
		result.add(o)
		cascadeOutcomes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("mode", string(mode)),
			attribute.String("outcome", string(o.Action)),
		))
		if o.err != nil {
			u.log.Printf("cascade job_id=%s application_id=%s outcome=%s err=%v", jobID, o.ApplicationID, o.Action, o.err)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	span.SetAttributes(
		attribute.Int("cascade.denied", result.Denied),
		attribute.Int("cascade.rerouted", result.Rerouted),
		attribute.Int("cascade.skipped", result.Skipped),
	)
	u.log.Printf("cascade job_id=%s mode=%s resolved=%d denied=%d rerouted=%d skipped=%d status=done",
		jobID, mode, result.Resolved, result.Denied, result.Rerouted, result.Skipped)

	u.events.Publish(ctx, lifecycle.Event{
		Type:  lifecycle.EventCascadeCompleted,
		JobID: &jobID,
		Data: map[string]any{
			"mode":           string(mode),
			"resolved_count": result.Resolved,
			"denied_count":   result.Denied,
			"rerouted_count": result.Rerouted,
			"skipped_count":  result.Skipped,
		},
		Timestamp: u.now(),
	})

	return result, nil
}

// closeJob moves an active or hidden job to closed. A closed job is fine
// as is; an archived one can no longer be resolved.
func (u *Cascade) closeJob(ctx context.Context, jobID uuid.UUID) (lifecycle.Job, error) {
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return lifecycle.Job{}, err
	}

	switch job.Status {
	case lifecycle.JobClosed:
		return job, nil
	case lifecycle.JobArchived:
		return lifecycle.Job{}, fmt.Errorf("%w: job %s is archived", lifecycle.ErrInvalidJobState, jobID)
	}

	from := job.Status
	closed, err := u.jobs.UpdateStatus(ctx, jobID, from, lifecycle.JobClosed)
	if err != nil {
		if !errors.Is(err, lifecycle.ErrConflict) {
			return lifecycle.Job{}, err
		}
		// someone else moved it first; only a concurrent close is acceptable
		cur, getErr := u.jobs.GetByID(ctx, jobID)
		if getErr != nil {
			return lifecycle.Job{}, getErr
		}
		if cur.Status != lifecycle.JobClosed {
			return lifecycle.Job{}, err
		}
		return cur, nil
	}

	u.events.Publish(ctx, lifecycle.Event{
		Type:      lifecycle.EventJobStatusChanged,
		JobID:     &jobID,
		From:      string(from),
		To:        string(lifecycle.JobClosed),
		Timestamp: u.now(),
	})
	return closed, nil
}

func (u *Cascade) rerouteInputs(ctx context.Context, source lifecycle.Job, open []lifecycle.Application) ([]lifecycle.Job, map[uuid.UUID]lifecycle.ApplicantProfile, error) {
	active, err := u.jobs.ListByStatus(ctx, source.Domain, lifecycle.JobActive)
	if err != nil {
		return nil, nil, err
	}
	targets := make([]lifecycle.Job, 0, len(active))
	for _, j := range active {
		if j.ID != source.ID {
			targets = append(targets, j)
		}
	}

	ids := make([]uuid.UUID, 0, len(open))
	for _, a := range open {
		ids = append(ids, a.ApplicantID)
	}
	profiles, err := u.applicants.GetProfiles(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return targets, profiles, nil
}

func (u *Cascade) deny(ctx context.Context, app lifecycle.Application, reason string) Outcome {
	observed := app.Status
	_, err := u.status.Apply(ctx, app, lifecycle.StatusDenied, lifecycle.SystemActor(), lifecycle.Metadata{
		ExpectedStatus: &observed,
		DenialReason:   reason,
		Reason:         reason,
	})
	if err != nil {
		return skipped(app.ID, err)
	}
	return Outcome{ApplicationID: app.ID, Action: OutcomeDenied}
}

func (u *Cascade) reroute(ctx context.Context, source lifecycle.Job, app lifecycle.Application, reason string, targets []lifecycle.Job, profiles map[uuid.UUID]lifecycle.ApplicantProfile) Outcome {
	if app.RerouteCount >= u.cfg.MaxReroutes {
		return skipped(app.ID, fmt.Errorf("%w: application %s was re-routed %d times", lifecycle.ErrExhaustedReroutes, app.ID, app.RerouteCount))
	}

	profile, ok := profiles[app.ApplicantID]
	if !ok {
		profile = lifecycle.ApplicantProfile{ApplicantID: app.ApplicantID}
	}

	for _, t := range u.rankTargets(profile, targets) {
		applied, err := u.apps.ExistsForApplicant(ctx, t.job.ID, app.ApplicantID)
		if err != nil {
			return skipped(app.ID, err)
		}
		if applied {
			continue
		}

		moved, err := u.moveTo(ctx, source, app, t.job)
		if err != nil {
			if errors.Is(err, lifecycle.ErrCapacityReached) || errors.Is(err, lifecycle.ErrInvalidJobState) {
				continue
			}
			return skipped(app.ID, err)
		}

		toID := moved.JobID
		appID := moved.ID
		fromID := source.ID
		u.events.Publish(ctx, lifecycle.Event{
			Type:          lifecycle.EventApplicationRerouted,
			ApplicationID: &appID,
			JobID:         &toID,
			From:          string(app.Status),
			To:            string(lifecycle.StatusPending),
			Data: map[string]any{
				"from_job_id":   fromID.String(),
				"score":         t.score,
				"reroute_count": moved.RerouteCount,
			},
			Timestamp: moved.UpdatedAt,
		})
		return Outcome{ApplicationID: app.ID, Action: OutcomeRerouted, ToJobID: &toID}
	}

	fallback := reason
	if fallback == "" {
		fallback = DefaultFallbackDenialReason
	}
	return u.deny(ctx, app, fallback)
}

// rankTargets keeps the jobs at or above the re-route threshold, best
// first; ties go to the older posting, then the smaller id.
func (u *Cascade) rankTargets(profile lifecycle.ApplicantProfile, targets []lifecycle.Job) []rerouteTarget {
	threshold := u.engine.Rules().RerouteThreshold
	out := make([]rerouteTarget, 0, len(targets))
	for _, j := range targets {
		b := u.engine.Evaluate(profile, j.Requirements)
		if b.Match < threshold {
			continue
		}
		out = append(out, rerouteTarget{job: j, score: b.Match})
	}
	sort.SliceStable(out, func(i, k int) bool {
		a, b := out[i], out[k]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.job.CreatedAt.Equal(b.job.CreatedAt) {
			return a.job.CreatedAt.Before(b.job.CreatedAt)
		}
		return bytes.Compare(a.job.ID[:], b.job.ID[:]) < 0
	})
	return out
}

func (u *Cascade) moveTo(ctx context.Context, source lifecycle.Job, app lifecycle.Application, target lifecycle.Job) (lifecycle.Application, error) {
	unlock, err := u.lockTarget(ctx, target.ID)
	if err != nil {
		return lifecycle.Application{}, err
	}
	defer unlock()

	now := u.now()
	reason := fmt.Sprintf("re-routed from %s (%s)", source.Title, source.ID)
	return u.apps.Reroute(ctx, repository.RerouteInput{
		ApplicationID: app.ID,
		FromJobID:     source.ID,
		ToJobID:       target.ID,
		Observed:      app.Status,
		MaxReroutes:   u.cfg.MaxReroutes,
		Entry: lifecycle.StatusHistoryEntry{
			ID:            uuid.New(),
			ApplicationID: app.ID,
			From:          lifecycle.StatusPtr(app.Status),
			To:            lifecycle.StatusPending,
			ChangedAt:     now,
			ChangedBy:     lifecycle.SystemActor().ChangedBy(),
			Reason:        &reason,
		},
	})
}

// lockTarget serializes re-routes into one job: in-process first, then
// across instances when a locker is configured.
func (u *Cascade) lockTarget(ctx context.Context, jobID uuid.UUID) (func(), error) {
	unlockLocal := u.targets.Lock(jobID.String())
	if u.locker == nil {
		return unlockLocal, nil
	}

	key := "lock:reroute:" + jobID.String()
	deadline := time.Now().Add(u.cfg.LockWait)
	for {
		release, ok, err := u.locker.TryLock(ctx, key, u.cfg.LockTTL)
		if err != nil {
			unlockLocal()
			return nil, err
		}
		if ok {
			return func() {
				release()
				unlockLocal()
			}, nil
		}
		if time.Now().After(deadline) {
			unlockLocal()
			return nil, fmt.Errorf("%w: job %s is locked by another re-route", lifecycle.ErrConflict, jobID)
		}
		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func skipped(id uuid.UUID, err error) Outcome {
	return Outcome{ApplicationID: id, Action: OutcomeSkipped, Error: err.Error(), err: err}
}
