package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// strongTarget scores 100 for goProfile, weakTarget 37.5 and midTarget 88.33.
func strongTarget(capacity *int) jobSpec {
	return jobSpec{title: "Platform Engineer", degree: "bachelor", skills: []string{"golang", "postgresql"}, years: 4, capacity: capacity}
}

func weakTarget() jobSpec {
	return jobSpec{title: "SRE Lead", degree: "master", skills: []string{"kubernetes", "terraform"}, years: 10, created: t0.Add(-48 * time.Hour)}
}

func midTarget() jobSpec {
	return jobSpec{title: "Cloud Developer", degree: "bachelor", skills: []string{"golang", "docker", "aws"}, years: 4}
}

func TestCascade_DenyResolvesPendingOnce(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Data Clerk"})
	for i := 0; i < 3; i++ {
		e.submit(t, job, e.applicant(t, goProfile))
	}
	reviewed := e.submit(t, job, e.applicant(t, goProfile))
	e.move(t, reviewed.ID, lifecycle.StatusUnderReview, lifecycle.Metadata{})

	uc := e.cascade(CascadeConfig{Workers: 2, MaxReroutes: 2})
	ctx := context.Background()

	res, err := uc.ResolveRemaining(ctx, job.ID, CascadeDeny, "position filled", staff)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Resolved)
	assert.Equal(t, 3, res.Denied)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Failures)
	assert.Len(t, res.Outcomes, 3)

	closed, err := e.store.Jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.JobClosed, closed.Status)

	denied, err := e.store.Applications.ListByJob(ctx, job.ID, repository.ListOptions{Statuses: []lifecycle.Status{lifecycle.StatusDenied}})
	require.NoError(t, err)
	require.Len(t, denied, 3)
	for _, a := range denied {
		require.NotNil(t, a.DenialReason)
		assert.Equal(t, "position filled", *a.DenialReason)

		hist, err := e.store.Applications.History(ctx, a.ID)
		require.NoError(t, err)
		last := hist[len(hist)-1]
		assert.Nil(t, last.ChangedBy)
		assert.Equal(t, lifecycle.StatusDenied, last.To)
	}

	still, err := e.store.Applications.GetByID(ctx, reviewed.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusUnderReview, still.Status)

	again, err := uc.ResolveRemaining(ctx, job.ID, CascadeDeny, "position filled", staff)
	require.NoError(t, err)
	assert.Zero(t, again.Resolved)
	assert.Zero(t, again.Skipped)

	assert.Len(t, e.events.ofType(lifecycle.EventJobStatusChanged), 1)
	assert.Len(t, e.events.ofType(lifecycle.EventCascadeCompleted), 2)
}

func TestCascade_DenyNeedsReason(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Data Clerk"})

	_, err := e.cascade(CascadeConfig{}).ResolveRemaining(context.Background(), job.ID, CascadeDeny, "  ", staff)
	assert.ErrorIs(t, err, lifecycle.ErrMissingMetadata)

	got, err := e.store.Jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.JobActive, got.Status)
}

func TestCascade_RejectsArchivedJobAndApplicants(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Data Clerk"})
	ctx := context.Background()
	uc := e.cascade(CascadeConfig{})

	_, err := uc.ResolveRemaining(ctx, job.ID, CascadeDeny, "filled", e.applicant(t, goProfile))
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)

	_, err = e.jobs.UpdateStatus(ctx, job.ID, lifecycle.JobClosed, staff)
	require.NoError(t, err)
	_, err = e.jobs.UpdateStatus(ctx, job.ID, lifecycle.JobArchived, staff)
	require.NoError(t, err)

	_, err = uc.ResolveRemaining(ctx, job.ID, CascadeDeny, "filled", staff)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidJobState)

	_, err = uc.ResolveRemaining(ctx, uuid.New(), CascadeDeny, "filled", staff)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)

	_, err = uc.ResolveRemaining(ctx, job.ID, CascadeMode("shuffle"), "filled", staff)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidInput)
}

func TestCascade_RerouteMovesToBestTarget(t *testing.T) {
	e := newEnv(t)
	source := e.seedJob(t, jobSpec{title: "Go Developer", skills: []string{"go"}})
	weak := e.seedJob(t, weakTarget())
	best := e.seedJob(t, strongTarget(nil))
	e.seedJob(t, midTarget())

	who := e.applicant(t, goProfile)
	app := e.submit(t, source, who)
	e.move(t, app.ID, lifecycle.StatusUnderReview, lifecycle.Metadata{})

	ctx := context.Background()
	res, err := e.cascade(CascadeConfig{MaxReroutes: 2}).ResolveRemaining(ctx, source.ID, CascadeReroute, "", staff)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rerouted)
	assert.Equal(t, 1, res.Resolved)
	require.Len(t, res.Outcomes, 1)
	require.NotNil(t, res.Outcomes[0].ToJobID)
	assert.Equal(t, best.ID, *res.Outcomes[0].ToJobID)
	assert.NotEqual(t, weak.ID, *res.Outcomes[0].ToJobID)

	moved, err := e.store.Applications.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, best.ID, moved.JobID)
	assert.Equal(t, lifecycle.StatusPending, moved.Status)
	assert.Equal(t, 1, moved.RerouteCount)
	assert.Nil(t, moved.MatchScore)
	assert.Nil(t, moved.Rank)

	hist, err := e.store.Applications.History(ctx, app.ID)
	require.NoError(t, err)
	last := hist[len(hist)-1]
	require.NotNil(t, last.From)
	assert.Equal(t, lifecycle.StatusUnderReview, *last.From)
	assert.Equal(t, lifecycle.StatusPending, last.To)
	assert.Nil(t, last.ChangedBy)
	require.NotNil(t, last.Reason)
	assert.True(t, strings.HasPrefix(*last.Reason, "re-routed from Go Developer"), *last.Reason)

	rerouted := e.events.ofType(lifecycle.EventApplicationRerouted)
	require.Len(t, rerouted, 1)
	assert.Equal(t, source.ID.String(), rerouted[0].Data["from_job_id"])
}

func TestCascade_RerouteSkipsJobsAlreadyAppliedTo(t *testing.T) {
	e := newEnv(t)
	source := e.seedJob(t, jobSpec{title: "Go Developer", skills: []string{"go"}})
	best := e.seedJob(t, strongTarget(nil))
	mid := e.seedJob(t, midTarget())

	who := e.applicant(t, goProfile)
	app := e.submit(t, source, who)
	e.submit(t, best, who)

	res, err := e.cascade(CascadeConfig{MaxReroutes: 2}).ResolveRemaining(context.Background(), source.ID, CascadeReroute, "", staff)
	require.NoError(t, err)
	require.Equal(t, 1, res.Rerouted)

	moved, err := e.store.Applications.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, mid.ID, moved.JobID)
}

func TestCascade_RerouteLimitIsSkipped(t *testing.T) {
	e := newEnv(t)
	source := e.seedJob(t, jobSpec{title: "Go Developer", skills: []string{"go"}})
	first := e.seedJob(t, strongTarget(nil))
	e.seedJob(t, midTarget())

	app := e.submit(t, source, e.applicant(t, goProfile))
	uc := e.cascade(CascadeConfig{MaxReroutes: 1})
	ctx := context.Background()

	res, err := uc.ResolveRemaining(ctx, source.ID, CascadeReroute, "", staff)
	require.NoError(t, err)
	require.Equal(t, 1, res.Rerouted)

	res, err = uc.ResolveRemaining(ctx, first.ID, CascadeReroute, "", staff)
	require.NoError(t, err)
	assert.Zero(t, res.Resolved)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, app.ID, res.Failures[0].ApplicationID)
	assert.Contains(t, res.Failures[0].Error, lifecycle.ErrExhaustedReroutes.Error())

	stuck, err := e.store.Applications.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stuck.JobID)
	assert.Equal(t, lifecycle.StatusPending, stuck.Status)
	assert.Equal(t, 1, stuck.RerouteCount)

	// a re-run reports the same skip and changes nothing
	res, err = uc.ResolveRemaining(ctx, first.ID, CascadeReroute, "", staff)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	hist, err := e.store.Applications.History(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

func TestCascade_FullTargetFallsBackToDenial(t *testing.T) {
	e := newEnv(t)
	source := e.seedJob(t, jobSpec{title: "Go Developer", skills: []string{"go"}})
	full := e.seedJob(t, strongTarget(intPtr(1)))
	e.seedJob(t, weakTarget())

	e.submit(t, full, e.applicant(t, goProfile))
	app := e.submit(t, source, e.applicant(t, goProfile))

	res, err := e.cascade(CascadeConfig{MaxReroutes: 2}).ResolveRemaining(context.Background(), source.ID, CascadeReroute, "", staff)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Denied)
	assert.Zero(t, res.Rerouted)

	got, err := e.store.Applications.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, source.ID, got.JobID)
	assert.Equal(t, lifecycle.StatusDenied, got.Status)
	require.NotNil(t, got.DenialReason)
	assert.Equal(t, DefaultFallbackDenialReason, *got.DenialReason)
}

func TestCascade_NoQualifyingTargetUsesGivenReason(t *testing.T) {
	e := newEnv(t)
	source := e.seedJob(t, jobSpec{title: "Go Developer", skills: []string{"go"}})
	e.seedJob(t, weakTarget())
	app := e.submit(t, source, e.applicant(t, goProfile))

	res, err := e.cascade(CascadeConfig{MaxReroutes: 2}).ResolveRemaining(context.Background(), source.ID, CascadeReroute, "posting withdrawn by employer", staff)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Denied)

	got, err := e.store.Applications.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DenialReason)
	assert.Equal(t, "posting withdrawn by employer", *got.DenialReason)
}

func TestCascade_ConcurrentReroutesRespectCapacity(t *testing.T) {
	e := newEnv(t)
	target := e.seedJob(t, strongTarget(intPtr(1)))
	sources := []lifecycle.Job{
		e.seedJob(t, jobSpec{title: "Go Developer A", skills: []string{"go"}}),
		e.seedJob(t, jobSpec{title: "Go Developer B", skills: []string{"go"}}),
	}
	for _, s := range sources {
		e.submit(t, s, e.applicant(t, goProfile))
	}

	uc := e.cascade(CascadeConfig{Workers: 4, MaxReroutes: 2})
	results := make([]CascadeResult, len(sources))
	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.ResolveRemaining(context.Background(), s.ID, CascadeReroute, "", staff)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	rerouted, denied := 0, 0
	for _, r := range results {
		rerouted += r.Rerouted
		denied += r.Denied
	}
	assert.Equal(t, 1, rerouted)
	assert.Equal(t, 1, denied)

	seated, err := e.store.Applications.ListByJob(context.Background(), target.ID, repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, seated, 1)
}

func TestParseCascadeMode(t *testing.T) {
	m, err := ParseCascadeMode(" Reroute ")
	require.NoError(t, err)
	assert.Equal(t, CascadeReroute, m)

	_, err = ParseCascadeMode("archive")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidInput)
}
