package sqlite

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedJob(t *testing.T, s *Store, title string, status lifecycle.JobStatus, capacity *int, at time.Time) lifecycle.Job {
	t.Helper()
	j := lifecycle.Job{
		ID:     uuid.New(),
		Domain: lifecycle.DomainJob,
		Title:  title,
		Requirements: lifecycle.Requirements{
			Degree:          "bachelor",
			Skills:          []string{"go", "sql"},
			YearsExperience: 2,
		},
		Status:    status,
		Capacity:  capacity,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, s.Jobs.Create(context.Background(), j))
	return j
}

func seedApplication(t *testing.T, s *Store, job lifecycle.Job, at time.Time) lifecycle.Application {
	t.Helper()
	app := lifecycle.Application{
		ID:          uuid.New(),
		JobID:       job.ID,
		ApplicantID: uuid.New(),
		Domain:      job.Domain,
		Status:      lifecycle.StatusPending,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	entry := lifecycle.StatusHistoryEntry{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		To:            lifecycle.StatusPending,
		ChangedAt:     at,
	}
	require.NoError(t, s.Applications.Create(context.Background(), app, entry))
	return app
}

func TestJobRepository_RoundTripAndStatusGuard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	capacity := 3
	j := seedJob(t, s, "Backend Engineer", lifecycle.JobActive, &capacity, base)

	got, err := s.Jobs.GetByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, []string{"go", "sql"}, got.Requirements.Skills)
	assert.Equal(t, []string{}, got.Requirements.Eligibilities)
	require.NotNil(t, got.Capacity)
	assert.Equal(t, 3, *got.Capacity)

	updated, err := s.Jobs.UpdateStatus(ctx, j.ID, lifecycle.JobActive, lifecycle.JobClosed)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.JobClosed, updated.Status)

	_, err = s.Jobs.UpdateStatus(ctx, j.ID, lifecycle.JobActive, lifecycle.JobHidden)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))

	_, err = s.Jobs.UpdateStatus(ctx, uuid.New(), lifecycle.JobActive, lifecycle.JobHidden)
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

func TestJobRepository_ListByStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedJob(t, s, "A", lifecycle.JobActive, nil, base)
	seedJob(t, s, "B", lifecycle.JobHidden, nil, base.Add(time.Minute))
	c := seedJob(t, s, "C", lifecycle.JobActive, nil, base.Add(2*time.Minute))

	jobs, err := s.Jobs.ListByStatus(ctx, lifecycle.DomainJob, lifecycle.JobActive)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, a.ID, jobs[0].ID)
	assert.Equal(t, c.ID, jobs[1].ID)

	none, err := s.Jobs.ListByStatus(ctx, lifecycle.DomainTraining, lifecycle.JobActive)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestApplicationRepository_CreateDuplicateIsConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := seedJob(t, s, "A", lifecycle.JobActive, nil, base)
	app := seedApplication(t, s, j, base)

	exists, err := s.Applications.ExistsForApplicant(ctx, j.ID, app.ApplicantID)
	require.NoError(t, err)
	assert.True(t, exists)

	dup := app
	dup.ID = uuid.New()
	err = s.Applications.Create(ctx, dup, lifecycle.StatusHistoryEntry{ID: uuid.New(), ApplicationID: dup.ID, To: lifecycle.StatusPending, ChangedAt: base})
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))
}

func TestApplicationRepository_SaveTransitionGuard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := seedJob(t, s, "A", lifecycle.JobActive, nil, base)
	app := seedApplication(t, s, j, base)

	next := app
	next.Status = lifecycle.StatusDenied
	next.DenialReason = lifecycle.StringPtr("position filled")
	next.UpdatedAt = base.Add(time.Hour)
	from := lifecycle.StatusPending
	entry := lifecycle.StatusHistoryEntry{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		From:          &from,
		To:            lifecycle.StatusDenied,
		ChangedAt:     next.UpdatedAt,
		Reason:        next.DenialReason,
	}
	require.NoError(t, s.Applications.SaveTransition(ctx, next, lifecycle.StatusPending, entry))

	got, err := s.Applications.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDenied, got.Status)
	require.NotNil(t, got.DenialReason)
	assert.Equal(t, "position filled", *got.DenialReason)

	// stale observed status
	entry.ID = uuid.New()
	err = s.Applications.SaveTransition(ctx, next, lifecycle.StatusPending, entry)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))

	missing := next
	missing.ID = uuid.New()
	err = s.Applications.SaveTransition(ctx, missing, lifecycle.StatusPending, entry)
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))

	history, err := s.Applications.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Nil(t, history[0].From)
	assert.Equal(t, lifecycle.StatusPending, history[0].To)
	assert.Equal(t, lifecycle.StatusDenied, history[1].To)
	assert.Equal(t, got.Status, lifecycle.ReplayStatus(lifecycle.StatusPending, history))
}

func TestApplicationRepository_ListByJobOptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := seedJob(t, s, "A", lifecycle.JobActive, nil, base)
	a1 := seedApplication(t, s, j, base)
	a2 := seedApplication(t, s, j, base.Add(time.Minute))
	a3 := seedApplication(t, s, j, base.Add(2*time.Minute))

	require.NoError(t, s.Applications.SaveScores(ctx, j.ID, nil, []repository.ScoreUpdate{
		{ApplicationID: a1.ID, MatchScore: 50, Rank: 2},
		{ApplicationID: a3.ID, MatchScore: 90, Rank: 1},
	}))

	byRank, err := s.Applications.ListByJob(ctx, j.ID, repository.ListOptions{SortBy: repository.SortByRank})
	require.NoError(t, err)
	require.Len(t, byRank, 3)
	assert.Equal(t, a3.ID, byRank[0].ID)
	assert.Equal(t, a1.ID, byRank[1].ID)
	assert.Equal(t, a2.ID, byRank[2].ID)
	assert.Nil(t, byRank[2].Rank)

	paged, err := s.Applications.ListByJob(ctx, j.ID, repository.ListOptions{Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 2)
	assert.Equal(t, a2.ID, paged[0].ID)

	limited, err := s.Applications.ListByJob(ctx, j.ID, repository.ListOptions{Limit: 1, Descending: true})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, a3.ID, limited[0].ID)

	filtered, err := s.Applications.ListByJob(ctx, j.ID, repository.ListOptions{
		Statuses:        []lifecycle.Status{lifecycle.StatusPending},
		ExcludeStatuses: []lifecycle.Status{lifecycle.StatusWithdrawn},
	})
	require.NoError(t, err)
	assert.Len(t, filtered, 3)
}

func TestApplicationRepository_RerouteMovesAndGuards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	from := seedJob(t, s, "Closed Role", lifecycle.JobClosed, nil, base)
	to := seedJob(t, s, "Open Role", lifecycle.JobActive, nil, base)
	app := seedApplication(t, s, from, base)

	require.NoError(t, s.Applications.SaveScores(ctx, from.ID, nil, []repository.ScoreUpdate{{ApplicationID: app.ID, MatchScore: 70, Rank: 1}}))

	pending := lifecycle.StatusPending
	in := repository.RerouteInput{
		ApplicationID: app.ID,
		FromJobID:     from.ID,
		ToJobID:       to.ID,
		Observed:      lifecycle.StatusPending,
		MaxReroutes:   1,
		Entry: lifecycle.StatusHistoryEntry{
			ID:            uuid.New(),
			ApplicationID: app.ID,
			From:          &pending,
			To:            lifecycle.StatusPending,
			ChangedAt:     base.Add(time.Hour),
			Reason:        lifecycle.StringPtr("re-routed"),
		},
	}
	moved, err := s.Applications.Reroute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.JobID)
	assert.Equal(t, 1, moved.RerouteCount)
	assert.Nil(t, moved.MatchScore)
	assert.Nil(t, moved.Rank)

	// limit reached
	back := in
	back.FromJobID, back.ToJobID = to.ID, from.ID
	back.Entry.ID = uuid.New()
	_, err = s.Applications.Reroute(ctx, back)
	assert.True(t, errors.Is(err, lifecycle.ErrInvalidJobState), "closed target")

	third := seedJob(t, s, "Third", lifecycle.JobActive, nil, base)
	back.ToJobID = third.ID
	_, err = s.Applications.Reroute(ctx, back)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict), "reroute limit")

	history, err := s.Applications.History(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestApplicationRepository_RerouteCapacity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	from := seedJob(t, s, "Closed", lifecycle.JobClosed, nil, base)
	one := 1
	full := seedJob(t, s, "Full", lifecycle.JobActive, &one, base)
	seedApplication(t, s, full, base)
	app := seedApplication(t, s, from, base)

	_, err := s.Applications.Reroute(ctx, repository.RerouteInput{
		ApplicationID: app.ID,
		FromJobID:     from.ID,
		ToJobID:       full.ID,
		Observed:      lifecycle.StatusPending,
		MaxReroutes:   2,
		Entry:         lifecycle.StatusHistoryEntry{ID: uuid.New(), ApplicationID: app.ID, To: lifecycle.StatusPending, ChangedAt: base},
	})
	assert.True(t, errors.Is(err, lifecycle.ErrCapacityReached))
}

func TestApplicationRepository_Purge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := seedJob(t, s, "A", lifecycle.JobActive, nil, base)
	app := seedApplication(t, s, j, base)

	require.NoError(t, s.Applications.Purge(ctx, app.ID))

	_, err := s.Applications.GetByID(ctx, app.ID)
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
	history, err := s.Applications.History(ctx, app.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.True(t, errors.Is(s.Applications.Purge(ctx, app.ID), lifecycle.ErrNotFound))
}

func TestApplicantRepository_UpsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, s.Applicants.Upsert(ctx, lifecycle.ApplicantProfile{ApplicantID: id, Degree: "bachelor", Skills: []string{"go"}}))
	require.NoError(t, s.Applicants.Upsert(ctx, lifecycle.ApplicantProfile{ApplicantID: id, Degree: "master", YearsExperience: 4, Skills: []string{"go", "rust"}}))

	got, err := s.Applicants.GetProfiles(ctx, []uuid.UUID{id, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "master", got[id].Degree)
	assert.Equal(t, 4, got[id].YearsExperience)
	assert.Equal(t, []string{"go", "rust"}, got[id].Skills)

	empty, err := s.Applicants.GetProfiles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPipelineStatusRepository_Summary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := seedJob(t, s, "A", lifecycle.JobActive, nil, base)
	a1 := seedApplication(t, s, j, base)
	a2 := seedApplication(t, s, j, base.Add(time.Minute))
	require.NoError(t, s.Applications.SaveScores(ctx, j.ID, nil, []repository.ScoreUpdate{
		{ApplicationID: a1.ID, MatchScore: 80, Rank: 1},
		{ApplicationID: a2.ID, MatchScore: 60, Rank: 2},
	}))

	sum, err := s.Pipeline.GetJobSummary(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.ByStatus[lifecycle.StatusPending])
	assert.Equal(t, 2, sum.Ranked)
	assert.InDelta(t, 70.0, sum.AverageMatchScore, 0.001)
	assert.Equal(t, 0, sum.Rerouted)
}

func TestApplicationRepository_SaveScoresReplacesThePool(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := seedJob(t, s, "A", lifecycle.JobActive, nil, base)
	a1 := seedApplication(t, s, j, base)
	a2 := seedApplication(t, s, j, base.Add(time.Minute))
	require.NoError(t, s.Applications.SaveScores(ctx, j.ID, nil, []repository.ScoreUpdate{
		{ApplicationID: a1.ID, MatchScore: 90, Rank: 1, SkillsScore: 100},
		{ApplicationID: a2.ID, MatchScore: 40, Rank: 2},
	}))

	// a1 withdraws while a ranking that still holds it is being written
	withdrawn := a1
	withdrawn.Status = lifecycle.StatusWithdrawn
	withdrawn.UpdatedAt = base.Add(time.Hour)
	pending := lifecycle.StatusPending
	require.NoError(t, s.Applications.SaveTransition(ctx, withdrawn, lifecycle.StatusPending, lifecycle.StatusHistoryEntry{
		ID:            uuid.New(),
		ApplicationID: a1.ID,
		From:          &pending,
		To:            lifecycle.StatusWithdrawn,
		ChangedAt:     withdrawn.UpdatedAt,
	}))

	exclude := []lifecycle.Status{lifecycle.StatusWithdrawn, lifecycle.StatusArchived}
	require.NoError(t, s.Applications.SaveScores(ctx, j.ID, exclude, []repository.ScoreUpdate{
		{ApplicationID: a1.ID, MatchScore: 90, Rank: 1},
		{ApplicationID: a2.ID, MatchScore: 40, Rank: 2},
	}))

	got1, err := s.Applications.GetByID(ctx, a1.ID)
	require.NoError(t, err)
	assert.Nil(t, got1.Rank)
	assert.Nil(t, got1.MatchScore)
	assert.Nil(t, got1.SkillsScore)

	got2, err := s.Applications.GetByID(ctx, a2.ID)
	require.NoError(t, err)
	require.NotNil(t, got2.Rank)
	assert.Equal(t, 2, *got2.Rank)

	require.NoError(t, s.Applications.SaveScores(ctx, j.ID, exclude, nil))
	got2, err = s.Applications.GetByID(ctx, a2.ID)
	require.NoError(t, err)
	assert.Nil(t, got2.Rank)
}
