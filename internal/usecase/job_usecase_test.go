package usecase

import (
	"context"
	"testing"

	"workforce-portal/internal/domain/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobs_CreateValidates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	job, err := e.jobs.Create(ctx, JobInput{
		Domain:          "Training",
		Title:           " Welding NC II ",
		Skills:          []string{"welding", "Welding"},
		YearsExperience: 0,
		Capacity:        intPtr(25),
	}, staff)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.DomainTraining, job.Domain)
	assert.Equal(t, "Welding NC II", job.Title)
	assert.Equal(t, lifecycle.JobActive, job.Status)
	assert.Equal(t, []string{"welding"}, job.Requirements.Skills)

	stored, err := e.jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Capacity)
	assert.Equal(t, 25, *stored.Capacity)

	cases := map[string]JobInput{
		"unknown domain":    {Domain: "internship", Title: "x"},
		"blank title":       {Domain: "job", Title: "  "},
		"negative years":    {Domain: "job", Title: "x", YearsExperience: -1},
		"negative capacity": {Domain: "job", Title: "x", Capacity: intPtr(-1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.jobs.Create(ctx, in, staff)
			assert.ErrorIs(t, err, lifecycle.ErrInvalidInput)
		})
	}

	_, err = e.jobs.Create(ctx, JobInput{Domain: "job", Title: "x"}, lifecycle.Actor{Role: lifecycle.RoleApplicant})
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)
}

func TestJobs_UpdateStatusFollowsJobGraph(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Clerk"})
	app := e.submit(t, job, e.applicant(t, goProfile))
	ctx := context.Background()

	same, err := e.jobs.UpdateStatus(ctx, job.ID, lifecycle.JobActive, staff)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.JobActive, same.Status)
	assert.Empty(t, e.events.ofType(lifecycle.EventJobStatusChanged))

	_, err = e.jobs.UpdateStatus(ctx, job.ID, lifecycle.JobArchived, staff)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	closed, err := e.jobs.UpdateStatus(ctx, job.ID, lifecycle.JobClosed, staff)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.JobClosed, closed.Status)
	assert.Len(t, e.events.ofType(lifecycle.EventJobStatusChanged), 1)

	// closing directly leaves applications alone
	got, err := e.store.Applications.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, got.Status)

	_, err = e.jobs.UpdateStatus(ctx, job.ID, lifecycle.JobActive, staff)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestJobs_PipelineSummary(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Clerk"})
	a := e.submit(t, job, e.applicant(t, goProfile))
	e.submit(t, job, e.applicant(t, goProfile))
	e.move(t, a.ID, lifecycle.StatusUnderReview, lifecycle.Metadata{})

	sum, err := e.jobs.PipelineSummary(context.Background(), job.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.ByStatus[lifecycle.StatusPending])
	assert.Equal(t, 1, sum.ByStatus[lifecycle.StatusUnderReview])

	_, err = e.jobs.PipelineSummary(context.Background(), job.ID, lifecycle.Actor{Role: lifecycle.RoleApplicant})
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)
}
