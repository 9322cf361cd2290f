package usecase

import (
	"context"
	"testing"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplications_SubmitWritesInitialHistory(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Clerk"})
	who := e.applicant(t, goProfile)

	app := e.submit(t, job, who)
	assert.Equal(t, lifecycle.StatusPending, app.Status)
	assert.Equal(t, lifecycle.DomainJob, app.Domain)
	assert.Zero(t, app.RerouteCount)

	hist, err := e.apps.History(context.Background(), app.ID, who)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Nil(t, hist[0].From)
	assert.Equal(t, lifecycle.StatusPending, hist[0].To)
	require.NotNil(t, hist[0].ChangedBy)
	assert.Equal(t, who.ID, *hist[0].ChangedBy)

	assert.Len(t, e.events.ofType(lifecycle.EventApplicationCreated), 1)
}

func TestApplications_SubmitRules(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Clerk"})
	who := e.applicant(t, goProfile)
	ctx := context.Background()

	_, err := e.apps.Submit(ctx, job.ID, staff)
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)

	_, err = e.apps.Submit(ctx, uuid.New(), who)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)

	e.submit(t, job, who)
	_, err = e.apps.Submit(ctx, job.ID, who)
	assert.ErrorIs(t, err, lifecycle.ErrConflict)

	_, err = e.jobs.UpdateStatus(ctx, job.ID, lifecycle.JobHidden, staff)
	require.NoError(t, err)
	_, err = e.apps.Submit(ctx, job.ID, e.applicant(t, goProfile))
	assert.ErrorIs(t, err, lifecycle.ErrInvalidJobState)
}

func TestApplications_ReadAccess(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Clerk"})
	owner := e.applicant(t, goProfile)
	app := e.submit(t, job, owner)
	ctx := context.Background()

	_, err := e.apps.Get(ctx, app.ID, owner)
	require.NoError(t, err)
	_, err = e.apps.Get(ctx, app.ID, staff)
	require.NoError(t, err)

	stranger := e.applicant(t, goProfile)
	_, err = e.apps.Get(ctx, app.ID, stranger)
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)
	_, err = e.apps.History(ctx, app.ID, stranger)
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)

	_, err = e.apps.List(ctx, job.ID, repository.ListOptions{}, owner)
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)

	list, err := e.apps.List(ctx, job.ID, repository.ListOptions{Limit: -5}, staff)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestApplications_PurgeIsAdminOnly(t *testing.T) {
	e := newEnv(t)
	job := e.seedJob(t, jobSpec{title: "Clerk"})
	app := e.submit(t, job, e.applicant(t, goProfile))
	ctx := context.Background()

	assert.ErrorIs(t, e.apps.Purge(ctx, app.ID, staff), lifecycle.ErrForbidden)
	require.NoError(t, e.apps.Purge(ctx, app.ID, admin))

	_, err := e.store.Applications.GetByID(ctx, app.ID)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
	hist, err := e.store.Applications.History(ctx, app.ID)
	require.NoError(t, err)
	assert.Empty(t, hist)

	purged := e.events.ofType(lifecycle.EventApplicationPurged)
	require.Len(t, purged, 1)
	assert.Equal(t, job.ID, *purged[0].JobID)

	assert.ErrorIs(t, e.apps.Purge(ctx, app.ID, admin), lifecycle.ErrNotFound)
}

func TestApplications_SaveProfileCleansLists(t *testing.T) {
	e := newEnv(t)
	who := lifecycle.Actor{ID: uuid.New(), Role: lifecycle.RoleApplicant}
	ctx := context.Background()

	p, err := e.apps.SaveProfile(ctx, who, ProfileInput{
		Degree:          "  BSc Computer Science ",
		YearsExperience: 3,
		Skills:          []string{"Go", " go ", "", "SQL"},
	})
	require.NoError(t, err)
	assert.Equal(t, "BSc Computer Science", p.Degree)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)
	assert.Empty(t, p.Eligibilities)

	stored, err := e.store.Applicants.GetProfiles(ctx, []uuid.UUID{who.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, stored[who.ID].Skills)

	_, err = e.apps.SaveProfile(ctx, who, ProfileInput{YearsExperience: -1})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidInput)

	_, err = e.apps.SaveProfile(ctx, staff, ProfileInput{})
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)
}
