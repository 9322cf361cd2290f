package integration

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"workforce-portal/internal/config"
	"workforce-portal/internal/database"
	"workforce-portal/internal/database/migration"
	dbpostgres "workforce-portal/internal/database/postgres"
	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/domain/scoring"
	"workforce-portal/internal/repository"
	"workforce-portal/internal/usecase"
	"workforce-portal/migrations"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = log.New(io.Discard, "", 0)

type pgEnv struct {
	db      database.DB
	jobs    *repository.PostgresJobRepository
	apps    *repository.PostgresApplicationRepository
	profile *repository.PostgresApplicantRepository

	status  *usecase.StatusEngine
	appsUC  *usecase.Applications
	jobsUC  *usecase.Jobs
	cascade *usecase.Cascade
}

func connectTestDB(t *testing.T, ctx context.Context) database.DB {
	t.Helper()

	host := stringsOrDefault(os.Getenv("WORKFORCE_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("WORKFORCE_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("WORKFORCE_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	user := stringsOrDefault(os.Getenv("WORKFORCE_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("WORKFORCE_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("WORKFORCE_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || user == "" {
		t.Skip("missing test DB env vars: set WORKFORCE_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}
	if ssl == "" {
		ssl = "disable"
	}

	db, err := dbpostgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     host,
		DBPort:     port,
		DBName:     name,
		DBUser:     user,
		DBPassword: pass,
		DBSSLMode:  ssl,
	})
	require.NoError(t, err, "connect db")
	return db
}

func newPGEnv(t *testing.T, ctx context.Context) *pgEnv {
	t.Helper()

	db := connectTestDB(t, ctx)
	t.Cleanup(func() { _ = db.Close() })

	runner := migration.Runner{FS: migrations.FS, Logger: quiet}
	require.NoError(t, runner.Run(ctx, db.SQLDB()), "run migrations")

	e := &pgEnv{
		db:      db,
		jobs:    repository.NewPostgresJobRepository(db),
		apps:    repository.NewPostgresApplicationRepository(db),
		profile: repository.NewPostgresApplicantRepository(db),
	}
	engine := scoring.NewEngine(scoring.DefaultRules())
	e.status = usecase.NewStatusEngine(e.apps, nil, quiet)
	e.appsUC = usecase.NewApplicationUsecase(e.jobs, e.apps, e.profile, nil, quiet)
	e.jobsUC = usecase.NewJobUsecase(e.jobs, repository.NewPostgresPipelineStatusRepository(db), nil, quiet)
	e.cascade = usecase.NewCascadeUsecase(e.jobs, e.apps, e.profile, e.status, engine, nil, nil,
		usecase.CascadeConfig{Workers: 4, MaxReroutes: 2}, quiet)
	return e
}

// cleanup removes the rows a test created; history rows go with their
// application.
func (e *pgEnv) cleanup(t *testing.T, jobIDs ...uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	for _, id := range jobIDs {
		_, _ = e.db.Exec(ctx, `DELETE FROM applications WHERE job_id = $1`, id)
		_, _ = e.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	}
}

var staff = lifecycle.Actor{ID: uuid.New(), Role: lifecycle.RoleStaff}

func (e *pgEnv) job(t *testing.T, in usecase.JobInput) lifecycle.Job {
	t.Helper()
	j, err := e.jobsUC.Create(context.Background(), in, staff)
	require.NoError(t, err)
	t.Cleanup(func() { e.cleanup(t, j.ID) })
	return j
}

func (e *pgEnv) applicant(t *testing.T, in usecase.ProfileInput) lifecycle.Actor {
	t.Helper()
	a := lifecycle.Actor{ID: uuid.New(), Role: lifecycle.RoleApplicant}
	_, err := e.appsUC.SaveProfile(context.Background(), a, in)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = e.db.Exec(context.Background(), `DELETE FROM applicant_profiles WHERE applicant_id = $1`, a.ID)
	})
	return a
}

func TestIntegration_Postgres_HirePathAndAudit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	e := newPGEnv(t, ctx)

	job := e.job(t, usecase.JobInput{Domain: "job", Title: "Go Developer", Skills: []string{"go"}})
	who := e.applicant(t, usecase.ProfileInput{Skills: []string{"go"}})

	app, err := e.appsUC.Submit(ctx, job.ID, who)
	require.NoError(t, err)

	_, err = e.appsUC.Submit(ctx, job.ID, who)
	assert.ErrorIs(t, err, lifecycle.ErrConflict)

	interview := time.Now().Add(48 * time.Hour).UTC()
	path := []struct {
		to   lifecycle.Status
		meta lifecycle.Metadata
	}{
		{lifecycle.StatusUnderReview, lifecycle.Metadata{}},
		{lifecycle.StatusShortlisted, lifecycle.Metadata{}},
		{lifecycle.StatusInterviewScheduled, lifecycle.Metadata{InterviewDate: &interview}},
		{lifecycle.StatusInterviewed, lifecycle.Metadata{}},
		{lifecycle.StatusHired, lifecycle.Metadata{NextSteps: "report monday"}},
	}
	for _, step := range path {
		app, err = e.status.Transition(ctx, app.ID, step.to, staff, step.meta)
		require.NoError(t, err, step.to)
	}
	assert.Equal(t, lifecycle.StatusHired, app.Status)

	history, err := e.apps.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, len(path)+1)
	assert.Nil(t, history[0].From)
	for i := 1; i < len(history); i++ {
		require.NotNil(t, history[i].From)
		assert.Equal(t, history[i-1].To, *history[i].From)
	}

	_, err = e.status.Transition(ctx, app.ID, lifecycle.StatusDenied, staff, lifecycle.Metadata{DenialReason: "late"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestIntegration_Postgres_ConcurrentWritersOneWins(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	e := newPGEnv(t, ctx)

	job := e.job(t, usecase.JobInput{Domain: "job", Title: "Clerk"})
	app, err := e.appsUC.Submit(ctx, job.ID, e.applicant(t, usecase.ProfileInput{}))
	require.NoError(t, err)

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.status.Transition(ctx, app.ID, lifecycle.StatusUnderReview, staff,
				lifecycle.Metadata{ExpectedStatus: lifecycle.StatusPtr(lifecycle.StatusPending)})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, lifecycle.ErrConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	history, err := e.apps.History(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestIntegration_Postgres_CloseAndReroute(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	e := newPGEnv(t, ctx)

	req := usecase.JobInput{Domain: "job", Degree: "Bachelor of Science", YearsExperience: 3, Skills: []string{"go", "docker"}}
	req.Title = "Go Developer"
	source := e.job(t, req)
	req.Title = "Backend Engineer"
	target := e.job(t, req)

	strong, err := e.appsUC.Submit(ctx, source.ID, e.applicant(t, usecase.ProfileInput{
		Degree:          "Bachelor of Science",
		YearsExperience: 4,
		Skills:          []string{"go", "docker"},
	}))
	require.NoError(t, err)
	weak, err := e.appsUC.Submit(ctx, source.ID, e.applicant(t, usecase.ProfileInput{Skills: []string{"cobol"}}))
	require.NoError(t, err)

	res, err := e.cascade.ResolveRemaining(ctx, source.ID, usecase.CascadeReroute, "position filled", staff)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Resolved)
	assert.Equal(t, 1, res.Rerouted)
	assert.Equal(t, 1, res.Denied)

	moved, err := e.apps.GetByID(ctx, strong.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, moved.JobID)
	assert.Equal(t, lifecycle.StatusPending, moved.Status)
	assert.Equal(t, 1, moved.RerouteCount)

	history, err := e.apps.History(ctx, strong.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	require.NotNil(t, last.Reason)
	assert.True(t, strings.HasPrefix(*last.Reason, "re-routed from Go Developer"), *last.Reason)

	denied, err := e.apps.GetByID(ctx, weak.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDenied, denied.Status)

	closed, err := e.jobs.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.JobClosed, closed.Status)

	// a second run finds nothing left to resolve
	again, err := e.cascade.ResolveRemaining(ctx, source.ID, usecase.CascadeReroute, "position filled", staff)
	require.NoError(t, err)
	assert.Zero(t, again.Resolved)
}

func stringsOrDefault(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
