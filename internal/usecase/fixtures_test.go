package usecase

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/infrastructure/persistence/sqlite"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	quietLog = log.New(io.Discard, "", 0)
	t0       = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	staff    = lifecycle.Actor{ID: uuid.New(), Role: lifecycle.RoleStaff}
	admin    = lifecycle.Actor{ID: uuid.New(), Role: lifecycle.RoleAdmin}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev lifecycle.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) ofType(typ string) []lifecycle.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []lifecycle.Event
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type memCache struct {
	mu    sync.Mutex
	items map[string]any
	gets  int
}

func newMemCache() *memCache { return &memCache{items: map[string]any{}} }

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.items[key]
	if !ok {
		return false, nil
	}
	*(out.(*RankedPool)) = v.(RankedPool)
	return true, nil
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

type env struct {
	store  *sqlite.Store
	events *recordingPublisher
	status *StatusEngine
	apps   *Applications
	jobs   *Jobs
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := sqlite.Open(":memory:", quietLog)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pub := &recordingPublisher{}
	return &env{
		store:  s,
		events: pub,
		status: NewStatusEngine(s.Applications, pub, quietLog),
		apps:   NewApplicationUsecase(s.Jobs, s.Applications, s.Applicants, pub, quietLog),
		jobs:   NewJobUsecase(s.Jobs, s.Pipeline, pub, quietLog),
	}
}

func (e *env) cascade(cfg CascadeConfig) *Cascade {
	return NewCascadeUsecase(e.store.Jobs, e.store.Applications, e.store.Applicants, e.status, nil, nil, e.events, cfg, quietLog)
}

type jobSpec struct {
	title    string
	domain   lifecycle.Domain
	degree   string
	skills   []string
	years    int
	capacity *int
	created  time.Time
}

func (e *env) seedJob(t *testing.T, js jobSpec) lifecycle.Job {
	t.Helper()
	if js.domain == "" {
		js.domain = lifecycle.DomainJob
	}
	if js.created.IsZero() {
		js.created = t0
	}
	j := lifecycle.Job{
		ID:     uuid.New(),
		Domain: js.domain,
		Title:  js.title,
		Requirements: lifecycle.Requirements{
			Degree:          js.degree,
			Skills:          js.skills,
			YearsExperience: js.years,
		},
		Status:    lifecycle.JobActive,
		Capacity:  js.capacity,
		CreatedAt: js.created,
		UpdatedAt: js.created,
	}
	require.NoError(t, e.store.Jobs.Create(context.Background(), j))
	return j
}

func (e *env) applicant(t *testing.T, in ProfileInput) lifecycle.Actor {
	t.Helper()
	a := lifecycle.Actor{ID: uuid.New(), Role: lifecycle.RoleApplicant}
	_, err := e.apps.SaveProfile(context.Background(), a, in)
	require.NoError(t, err)
	return a
}

func (e *env) submit(t *testing.T, job lifecycle.Job, who lifecycle.Actor) lifecycle.Application {
	t.Helper()
	app, err := e.apps.Submit(context.Background(), job.ID, who)
	require.NoError(t, err)
	return app
}

func (e *env) move(t *testing.T, id uuid.UUID, to lifecycle.Status, meta lifecycle.Metadata) lifecycle.Application {
	t.Helper()
	app, err := e.status.Transition(context.Background(), id, to, staff, meta)
	require.NoError(t, err)
	return app
}

func intPtr(v int) *int { return &v }

var goProfile = ProfileInput{
	Degree:          "Bachelor of Science",
	YearsExperience: 4,
	Skills:          []string{"go", "postgresql", "docker"},
}
