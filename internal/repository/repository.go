package repository

import (
	"context"
	"fmt"

	"workforce-portal/internal/domain/lifecycle"

	"github.com/google/uuid"
)

type SortField string

const (
	SortByCreatedAt  SortField = "created_at"
	SortByRank       SortField = "rank"
	SortByMatchScore SortField = "match_score"
	SortByUpdatedAt  SortField = "updated_at"
)

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case "":
		return SortByCreatedAt, nil
	case SortByCreatedAt, SortByRank, SortByMatchScore, SortByUpdatedAt:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown sort field %q", lifecycle.ErrInvalidInput, s)
}

// ListOptions is the explicit filter/sort state of an application query.
// A zero Limit means no limit.
type ListOptions struct {
	Statuses        []lifecycle.Status
	ExcludeStatuses []lifecycle.Status
	SortBy          SortField
	Descending      bool
	Limit           int
	Offset          int
}

func (o ListOptions) Normalize() ListOptions {
	if o.SortBy == "" {
		o.SortBy = SortByCreatedAt
	}
	if o.Limit < 0 {
		o.Limit = 0
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

type ScoreUpdate struct {
	ApplicationID    uuid.UUID
	MatchScore       float64
	Rank             int
	EducationScore   float64
	ExperienceScore  float64
	SkillsScore      float64
	EligibilityScore float64
}

// RerouteInput moves one application to another posting. The move only
// happens while the application is still on FromJobID in status Observed
// and below MaxReroutes.
type RerouteInput struct {
	ApplicationID uuid.UUID
	FromJobID     uuid.UUID
	ToJobID       uuid.UUID
	Observed      lifecycle.Status
	MaxReroutes   int
	Entry         lifecycle.StatusHistoryEntry
}

type ApplicationRepository interface {
	Create(ctx context.Context, app lifecycle.Application, entry lifecycle.StatusHistoryEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (lifecycle.Application, error)
	ExistsForApplicant(ctx context.Context, jobID, applicantID uuid.UUID) (bool, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, opts ListOptions) ([]lifecycle.Application, error)

	// SaveTransition writes app's status fields and appends entry, only if
	// the stored status still equals observed.
	SaveTransition(ctx context.Context, app lifecycle.Application, observed lifecycle.Status, entry lifecycle.StatusHistoryEntry) error
	Reroute(ctx context.Context, in RerouteInput) (lifecycle.Application, error)
	// SaveScores replaces the job's scores: every application of the job
	// is cleared, then each update is written unless the application has
	// meanwhile moved into an excluded status.
	SaveScores(ctx context.Context, jobID uuid.UUID, exclude []lifecycle.Status, scores []ScoreUpdate) error

	History(ctx context.Context, applicationID uuid.UUID) ([]lifecycle.StatusHistoryEntry, error)
	Purge(ctx context.Context, id uuid.UUID) error
}

type JobRepository interface {
	Create(ctx context.Context, job lifecycle.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (lifecycle.Job, error)
	ListByStatus(ctx context.Context, domain lifecycle.Domain, status lifecycle.JobStatus) ([]lifecycle.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.JobStatus) (lifecycle.Job, error)
}

type ApplicantRepository interface {
	Upsert(ctx context.Context, p lifecycle.ApplicantProfile) error
	GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]lifecycle.ApplicantProfile, error)
}

func StatusStrings(in []lifecycle.Status) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}
