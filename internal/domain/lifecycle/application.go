package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Application struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	ApplicantID uuid.UUID
	Domain      Domain
	Status      Status

	MatchScore       *float64
	Rank             *int
	EducationScore   *float64
	ExperienceScore  *float64
	SkillsScore      *float64
	EligibilityScore *float64

	RerouteCount  int
	DenialReason  *string
	NextSteps     *string
	HRNotes       *string
	InterviewDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusHistoryEntry is one immutable row of an application's audit log.
type StatusHistoryEntry struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	From          *Status
	To            Status
	ChangedAt     time.Time
	ChangedBy     *uuid.UUID
	Reason        *string
}

// ReplayStatus folds the history in order. An empty log yields initial.
func ReplayStatus(initial Status, entries []StatusHistoryEntry) Status {
	cur := initial
	for _, e := range entries {
		cur = e.To
	}
	return cur
}

type Requirements struct {
	Degree          string
	Skills          []string
	Eligibilities   []string
	YearsExperience int
}

type Job struct {
	ID           uuid.UUID
	Domain       Domain
	Title        string
	Requirements Requirements
	Status       JobStatus
	Capacity     *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ApplicantProfile struct {
	ApplicantID     uuid.UUID
	Degree          string
	YearsExperience int
	Skills          []string
	Eligibilities   []string
	UpdatedAt       time.Time
}

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleStaff     Role = "staff"
	RoleAdmin     Role = "admin"
	RoleSystem    Role = "system"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleApplicant, RoleStaff, RoleAdmin, RoleSystem:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

type Actor struct {
	ID   uuid.UUID
	Role Role
}

func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

// ChangedBy is the audit identity of the actor; system changes have none.
func (a Actor) ChangedBy() *uuid.UUID {
	if a.Role == RoleSystem || a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// Authorize enforces who may request which target: applicants may only
// withdraw their own application, everybody else may do anything but
// withdraw.
func Authorize(actor Actor, app Application, target Status) error {
	switch actor.Role {
	case RoleApplicant:
		if target != StatusWithdrawn {
			return fmt.Errorf("%w: applicants may only withdraw an application", ErrForbidden)
		}
		if actor.ID != app.ApplicantID {
			return fmt.Errorf("%w: application belongs to another applicant", ErrForbidden)
		}
		return nil
	case RoleStaff, RoleAdmin, RoleSystem:
		if target == StatusWithdrawn {
			return fmt.Errorf("%w: %s -> %s can only be requested by the applicant", ErrInvalidTransition, app.Status, target)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown role %q", ErrForbidden, actor.Role)
	}
}

// Metadata carries the optional inputs of a transition request.
type Metadata struct {
	ExpectedStatus *Status
	Reason         string
	DenialReason   string
	InterviewDate  *time.Time
	NextSteps      string
	HRNotes        string
}

// ValidateMetadata checks the fields a target status requires.
func ValidateMetadata(target Status, meta Metadata, now time.Time) error {
	switch target {
	case StatusDenied:
		if strings.TrimSpace(meta.DenialReason) == "" {
			return fmt.Errorf("%w: denial_reason is required to deny an application", ErrMissingMetadata)
		}
	case StatusInterviewScheduled:
		if meta.InterviewDate == nil || meta.InterviewDate.IsZero() {
			return fmt.Errorf("%w: interview_date is required to schedule an interview", ErrMissingMetadata)
		}
		if !meta.InterviewDate.After(now) {
			return fmt.Errorf("%w: interview_date must be in the future", ErrMissingMetadata)
		}
	}
	return nil
}

// Event is published after every successful mutation so the notification
// side can react.
type Event struct {
	Type          string         `json:"type"`
	ApplicationID *uuid.UUID     `json:"application_id,omitempty"`
	JobID         *uuid.UUID     `json:"job_id,omitempty"`
	From          string         `json:"from,omitempty"`
	To            string         `json:"to,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

const (
	EventStatusChanged       = "status_changed"
	EventApplicationRerouted = "application_rerouted"
	EventApplicationCreated  = "application_created"
	EventJobStatusChanged    = "job_status_changed"
	EventCascadeCompleted    = "cascade_completed"
	EventPoolRanked          = "pool_ranked"
	EventApplicationPurged   = "application_purged"
)

func strPtr(s string) *string {
	return &s
}

// StringPtr returns nil for blank strings.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strPtr(s)
}
