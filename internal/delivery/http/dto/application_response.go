package dto

import (
	"time"

	"workforce-portal/internal/domain/lifecycle"

	"github.com/google/uuid"
)

type ApplicationResponse struct {
	ID               uuid.UUID  `json:"id"`
	JobID            uuid.UUID  `json:"job_id"`
	ApplicantID      uuid.UUID  `json:"applicant_id"`
	Domain           string     `json:"domain"`
	Status           string     `json:"status"`
	MatchScore       *float64   `json:"match_score"`
	Rank             *int       `json:"rank"`
	EducationScore   *float64   `json:"education_score"`
	ExperienceScore  *float64   `json:"experience_score"`
	SkillsScore      *float64   `json:"skills_score"`
	EligibilityScore *float64   `json:"eligibility_score"`
	RerouteCount     int        `json:"reroute_count"`
	DenialReason     *string    `json:"denial_reason,omitempty"`
	NextSteps        *string    `json:"next_steps,omitempty"`
	HRNotes          *string    `json:"hr_notes,omitempty"`
	InterviewDate    *time.Time `json:"interview_date,omitempty"`
	ValidTransitions []string   `json:"valid_transitions"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func NewApplicationResponse(a lifecycle.Application) ApplicationResponse {
	next := lifecycle.ValidTransitions(a.Domain, a.Status)
	names := make([]string, 0, len(next))
	for _, s := range next {
		names = append(names, string(s))
	}
	return ApplicationResponse{
		ID:               a.ID,
		JobID:            a.JobID,
		ApplicantID:      a.ApplicantID,
		Domain:           string(a.Domain),
		Status:           string(a.Status),
		MatchScore:       a.MatchScore,
		Rank:             a.Rank,
		EducationScore:   a.EducationScore,
		ExperienceScore:  a.ExperienceScore,
		SkillsScore:      a.SkillsScore,
		EligibilityScore: a.EligibilityScore,
		RerouteCount:     a.RerouteCount,
		DenialReason:     a.DenialReason,
		NextSteps:        a.NextSteps,
		HRNotes:          a.HRNotes,
		InterviewDate:    a.InterviewDate,
		ValidTransitions: names,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

type HistoryEntryResponse struct {
	ID        uuid.UUID  `json:"id"`
	From      *string    `json:"from_status"`
	To        string     `json:"to_status"`
	ChangedAt time.Time  `json:"changed_at"`
	ChangedBy *uuid.UUID `json:"changed_by"`
	Reason    *string    `json:"reason,omitempty"`
}

func NewHistoryResponse(entries []lifecycle.StatusHistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		var from *string
		if e.From != nil {
			s := string(*e.From)
			from = &s
		}
		out = append(out, HistoryEntryResponse{
			ID:        e.ID,
			From:      from,
			To:        string(e.To),
			ChangedAt: e.ChangedAt,
			ChangedBy: e.ChangedBy,
			Reason:    e.Reason,
		})
	}
	return out
}
