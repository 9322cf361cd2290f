package sqlite

import (
	"time"

	"workforce-portal/internal/domain/lifecycle"

	"github.com/google/uuid"
)

type jobModel struct {
	ID              string    `gorm:"type:text;primaryKey"`
	Domain          string    `gorm:"type:text;not null;index:idx_jobs_domain_status"`
	Title           string    `gorm:"type:text;not null"`
	Degree          string    `gorm:"type:text;not null;default:''"`
	Skills          []string  `gorm:"type:text;serializer:json"`
	Eligibilities   []string  `gorm:"type:text;serializer:json"`
	YearsExperience int       `gorm:"not null;default:0"`
	Status          string    `gorm:"type:text;not null;index:idx_jobs_domain_status"`
	Capacity        *int
	CreatedAt       time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false"`
}

func (jobModel) TableName() string { return "jobs" }

type applicantProfileModel struct {
	ApplicantID     string    `gorm:"type:text;primaryKey"`
	Degree          string    `gorm:"type:text;not null;default:''"`
	YearsExperience int       `gorm:"not null;default:0"`
	Skills          []string  `gorm:"type:text;serializer:json"`
	Eligibilities   []string  `gorm:"type:text;serializer:json"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false"`
}

func (applicantProfileModel) TableName() string { return "applicant_profiles" }

type applicationModel struct {
	ID          string `gorm:"type:text;primaryKey"`
	JobID       string `gorm:"type:text;not null;uniqueIndex:idx_applications_job_applicant;index:idx_applications_job_status"`
	ApplicantID string `gorm:"type:text;not null;uniqueIndex:idx_applications_job_applicant"`
	Domain      string `gorm:"type:text;not null"`
	Status      string `gorm:"type:text;not null;index:idx_applications_job_status"`

	MatchScore       *float64
	Rank             *int
	EducationScore   *float64
	ExperienceScore  *float64
	SkillsScore      *float64
	EligibilityScore *float64

	RerouteCount  int `gorm:"not null;default:0"`
	DenialReason  *string
	NextSteps     *string
	HRNotes       *string `gorm:"column:hr_notes"`
	InterviewDate *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (applicationModel) TableName() string { return "applications" }

type statusHistoryModel struct {
	Seq           int64     `gorm:"primaryKey;autoIncrement"`
	ID            string    `gorm:"type:text;not null;uniqueIndex"`
	ApplicationID string    `gorm:"type:text;not null;index:idx_status_history_application"`
	FromStatus    *string   `gorm:"type:text"`
	ToStatus      string    `gorm:"type:text;not null"`
	ChangedAt     time.Time `gorm:"not null;index:idx_status_history_application"`
	ChangedBy     *string   `gorm:"type:text"`
	Reason        *string
}

func (statusHistoryModel) TableName() string { return "application_status_history" }

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func idPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toJobModel(j lifecycle.Job) jobModel {
	return jobModel{
		ID:              j.ID.String(),
		Domain:          string(j.Domain),
		Title:           j.Title,
		Degree:          j.Requirements.Degree,
		Skills:          nonNil(j.Requirements.Skills),
		Eligibilities:   nonNil(j.Requirements.Eligibilities),
		YearsExperience: j.Requirements.YearsExperience,
		Status:          string(j.Status),
		Capacity:        j.Capacity,
		CreatedAt:       j.CreatedAt.UTC(),
		UpdatedAt:       j.UpdatedAt.UTC(),
	}
}

func (m jobModel) toDomain() lifecycle.Job {
	return lifecycle.Job{
		ID:     parseID(m.ID),
		Domain: lifecycle.Domain(m.Domain),
		Title:  m.Title,
		Requirements: lifecycle.Requirements{
			Degree:          m.Degree,
			Skills:          nonNil(m.Skills),
			Eligibilities:   nonNil(m.Eligibilities),
			YearsExperience: m.YearsExperience,
		},
		Status:    lifecycle.JobStatus(m.Status),
		Capacity:  m.Capacity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toProfileModel(p lifecycle.ApplicantProfile) applicantProfileModel {
	return applicantProfileModel{
		ApplicantID:     p.ApplicantID.String(),
		Degree:          p.Degree,
		YearsExperience: p.YearsExperience,
		Skills:          nonNil(p.Skills),
		Eligibilities:   nonNil(p.Eligibilities),
		UpdatedAt:       p.UpdatedAt.UTC(),
	}
}

func (m applicantProfileModel) toDomain() lifecycle.ApplicantProfile {
	return lifecycle.ApplicantProfile{
		ApplicantID:     parseID(m.ApplicantID),
		Degree:          m.Degree,
		YearsExperience: m.YearsExperience,
		Skills:          nonNil(m.Skills),
		Eligibilities:   nonNil(m.Eligibilities),
		UpdatedAt:       m.UpdatedAt,
	}
}

func toApplicationModel(a lifecycle.Application) applicationModel {
	return applicationModel{
		ID:               a.ID.String(),
		JobID:            a.JobID.String(),
		ApplicantID:      a.ApplicantID.String(),
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
		InterviewDate:    utcPtr(a.InterviewDate),
		CreatedAt:        a.CreatedAt.UTC(),
		UpdatedAt:        a.UpdatedAt.UTC(),
	}
}

func (m applicationModel) toDomain() lifecycle.Application {
	return lifecycle.Application{
		ID:               parseID(m.ID),
		JobID:            parseID(m.JobID),
		ApplicantID:      parseID(m.ApplicantID),
		Domain:           lifecycle.Domain(m.Domain),
		Status:           lifecycle.Status(m.Status),
		MatchScore:       m.MatchScore,
		Rank:             m.Rank,
		EducationScore:   m.EducationScore,
		ExperienceScore:  m.ExperienceScore,
		SkillsScore:      m.SkillsScore,
		EligibilityScore: m.EligibilityScore,
		RerouteCount:     m.RerouteCount,
		DenialReason:     m.DenialReason,
		NextSteps:        m.NextSteps,
		HRNotes:          m.HRNotes,
		InterviewDate:    m.InterviewDate,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toHistoryModel(e lifecycle.StatusHistoryEntry) statusHistoryModel {
	var from *string
	if e.From != nil {
		s := string(*e.From)
		from = &s
	}
	return statusHistoryModel{
		ID:            e.ID.String(),
		ApplicationID: e.ApplicationID.String(),
		FromStatus:    from,
		ToStatus:      string(e.To),
		ChangedAt:     e.ChangedAt.UTC(),
		ChangedBy:     idPtr(e.ChangedBy),
		Reason:        e.Reason,
	}
}

func (m statusHistoryModel) toDomain() lifecycle.StatusHistoryEntry {
	e := lifecycle.StatusHistoryEntry{
		ID:            parseID(m.ID),
		ApplicationID: parseID(m.ApplicationID),
		To:            lifecycle.Status(m.ToStatus),
		ChangedAt:     m.ChangedAt,
		Reason:        m.Reason,
	}
	if m.FromStatus != nil {
		e.From = lifecycle.StatusPtr(lifecycle.Status(*m.FromStatus))
	}
	if m.ChangedBy != nil {
		id := parseID(*m.ChangedBy)
		e.ChangedBy = &id
	}
	return e
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
