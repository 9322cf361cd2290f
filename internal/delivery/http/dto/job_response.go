package dto

import (
	"time"

	"workforce-portal/internal/domain/lifecycle"

	"github.com/google/uuid"
)

type JobResponse struct {
	ID              uuid.UUID `json:"id"`
	Domain          string    `json:"domain"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	Degree          string    `json:"degree"`
	Skills          []string  `json:"skills"`
	Eligibilities   []string  `json:"eligibilities"`
	YearsExperience int       `json:"years_experience"`
	Capacity        *int      `json:"capacity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewJobResponse(j lifecycle.Job) JobResponse {
	return JobResponse{
		ID:              j.ID,
		Domain:          string(j.Domain),
		Title:           j.Title,
		Status:          string(j.Status),
		Degree:          j.Requirements.Degree,
		Skills:          orEmpty(j.Requirements.Skills),
		Eligibilities:   orEmpty(j.Requirements.Eligibilities),
		YearsExperience: j.Requirements.YearsExperience,
		Capacity:        j.Capacity,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

type ProfileResponse struct {
	ApplicantID     uuid.UUID `json:"applicant_id"`
	Degree          string    `json:"degree"`
	YearsExperience int       `json:"years_experience"`
	Skills          []string  `json:"skills"`
	Eligibilities   []string  `json:"eligibilities"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewProfileResponse(p lifecycle.ApplicantProfile) ProfileResponse {
	return ProfileResponse{
		ApplicantID:     p.ApplicantID,
		Degree:          p.Degree,
		YearsExperience: p.YearsExperience,
		Skills:          orEmpty(p.Skills),
		Eligibilities:   orEmpty(p.Eligibilities),
		UpdatedAt:       p.UpdatedAt,
	}
}

type TransitionsResponse struct {
	Domain string   `json:"domain"`
	Status string   `json:"status"`
	Next   []string `json:"next"`
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
