package dto

import (
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
)

type PipelineStatusResponseData struct {
	JobID             uuid.UUID      `json:"job_id"`
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	Ranked            int            `json:"ranked"`
	AverageMatchScore float64        `json:"average_match_score"`
	Rerouted          int            `json:"rerouted"`
}

func NewPipelineStatusResponse(s repository.PipelineSummary) PipelineStatusResponseData {
	by := make(map[string]int, len(s.ByStatus))
	for k, v := range s.ByStatus {
		by[string(k)] = v
	}
	return PipelineStatusResponseData{
		JobID:             s.JobID,
		Total:             s.Total,
		ByStatus:          by,
		Ranked:            s.Ranked,
		AverageMatchScore: s.AverageMatchScore,
		Rerouted:          s.Rerouted,
	}
}
