package sqlite

import (
	"context"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ repository.PipelineStatusRepository = (*PipelineStatusRepository)(nil)

type PipelineStatusRepository struct {
	db *gorm.DB
}

func (r *PipelineStatusRepository) GetJobSummary(ctx context.Context, jobID uuid.UUID) (repository.PipelineSummary, error) {
	out := repository.PipelineSummary{JobID: jobID, ByStatus: map[lifecycle.Status]int{}}

	var counts []struct {
		Status string
		N      int
	}
	err := r.db.WithContext(ctx).Model(&applicationModel{}).
		Select("status, COUNT(1) AS n").
		Where("job_id = ?", jobID.String()).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return repository.PipelineSummary{}, err
	}
	for _, c := range counts {
		out.ByStatus[lifecycle.Status(c.Status)] = c.N
		out.Total += c.N
	}

	var agg struct {
		Ranked   int
		Average  float64
		Rerouted int
	}
	err = r.db.WithContext(ctx).Model(&applicationModel{}).
		Select("COUNT(match_score) AS ranked, COALESCE(AVG(match_score), 0) AS average, COALESCE(SUM(CASE WHEN reroute_count > 0 THEN 1 ELSE 0 END), 0) AS rerouted").
		Where("job_id = ?", jobID.String()).
		Scan(&agg).Error
	if err != nil {
		return repository.PipelineSummary{}, err
	}
	out.Ranked = agg.Ranked
	out.AverageMatchScore = agg.Average
	out.Rerouted = agg.Rerouted
	return out, nil
}
