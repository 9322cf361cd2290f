package repository

import (
	"context"

	"workforce-portal/internal/database"
	"workforce-portal/internal/domain/lifecycle"

	"github.com/google/uuid"
)

// PipelineSummary is a per-posting snapshot of where applications sit.
type PipelineSummary struct {
	JobID             uuid.UUID
	Total             int
	ByStatus          map[lifecycle.Status]int
	Ranked            int
	AverageMatchScore float64
	Rerouted          int
}

type PipelineStatusRepository interface {
	GetJobSummary(ctx context.Context, jobID uuid.UUID) (PipelineSummary, error)
}

var _ PipelineStatusRepository = (*PostgresPipelineStatusRepository)(nil)

type PostgresPipelineStatusRepository struct {
	db database.DB
}

func NewPostgresPipelineStatusRepository(db database.DB) *PostgresPipelineStatusRepository {
	return &PostgresPipelineStatusRepository{db: db}
}

func (r *PostgresPipelineStatusRepository) GetJobSummary(ctx context.Context, jobID uuid.UUID) (PipelineSummary, error) {
	out := PipelineSummary{JobID: jobID, ByStatus: map[lifecycle.Status]int{}}

	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(1)
		 FROM applications
		 WHERE job_id = $1
		 GROUP BY status`,
		jobID,
	)
	if err != nil {
		return PipelineSummary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			cnt    int
		)
		if err := rows.Scan(&status, &cnt); err != nil {
			return PipelineSummary{}, err
		}
		out.ByStatus[lifecycle.Status(status)] = cnt
		out.Total += cnt
	}
	if err := rows.Err(); err != nil {
		return PipelineSummary{}, err
	}

	row := r.db.QueryRow(ctx,
		`SELECT COUNT(match_score), COALESCE(AVG(match_score), 0), COUNT(1) FILTER (WHERE reroute_count > 0)
		 FROM applications
		 WHERE job_id = $1`,
		jobID,
	)
	if err := row.Scan(&out.Ranked, &out.AverageMatchScore, &out.Rerouted); err != nil {
		return PipelineSummary{}, err
	}

	return out, nil
}
