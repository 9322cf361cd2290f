package repository

import (
	"context"
	"fmt"

	"workforce-portal/internal/database"
	"workforce-portal/internal/domain/lifecycle"

	"github.com/google/uuid"
)

const jobColumns = `id, domain, title, degree, skills, eligibilities, years_experience, status, capacity, created_at, updated_at`

var _ JobRepository = (*PostgresJobRepository)(nil)

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) Create(ctx context.Context, j lifecycle.Job) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		j.ID, string(j.Domain), j.Title, j.Requirements.Degree, nonNil(j.Requirements.Skills), nonNil(j.Requirements.Eligibilities),
		j.Requirements.YearsExperience, string(j.Status), j.Capacity, j.CreatedAt, j.UpdatedAt,
	)
	return err
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (lifecycle.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return lifecycle.Job{}, fmt.Errorf("%w: job %s", lifecycle.ErrNotFound, id)
		}
		return lifecycle.Job{}, err
	}
	return j, nil
}

func (r *PostgresJobRepository) ListByStatus(ctx context.Context, domain lifecycle.Domain, status lifecycle.JobStatus) ([]lifecycle.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE domain = $1 AND status = $2 ORDER BY created_at ASC, id ASC`,
		string(domain), string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lifecycle.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.JobStatus) (lifecycle.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx,
		`UPDATE jobs SET status = $2, updated_at = now() WHERE id = $1 AND status = $3 RETURNING `+jobColumns,
		id, string(to), string(from),
	))
	if err == nil {
		return j, nil
	}
	if !isNoRows(err) {
		return lifecycle.Job{}, err
	}

	cur, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return lifecycle.Job{}, getErr
	}
	return lifecycle.Job{}, fmt.Errorf("%w: job %s is %s, expected %s", lifecycle.ErrConflict, id, cur.Status, from)
}

func scanJob(row database.Row) (lifecycle.Job, error) {
	var (
		j              lifecycle.Job
		domain, status string
	)
	err := row.Scan(
		&j.ID, &domain, &j.Title, &j.Requirements.Degree, &j.Requirements.Skills, &j.Requirements.Eligibilities,
		&j.Requirements.YearsExperience, &status, &j.Capacity, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return lifecycle.Job{}, err
	}
	j.Domain = lifecycle.Domain(domain)
	j.Status = lifecycle.JobStatus(status)
	return j, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
