package repository

import (
	"context"
	"time"

	"workforce-portal/internal/database"
	"workforce-portal/internal/domain/lifecycle"

	"github.com/google/uuid"
)

var _ ApplicantRepository = (*PostgresApplicantRepository)(nil)

type PostgresApplicantRepository struct {
	db database.DB
}

func NewPostgresApplicantRepository(db database.DB) *PostgresApplicantRepository {
	return &PostgresApplicantRepository{db: db}
}

func (r *PostgresApplicantRepository) Upsert(ctx context.Context, p lifecycle.ApplicantProfile) error {
	if p.ApplicantID == uuid.Nil {
		return nil
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO applicant_profiles (applicant_id, degree, years_experience, skills, eligibilities, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (applicant_id) DO UPDATE SET
			degree = EXCLUDED.degree,
			years_experience = EXCLUDED.years_experience,
			skills = EXCLUDED.skills,
			eligibilities = EXCLUDED.eligibilities,
			updated_at = EXCLUDED.updated_at`,
		p.ApplicantID, p.Degree, p.YearsExperience, nonNil(p.Skills), nonNil(p.Eligibilities), p.UpdatedAt,
	)
	return err
}

func (r *PostgresApplicantRepository) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]lifecycle.ApplicantProfile, error) {
	out := make(map[uuid.UUID]lifecycle.ApplicantProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT applicant_id, degree, years_experience, skills, eligibilities, updated_at
		 FROM applicant_profiles
		 WHERE applicant_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p lifecycle.ApplicantProfile
		if err := rows.Scan(&p.ApplicantID, &p.Degree, &p.YearsExperience, &p.Skills, &p.Eligibilities, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ApplicantID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
