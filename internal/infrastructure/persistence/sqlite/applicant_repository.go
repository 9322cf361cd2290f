package sqlite

import (
	"context"
	"time"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ repository.ApplicantRepository = (*ApplicantRepository)(nil)

type ApplicantRepository struct {
	db *gorm.DB
}

func (r *ApplicantRepository) Upsert(ctx context.Context, p lifecycle.ApplicantProfile) error {
	if p.ApplicantID == uuid.Nil {
		return nil
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	m := toProfileModel(p)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "applicant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"degree", "years_experience", "skills", "eligibilities", "updated_at"}),
	}).Create(&m).Error
}

func (r *ApplicantRepository) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]lifecycle.ApplicantProfile, error) {
	out := make(map[uuid.UUID]lifecycle.ApplicantProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	var ms []applicantProfileModel
	if err := r.db.WithContext(ctx).Where("applicant_id IN ?", keys).Find(&ms).Error; err != nil {
		return nil, err
	}
	for _, m := range ms {
		p := m.toDomain()
		out[p.ApplicantID] = p
	}
	return out, nil
}
