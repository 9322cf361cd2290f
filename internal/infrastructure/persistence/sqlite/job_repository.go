package sqlite

import (
	"context"
	"errors"
	"fmt"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ repository.JobRepository = (*JobRepository)(nil)

type JobRepository struct {
	db *gorm.DB
}

func (r *JobRepository) Create(ctx context.Context, j lifecycle.Job) error {
	m := toJobModel(j)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: job %s already exists", lifecycle.ErrConflict, j.ID)
		}
		return err
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (lifecycle.Job, error) {
	return getJob(r.db.WithContext(ctx), id)
}

func getJob(db *gorm.DB, id uuid.UUID) (lifecycle.Job, error) {
	var m jobModel
	if err := db.Where("id = ?", id.String()).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lifecycle.Job{}, notFound("job", id)
		}
		return lifecycle.Job{}, err
	}
	return m.toDomain(), nil
}

func (r *JobRepository) ListByStatus(ctx context.Context, domain lifecycle.Domain, status lifecycle.JobStatus) ([]lifecycle.Job, error) {
	var ms []jobModel
	err := r.db.WithContext(ctx).
		Where("domain = ? AND status = ?", string(domain), string(status)).
		Order("created_at ASC, id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	out := make([]lifecycle.Job, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.JobStatus) (lifecycle.Job, error) {
	var out lifecycle.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&jobModel{}).
			Where("id = ? AND status = ?", id.String(), string(from)).
			Updates(map[string]any{"status": string(to), "updated_at": tx.NowFunc()})
		if res.Error != nil {
			return res.Error
		}

		cur, err := getJob(tx, id)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: job %s is %s, expected %s", lifecycle.ErrConflict, id, cur.Status, from)
		}
		out = cur
		return nil
	})
	if err != nil {
		return lifecycle.Job{}, err
	}
	return out, nil
}
