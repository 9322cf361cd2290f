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

var _ repository.ApplicationRepository = (*ApplicationRepository)(nil)

type ApplicationRepository struct {
	db *gorm.DB
}

func (r *ApplicationRepository) Create(ctx context.Context, app lifecycle.Application, entry lifecycle.StatusHistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := toApplicationModel(app)
		if err := tx.Create(&m).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%w: applicant already applied to this posting", lifecycle.ErrConflict)
			}
			return err
		}
		h := toHistoryModel(entry)
		return tx.Create(&h).Error
	})
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (lifecycle.Application, error) {
	return getApplication(r.db.WithContext(ctx), id)
}

func getApplication(db *gorm.DB, id uuid.UUID) (lifecycle.Application, error) {
	var m applicationModel
	if err := db.Where("id = ?", id.String()).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lifecycle.Application{}, notFound("application", id)
		}
		return lifecycle.Application{}, err
	}
	return m.toDomain(), nil
}

func (r *ApplicationRepository) ExistsForApplicant(ctx context.Context, jobID, applicantID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&applicationModel{}).
		Where("job_id = ? AND applicant_id = ?", jobID.String(), applicantID.String()).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID, opts repository.ListOptions) ([]lifecycle.Application, error) {
	opts = opts.Normalize()

	q := r.db.WithContext(ctx).Where("job_id = ?", jobID.String())
	if len(opts.Statuses) > 0 {
		q = q.Where("status IN ?", repository.StatusStrings(opts.Statuses))
	}
	if len(opts.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", repository.StatusStrings(opts.ExcludeStatuses))
	}
	q = q.Order(orderClause(opts))
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var ms []applicationModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]lifecycle.Application, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func orderClause(opts repository.ListOptions) string {
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}
	switch opts.SortBy {
	case repository.SortByRank:
		return "rank " + dir + " NULLS LAST, created_at ASC, id ASC"
	case repository.SortByMatchScore:
		return "match_score " + dir + " NULLS LAST, created_at ASC, id ASC"
	case repository.SortByUpdatedAt:
		return "updated_at " + dir + ", id ASC"
	default:
		return "created_at " + dir + ", id ASC"
	}
}

func (r *ApplicationRepository) SaveTransition(ctx context.Context, app lifecycle.Application, observed lifecycle.Status, entry lifecycle.StatusHistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&applicationModel{}).
			Where("id = ? AND status = ?", app.ID.String(), string(observed)).
			Updates(map[string]any{
				"status":         string(app.Status),
				"denial_reason":  app.DenialReason,
				"next_steps":     app.NextSteps,
				"hr_notes":       app.HRNotes,
				"interview_date": utcPtr(app.InterviewDate),
				"updated_at":     app.UpdatedAt.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrConflict(tx, app.ID, observed)
		}
		h := toHistoryModel(entry)
		return tx.Create(&h).Error
	})
}

func (r *ApplicationRepository) Reroute(ctx context.Context, in repository.RerouteInput) (lifecycle.Application, error) {
	var out lifecycle.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target jobModel
		err := tx.Where("id = ? AND status = ?", in.ToJobID.String(), string(lifecycle.JobActive)).Take(&target).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: target job %s is not active", lifecycle.ErrInvalidJobState, in.ToJobID)
			}
			return err
		}

		if target.Capacity != nil {
			var open int64
			err := tx.Model(&applicationModel{}).
				Where("job_id = ? AND status IN ?", target.ID, repository.StatusStrings(lifecycle.PipelineStatuses(lifecycle.Domain(target.Domain)))).
				Count(&open).Error
			if err != nil {
				return err
			}
			if open >= int64(*target.Capacity) {
				return fmt.Errorf("%w: job %s holds %d of %d", lifecycle.ErrCapacityReached, in.ToJobID, open, *target.Capacity)
			}
		}

		res := tx.Model(&applicationModel{}).
			Where("id = ? AND job_id = ? AND status = ? AND reroute_count < ?",
				in.ApplicationID.String(), in.FromJobID.String(), string(in.Observed), in.MaxReroutes).
			Updates(map[string]any{
				"job_id":            in.ToJobID.String(),
				"status":            string(lifecycle.StatusPending),
				"reroute_count":     gorm.Expr("reroute_count + 1"),
				"match_score":       nil,
				"rank":              nil,
				"education_score":   nil,
				"experience_score":  nil,
				"skills_score":      nil,
				"eligibility_score": nil,
				"updated_at":        in.Entry.ChangedAt.UTC(),
			})
		if res.Error != nil {
			if isDuplicate(res.Error) {
				return fmt.Errorf("%w: applicant already applied to job %s", lifecycle.ErrConflict, in.ToJobID)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrConflict(tx, in.ApplicationID, in.Observed)
		}

		h := toHistoryModel(in.Entry)
		if err := tx.Create(&h).Error; err != nil {
			return err
		}

		app, err := getApplication(tx, in.ApplicationID)
		if err != nil {
			return err
		}
		out = app
		return nil
	})
	if err != nil {
		return lifecycle.Application{}, err
	}
	return out, nil
}

func (r *ApplicationRepository) SaveScores(ctx context.Context, jobID uuid.UUID, exclude []lifecycle.Status, scores []repository.ScoreUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&applicationModel{}).
			Where("job_id = ? AND (rank IS NOT NULL OR match_score IS NOT NULL)", jobID.String()).
			Updates(map[string]any{
				"match_score":       nil,
				"rank":              nil,
				"education_score":   nil,
				"experience_score":  nil,
				"skills_score":      nil,
				"eligibility_score": nil,
			}).Error
		if err != nil {
			return err
		}

		for _, s := range scores {
			q := tx.Model(&applicationModel{}).
				Where("id = ? AND job_id = ?", s.ApplicationID.String(), jobID.String())
			if len(exclude) > 0 {
				q = q.Where("status NOT IN ?", repository.StatusStrings(exclude))
			}
			err := q.Updates(map[string]any{
				"match_score":       s.MatchScore,
				"rank":              s.Rank,
				"education_score":   s.EducationScore,
				"experience_score":  s.ExperienceScore,
				"skills_score":      s.SkillsScore,
				"eligibility_score": s.EligibilityScore,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ApplicationRepository) History(ctx context.Context, applicationID uuid.UUID) ([]lifecycle.StatusHistoryEntry, error) {
	var ms []statusHistoryModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID.String()).
		Order("changed_at ASC, seq ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	out := make([]lifecycle.StatusHistoryEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *ApplicationRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", id.String()).Delete(&statusHistoryModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id.String()).Delete(&applicationModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("application", id)
		}
		return nil
	})
}

func missingOrConflict(tx *gorm.DB, id uuid.UUID, observed lifecycle.Status) error {
	cur, err := getApplication(tx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: application %s is %s, expected %s", lifecycle.ErrConflict, id, cur.Status, observed)
}
