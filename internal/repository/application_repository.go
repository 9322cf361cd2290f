package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"workforce-portal/internal/database"
	"workforce-portal/internal/domain/lifecycle"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const applicationColumns = `id, job_id, applicant_id, domain, status,
	match_score, rank, education_score, experience_score, skills_score, eligibility_score,
	reroute_count, denial_reason, next_steps, hr_notes, interview_date, created_at, updated_at`

var _ ApplicationRepository = (*PostgresApplicationRepository)(nil)

type PostgresApplicationRepository struct {
	db database.DB
}

func NewPostgresApplicationRepository(db database.DB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

func (r *PostgresApplicationRepository) Create(ctx context.Context, app lifecycle.Application, entry lifecycle.StatusHistoryEntry) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO applications (`+applicationColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
			app.ID, app.JobID, app.ApplicantID, string(app.Domain), string(app.Status),
			app.MatchScore, app.Rank, app.EducationScore, app.ExperienceScore, app.SkillsScore, app.EligibilityScore,
			app.RerouteCount, app.DenialReason, app.NextSteps, app.HRNotes, app.InterviewDate, app.CreatedAt, app.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: applicant already applied to this posting", lifecycle.ErrConflict)
			}
			return err
		}
		return insertHistory(ctx, tx, entry)
	})
}

func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (lifecycle.Application, error) {
	row := r.db.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if isNoRows(err) {
			return lifecycle.Application{}, fmt.Errorf("%w: application %s", lifecycle.ErrNotFound, id)
		}
		return lifecycle.Application{}, err
	}
	return app, nil
}

func (r *PostgresApplicationRepository) ExistsForApplicant(ctx context.Context, jobID, applicantID uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE job_id = $1 AND applicant_id = $2)`,
		jobID, applicantID,
	)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresApplicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID, opts ListOptions) ([]lifecycle.Application, error) {
	opts = opts.Normalize()

	var sb strings.Builder
	args := []any{jobID}
	sb.WriteString(`SELECT ` + applicationColumns + ` FROM applications WHERE job_id = $1`)
	if len(opts.Statuses) > 0 {
		args = append(args, StatusStrings(opts.Statuses))
		fmt.Fprintf(&sb, ` AND status = ANY($%d)`, len(args))
	}
	if len(opts.ExcludeStatuses) > 0 {
		args = append(args, StatusStrings(opts.ExcludeStatuses))
		fmt.Fprintf(&sb, ` AND NOT (status = ANY($%d))`, len(args))
	}
	sb.WriteString(orderClause(opts))
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lifecycle.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func orderClause(opts ListOptions) string {
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}
	switch opts.SortBy {
	case SortByRank:
		return ` ORDER BY rank ` + dir + ` NULLS LAST, created_at ASC, id ASC`
	case SortByMatchScore:
		return ` ORDER BY match_score ` + dir + ` NULLS LAST, created_at ASC, id ASC`
	case SortByUpdatedAt:
		return ` ORDER BY updated_at ` + dir + `, id ASC`
	default:
		return ` ORDER BY created_at ` + dir + `, id ASC`
	}
}

func (r *PostgresApplicationRepository) SaveTransition(ctx context.Context, app lifecycle.Application, observed lifecycle.Status, entry lifecycle.StatusHistoryEntry) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE applications SET
				status = $2, denial_reason = $3, next_steps = $4, hr_notes = $5, interview_date = $6, updated_at = $7
			 WHERE id = $1 AND status = $8`,
			app.ID, string(app.Status), app.DenialReason, app.NextSteps, app.HRNotes, app.InterviewDate, app.UpdatedAt, string(observed),
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return missingOrConflict(ctx, tx, app.ID, observed)
		}
		return insertHistory(ctx, tx, entry)
	})
}

func (r *PostgresApplicationRepository) Reroute(ctx context.Context, in RerouteInput) (lifecycle.Application, error) {
	var out lifecycle.Application
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		var (
			domain   string
			capacity *int
		)
		row := tx.QueryRow(ctx,
			`SELECT domain, capacity FROM jobs WHERE id = $1 AND status = $2 FOR UPDATE`,
			in.ToJobID, string(lifecycle.JobActive),
		)
		if err := row.Scan(&domain, &capacity); err != nil {
			if isNoRows(err) {
				return fmt.Errorf("%w: target job %s is not active", lifecycle.ErrInvalidJobState, in.ToJobID)
			}
			return err
		}

		if capacity != nil {
			var open int
			row = tx.QueryRow(ctx,
				`SELECT COUNT(1) FROM applications WHERE job_id = $1 AND status = ANY($2)`,
				in.ToJobID, StatusStrings(lifecycle.PipelineStatuses(lifecycle.Domain(domain))),
			)
			if err := row.Scan(&open); err != nil {
				return err
			}
			if open >= *capacity {
				return fmt.Errorf("%w: job %s holds %d of %d", lifecycle.ErrCapacityReached, in.ToJobID, open, *capacity)
			}
		}

		n, err := tx.Exec(ctx,
			`UPDATE applications SET
				job_id = $2, status = $3, reroute_count = reroute_count + 1,
				match_score = NULL, rank = NULL, education_score = NULL, experience_score = NULL,
				skills_score = NULL, eligibility_score = NULL, updated_at = $4
			 WHERE id = $1 AND job_id = $5 AND status = $6 AND reroute_count < $7`,
			in.ApplicationID, in.ToJobID, string(lifecycle.StatusPending), in.Entry.ChangedAt,
			in.FromJobID, string(in.Observed), in.MaxReroutes,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: applicant already applied to job %s", lifecycle.ErrConflict, in.ToJobID)
			}
			return err
		}
		if n == 0 {
			return missingOrConflict(ctx, tx, in.ApplicationID, in.Observed)
		}
		if err := insertHistory(ctx, tx, in.Entry); err != nil {
			return err
		}

		app, err := scanApplication(tx.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, in.ApplicationID))
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

func (r *PostgresApplicationRepository) SaveScores(ctx context.Context, jobID uuid.UUID, exclude []lifecycle.Status, scores []ScoreUpdate) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE applications SET
				match_score = NULL, rank = NULL, education_score = NULL, experience_score = NULL,
				skills_score = NULL, eligibility_score = NULL
			 WHERE job_id = $1 AND (rank IS NOT NULL OR match_score IS NOT NULL)`,
			jobID,
		)
		if err != nil {
			return err
		}

		excluded := StatusStrings(exclude)
		for _, s := range scores {
			_, err := tx.Exec(ctx,
				`UPDATE applications SET
					match_score = $3, rank = $4, education_score = $5, experience_score = $6,
					skills_score = $7, eligibility_score = $8
				 WHERE id = $1 AND job_id = $2 AND NOT (status = ANY($9))`,
				s.ApplicationID, jobID, s.MatchScore, s.Rank,
				s.EducationScore, s.ExperienceScore, s.SkillsScore, s.EligibilityScore,
				excluded,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresApplicationRepository) History(ctx context.Context, applicationID uuid.UUID) ([]lifecycle.StatusHistoryEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, application_id, from_status, to_status, changed_at, changed_by, reason
		 FROM application_status_history
		 WHERE application_id = $1
		 ORDER BY changed_at ASC, seq ASC`,
		applicationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lifecycle.StatusHistoryEntry, 0)
	for rows.Next() {
		var (
			e    lifecycle.StatusHistoryEntry
			from *string
			to   string
		)
		if err := rows.Scan(&e.ID, &e.ApplicationID, &from, &to, &e.ChangedAt, &e.ChangedBy, &e.Reason); err != nil {
			return nil, err
		}
		if from != nil {
			e.From = lifecycle.StatusPtr(lifecycle.Status(*from))
		}
		e.To = lifecycle.Status(to)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresApplicationRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM application_status_history WHERE application_id = $1`, id); err != nil {
			return err
		}
		n, err := tx.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: application %s", lifecycle.ErrNotFound, id)
		}
		return nil
	})
}

func insertHistory(ctx context.Context, tx database.Tx, e lifecycle.StatusHistoryEntry) error {
	var from *string
	if e.From != nil {
		s := string(*e.From)
		from = &s
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO application_status_history (id, application_id, from_status, to_status, changed_at, changed_by, reason)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.ApplicationID, from, string(e.To), e.ChangedAt, e.ChangedBy, e.Reason,
	)
	return err
}

func missingOrConflict(ctx context.Context, tx database.Tx, id uuid.UUID, observed lifecycle.Status) error {
	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1`, id).Scan(&current); err != nil {
		if isNoRows(err) {
			return fmt.Errorf("%w: application %s", lifecycle.ErrNotFound, id)
		}
		return err
	}
	return fmt.Errorf("%w: application %s is %s, expected %s", lifecycle.ErrConflict, id, current, observed)
}

func scanApplication(row database.Row) (lifecycle.Application, error) {
	var (
		a              lifecycle.Application
		domain, status string
		rank           *int32
	)
	err := row.Scan(
		&a.ID, &a.JobID, &a.ApplicantID, &domain, &status,
		&a.MatchScore, &rank, &a.EducationScore, &a.ExperienceScore, &a.SkillsScore, &a.EligibilityScore,
		&a.RerouteCount, &a.DenialReason, &a.NextSteps, &a.HRNotes, &a.InterviewDate, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return lifecycle.Application{}, err
	}
	a.Domain = lifecycle.Domain(domain)
	a.Status = lifecycle.Status(status)
	if rank != nil {
		v := int(*rank)
		a.Rank = &v
	}
	return a, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
