// Package sqlite is the embedded gorm store. It backs DB_DRIVER=sqlite and
// the usecase integration tests.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"workforce-portal/internal/domain/lifecycle"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB

	Applications *ApplicationRepository
	Jobs         *JobRepository
	Applicants   *ApplicantRepository
	Pipeline     *PipelineStatusRepository
}

// Open opens (and migrates) the database at path. ":memory:" gives a
// private in-memory store.
func Open(path string, stdLogger *log.Logger) (*Store, error) {
	if stdLogger == nil {
		stdLogger = log.Default()
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty sqlite path")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(stdLogger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" shared and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := db.AutoMigrate(&jobModel{}, &applicantProfileModel{}, &applicationModel{}, &statusHistoryModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &Store{
		db:           db,
		Applications: &ApplicationRepository{db: db},
		Jobs:         &JobRepository{db: db},
		Applicants:   &ApplicantRepository{db: db},
		Pipeline:     &PipelineStatusRepository{db: db},
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("nil db")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(kind string, id fmt.Stringer) error {
	return fmt.Errorf("%w: %s %s", lifecycle.ErrNotFound, kind, id)
}
