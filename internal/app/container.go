package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"workforce-portal/internal/config"
	"workforce-portal/internal/database"
	"workforce-portal/internal/database/migration"
	dbpostgres "workforce-portal/internal/database/postgres"
	"workforce-portal/internal/domain/scoring"
	"workforce-portal/internal/infrastructure/cache"
	"workforce-portal/internal/infrastructure/persistence/sqlite"
	"workforce-portal/internal/repository"
	"workforce-portal/internal/usecase"
	"workforce-portal/internal/ws"
	"workforce-portal/migrations"
)

type Repositories struct {
	Jobs         repository.JobRepository
	Applications repository.ApplicationRepository
	Applicants   repository.ApplicantRepository
	Pipeline     repository.PipelineStatusRepository
}

// Container owns every long-lived dependency of the server.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB     database.DB
	SQLite *sqlite.Store
	Cache  *cache.Redis
	Hub    *ws.Hub

	Repos Repositories

	Status       *usecase.StatusEngine
	Applications *usecase.Applications
	Jobs         *usecase.Jobs
	Ranking      *usecase.Ranking
	Cascade      *usecase.Cascade
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.openStore(); err != nil {
		return nil, err
	}

	rules := scoring.DefaultRules()
	if path := cfg.Lifecycle.ScoringRulesFile; path != "" {
		loaded, err := scoring.LoadRulesFile(path)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("load scoring rules: %w", err)
		}
		rules = loaded
		logger.Printf("scoring rules loaded path=%s threshold=%.2f", path, rules.RerouteThreshold)
	}
	engine := scoring.NewEngine(rules)

	c.Cache = cache.NewRedis(cfg.Redis, logger)
	c.Hub = ws.NewHub(logger)

	var (
		reportCache usecase.ReportCache
		locker      usecase.TargetLocker
	)
	if c.Cache.Available() {
		reportCache = c.Cache
		locker = c.Cache
		if cfg.Lifecycle.ScoringRulesFile != "" {
			// reports cached under other rules are worthless now
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.Cache.DeleteByPattern(ctx, usecase.RankingCachePattern); err != nil {
				logger.Printf("ranking cache=flush status=error err=%v", err)
			}
			cancel()
		}
	}
	events := usecase.NewRankingInvalidator(ws.NewPublisher(c.Hub, logger), reportCache, rules, logger)

	r := c.Repos
	c.Status = usecase.NewStatusEngine(r.Applications, events, logger)
	c.Applications = usecase.NewApplicationUsecase(r.Jobs, r.Applications, r.Applicants, events, logger)
	c.Jobs = usecase.NewJobUsecase(r.Jobs, r.Pipeline, events, logger)
	c.Ranking = usecase.NewRankingUsecase(r.Jobs, r.Applications, r.Applicants, engine, reportCache, cfg.Lifecycle.RankingCacheTTL, events, logger)
	c.Cascade = usecase.NewCascadeUsecase(r.Jobs, r.Applications, r.Applicants, c.Status, engine, locker, events, usecase.CascadeConfig{
		Workers:     cfg.Lifecycle.CascadeWorkers,
		MaxReroutes: cfg.Lifecycle.MaxReroutes,
	}, logger)

	return c, nil
}

func (c *Container) openStore() error {
	switch c.Config.Database.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(c.Config.Database.SQLitePath, c.Logger)
		if err != nil {
			return err
		}
		c.SQLite = store
		c.Repos = Repositories{
			Jobs:         store.Jobs,
			Applications: store.Applications,
			Applicants:   store.Applicants,
			Pipeline:     store.Pipeline,
		}
		c.Logger.Printf("store driver=sqlite path=%s", c.Config.Database.SQLitePath)
		return nil

	default:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := dbpostgres.Connect(ctx, c.Config.Database)
		if err != nil {
			return err
		}
		if !c.Config.Database.MigrationsDisabled {
			runner := migration.Runner{FS: migrations.FS, Logger: c.Logger}
			if err := runner.Run(ctx, db.SQLDB()); err != nil {
				_ = db.Close()
				return fmt.Errorf("migrate: %w", err)
			}
		}
		c.DB = db
		c.Repos = Repositories{
			Jobs:         repository.NewPostgresJobRepository(db),
			Applications: repository.NewPostgresApplicationRepository(db),
			Applicants:   repository.NewPostgresApplicantRepository(db),
			Pipeline:     repository.NewPostgresPipelineStatusRepository(db),
		}
		c.Logger.Printf("store driver=postgres host=%s db=%s", c.Config.Database.DBHost, c.Config.Database.DBName)
		return nil
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Cache != nil {
		keep(c.Cache.Close())
	}
	if c.SQLite != nil {
		keep(c.SQLite.Close())
	}
	if c.DB != nil {
		keep(c.DB.Close())
	}
	return firstErr
}
