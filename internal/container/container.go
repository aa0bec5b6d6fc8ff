package container

import (
	"context"
	"fmt"

	"immunoscope/adapters/excel"
	"immunoscope/adapters/gdc"
	"immunoscope/adapters/postgres"
	"immunoscope/app"
	"immunoscope/internal"
	"immunoscope/internal/config"
	"immunoscope/internal/errors"
	"immunoscope/internal/migration"
	"immunoscope/internal/testkit"
	"immunoscope/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Adapters
	Source   ports.CohortSource
	Exporter ports.RunExporter
	Runs     ports.RunRepository

	// Services
	Pipeline *app.PipelineService
}

// New creates a container with the configured cohort source. The run ledger is
// attached later by InitWithDatabase.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level))
	}

	source, err := newSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Source:   source,
		Exporter: excel.NewExporter(),
	}
	c.Pipeline = app.NewPipelineService(c.Source, c.Exporter, nil, logger)
	return c, nil
}

func newSource(cfg *config.Config, logger *internal.Logger) (ports.CohortSource, error) {
	switch cfg.Source.Kind {
	case config.SourceGDC:
		return gdc.NewSource(gdc.Config{
			BaseURL:  cfg.Source.GDCBaseURL,
			Timeout:  cfg.Source.Timeout,
			CacheDir: cfg.Source.CacheDir,
			Workers:  cfg.Source.DownloadWorkers,
			PageSize: gdc.DefaultConfig().PageSize,
		}, logger), nil
	case config.SourceFile:
		return excel.NewFileSource(excel.FileSourceConfig{
			CountsFile:   cfg.Source.CountsFile,
			GenesFile:    cfg.Source.GenesFile,
			ClinicalFile: cfg.Source.ClinicalFile,
		}, logger), nil
	case config.SourceSynthetic:
		gen := testkit.DefaultCohortConfig()
		gen.Genes = cfg.Source.SyntheticGenes
		gen.Patients = cfg.Source.SyntheticPatients
		gen.Seed = cfg.Source.SyntheticSeed
		gen.Panel = cfg.Signature.MarkerPanel
		return testkit.NewCohortGenerator(gen), nil
	}
	return nil, errors.ConfigInvalid(fmt.Sprintf("unknown data source %q", cfg.Source.Kind))
}

// InitWithDatabase connects to the configured database, applies migrations and
// attaches the run ledger. It is a no-op without a database URL.
func (c *Container) InitWithDatabase(ctx context.Context) error {
	if c.Config.Database.URL == "" {
		c.Logger.Debug("[container] no DATABASE_URL, run ledger disabled")
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return errors.DatabaseError("failed to run migrations", err)
	}

	c.DB = db
	c.Runs = postgres.NewRunRepository(db)
	c.Pipeline = app.NewPipelineService(c.Source, c.Exporter, c.Runs, c.Logger)
	c.Logger.Info("[container] run ledger ready")
	return nil
}

// Close releases the database connection, if any
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
