package container

import (
	"context"
	"fmt"
	"log"

	"goattend/adapters/excel"
	"goattend/adapters/markdown"
	"goattend/adapters/pdf"
	"goattend/adapters/sqlstore"
	"goattend/app"
	"goattend/internal"
	"goattend/internal/config"
	"goattend/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Adapters
	Store  *sqlstore.RosterRepository
	Reader ports.GridReader
	Sinks  []ports.ReportSink

	// Services
	Reconciler *app.ReconciliationService
	Uploads    *app.UploadService
	Reports    *app.ReportService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
	}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.initAdapters()
	c.initServices()

	log.Printf("Container initialized successfully with database connection")
	return nil
}

// initAdapters initializes storage, intake and report adapters
func (c *Container) initAdapters() {
	c.Store = sqlstore.NewRosterRepository(c.DB)
	c.Reader = excel.NewGridReader(c.Config.Ingest.SkipTitleRow, c.Logger)
	c.Sinks = []ports.ReportSink{
		excel.NewReportWriter(),
		pdf.NewReportWriter(),
		markdown.NewReportWriter(),
	}
}

// initServices wires the application services onto the adapters
func (c *Container) initServices() {
	c.Reconciler = app.NewReconciliationService(c.Store, c.Config.Ingest, c.Logger)
	c.Uploads = app.NewUploadService(c.Reader, c.Reconciler, c.Config.Ingest, c.Config.Upload, c.Logger)
	c.Reports = app.NewReportService(c.Store, c.Sinks, c.Logger)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
