package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/application/port"
	"github.com/garyjia/billcraft/internal/application/service"
	"github.com/garyjia/billcraft/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	db     *database.DB
	source port.InvoiceSource

	// Infrastructure - Storage
	storage port.ExportStorage

	// Document pipeline
	pipeline *PipelineBundle

	// Application
	exports service.ExportService

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() or StartOffline().
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database and invoice repository
// 2. Export storage
// 3. Document pipeline
// 4. Export service
func (c *Container) Start(ctx context.Context) error {
	return c.start(ctx, true)
}

// StartOffline initializes everything except the database. The export
// service then only serves ExportBundle.
func (c *Container) StartOffline(ctx context.Context) error {
	return c.start(ctx, false)
}

func (c *Container) start(ctx context.Context, withDatabase bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("Starting container initialization", zap.Bool("database", withDatabase))

	// Step 1: Database and repository
	if withDatabase {
		db, err := ProvideDatabase(&c.config.Database, c.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		c.db = db

		source, err := ProvideInvoiceSource(db, c.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize repository: %w", err)
		}
		c.source = source
		c.logger.Info("Database initialized")
	}

	// Step 2: Storage
	c.storage = ProvideStorage(&c.config.Export, c.logger)

	// Step 3: Pipeline
	pipeline, err := ProvidePipeline(c.config, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	c.pipeline = pipeline
	c.logger.Info("Document pipeline initialized")

	// Step 4: Services
	c.exports = ProvideExportService(&c.config.Export, c.source, pipeline, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Stop the browser (reverse of step 3)
	if c.pipeline != nil && c.pipeline.Rasterizer != nil {
		if err := c.pipeline.Rasterizer.Close(); err != nil {
			c.logger.Error("Failed to close browser", zap.Error(err))
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		} else {
			c.logger.Info("Browser closed")
		}
	}

	// Step 2: Close database (reverse of step 1)
	if err := c.closeDatabase(); err != nil {
		errs = append(errs, err)
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeDatabase() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.db == nil:
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	default:
		if err := c.db.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	if c.pipeline != nil {
		status.Components["pipeline"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["pipeline"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

// ExportService returns the export service.
func (c *Container) ExportService() service.ExportService {
	return c.exports
}

// Storage returns the export file storage.
func (c *Container) Storage() port.ExportStorage {
	return c.storage
}

// Pipeline returns the document generation stages.
func (c *Container) Pipeline() *PipelineBundle {
	return c.pipeline
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
