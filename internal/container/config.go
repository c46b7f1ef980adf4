// Package container provides dependency injection and lifecycle management
// for the invoice export system.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/billcraft/internal/invoice/pdf"
	"github.com/garyjia/billcraft/internal/invoice/raster"
	"github.com/garyjia/billcraft/internal/invoice/render"
	"github.com/garyjia/billcraft/pkg/database"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database DatabaseConfig
	Render   render.Options
	Raster   raster.Config
	PDF      pdf.Config
	Export   ExportConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is sqlite3 or postgres
	Driver string

	// Path to SQLite database file
	Path string

	// DSN is the PostgreSQL connection string
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir is the path to migration files.
	// Empty selects migrations/, resolved to its sqlite or postgres subdirectory.
	MigrationsDir string
}

// ExportConfig holds generation limits and the output directory.
type ExportConfig struct {
	Timeout       time.Duration
	MaxConcurrent int64
	OutputDir     string
	PreviewDPI    float64
	Creator       string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          database.DriverSQLite,
			Path:            "data/billcraft.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Render: render.Options{
			Variant:        render.VariantStandard,
			CurrencySymbol: "₹",
		},
		Raster: raster.Config{
			Scale:       raster.DefaultScale,
			SettleDelay: raster.DefaultSettleDelay,
		},
		PDF: pdf.DefaultConfig(),
		Export: ExportConfig{
			Timeout:       60 * time.Second,
			MaxConcurrent: 2,
			OutputDir:     "exports",
			PreviewDPI:    96,
			Creator:       "billcraft",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 90 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case database.DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if err := c.PDF.Validate(); err != nil {
		return err
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}

	return nil
}

// migrationsDir returns the configured migrations root. The migrator picks
// the driver's subdirectory inside it.
func (c DatabaseConfig) migrationsDir() string {
	if c.MigrationsDir != "" {
		return c.MigrationsDir
	}
	return "migrations"
}
