package config

import (
	"github.com/garyjia/billcraft/internal/container"
	"github.com/garyjia/billcraft/internal/invoice/raster"
	"github.com/garyjia/billcraft/internal/invoice/render"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() (*container.Config, error) {
	variant, err := render.ParseVariant(c.Render.Variant)
	if err != nil {
		return nil, err
	}
	layout, err := c.PDFLayout()
	if err != nil {
		return nil, err
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Render: render.Options{
			Variant:        variant,
			CurrencySymbol: c.Render.CurrencySymbol,
		},
		Raster: raster.Config{
			BrowserBin:  c.Raster.BrowserBin,
			ControlURL:  c.Raster.ControlURL,
			NoSandbox:   c.Raster.NoSandbox,
			Scale:       c.Raster.Scale,
			SettleDelay: c.Raster.SettleDelay,
		},
		PDF: layout,
		Export: container.ExportConfig{
			Timeout:       c.Export.Timeout,
			MaxConcurrent: c.Export.MaxConcurrent,
			OutputDir:     c.Export.OutputDir,
			PreviewDPI:    c.Export.PreviewDPI,
			Creator:       c.Export.Creator,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}, nil
}
