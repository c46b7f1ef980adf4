package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/application/port"
	"github.com/garyjia/billcraft/internal/application/service"
	"github.com/garyjia/billcraft/internal/infrastructure/persistence/repository"
	"github.com/garyjia/billcraft/internal/infrastructure/storage"
	"github.com/garyjia/billcraft/internal/invoice/inspect"
	"github.com/garyjia/billcraft/internal/invoice/pdf"
	"github.com/garyjia/billcraft/internal/invoice/raster"
	"github.com/garyjia/billcraft/internal/invoice/render"
	"github.com/garyjia/billcraft/internal/invoice/sheet"
	"github.com/garyjia/billcraft/pkg/database"
	"github.com/garyjia/billcraft/pkg/utils"
)

// PipelineBundle holds the document generation stages.
type PipelineBundle struct {
	Renderer   render.Renderer
	Rasterizer *raster.RodRasterizer
	Paginator  *pdf.Paginator
	Workbooks  *sheet.Builder
	Previewer  *inspect.Reader
}

// ProvideDatabase opens the database and runs pending migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.migrationsDir()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// ProvideInvoiceSource creates the invoice repository.
func ProvideInvoiceSource(db *database.DB, logger *zap.Logger) (port.InvoiceSource, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return repository.NewInvoiceRepository(db, logger), nil
}

// ProvidePipeline creates the renderer, rasterizer, paginator and the
// workbook and preview helpers. The browser is launched lazily.
func ProvidePipeline(cfg *Config, logger *zap.Logger) (*PipelineBundle, error) {
	paginator, err := pdf.NewPaginator(cfg.PDF)
	if err != nil {
		return nil, fmt.Errorf("failed to create paginator: %w", err)
	}

	return &PipelineBundle{
		Renderer:   render.NewRenderer(cfg.Render),
		Rasterizer: raster.NewRodRasterizer(cfg.Raster),
		Paginator:  paginator,
		Workbooks:  sheet.NewBuilder(cfg.Render.CurrencySymbol, logger),
		Previewer:  inspect.NewReader(logger),
	}, nil
}

// ProvideStorage creates the export file storage.
func ProvideStorage(cfg *ExportConfig, logger *zap.Logger) *storage.LocalExportStorage {
	return storage.NewLocalExportStorage(cfg.OutputDir, logger)
}

// ProvideExportService wires the export service. source may be nil when
// only already loaded bundles are exported.
func ProvideExportService(cfg *ExportConfig, source port.InvoiceSource, p *PipelineBundle, logger *zap.Logger) service.ExportService {
	return service.NewExportService(service.ExportDeps{
		Source:     source,
		Renderer:   p.Renderer,
		Rasterizer: p.Rasterizer,
		Paginator:  p.Paginator,
		Workbooks:  p.Workbooks,
		Previewer:  p.Previewer,
	}, service.ExportConfig{
		Timeout:       cfg.Timeout,
		MaxConcurrent: cfg.MaxConcurrent,
		Creator:       cfg.Creator,
		PreviewDPI:    cfg.PreviewDPI,
	}, utils.NewServiceLogger(logger))
}
