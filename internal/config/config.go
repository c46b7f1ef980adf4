package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/billcraft/internal/invoice/pdf"
	"github.com/garyjia/billcraft/internal/invoice/render"
)

// EnvPrefix prefixes every environment override, e.g. BILLCRAFT_SERVER_PORT
const EnvPrefix = "BILLCRAFT"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Render   RenderConfig   `mapstructure:"render"`
	Raster   RasterConfig   `mapstructure:"raster"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// RenderConfig selects the document variant and currency
type RenderConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Variant        string `mapstructure:"variant"`
}

// RasterConfig holds headless browser settings
type RasterConfig struct {
	BrowserBin  string        `mapstructure:"browser_bin"`
	ControlURL  string        `mapstructure:"control_url"`
	NoSandbox   bool          `mapstructure:"no_sandbox"`
	Scale       float64       `mapstructure:"scale"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// PDFConfig holds page geometry
type PDFConfig struct {
	PageSize      string  `mapstructure:"page_size"`
	MarginMM      float64 `mapstructure:"margin_mm"`
	Fit           string  `mapstructure:"fit"`
	ClipToMargins bool    `mapstructure:"clip_to_margins"`
	Compress      bool    `mapstructure:"compress"`
}

// ExportConfig bounds generation and sets where exports are written
type ExportConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int64         `mapstructure:"max_concurrent"`
	OutputDir     string        `mapstructure:"output_dir"`
	PreviewDPI    float64       `mapstructure:"preview_dpi"`
	Creator       string        `mapstructure:"creator"`
}

// Load loads configuration from an optional YAML file, a .env file and the
// environment. An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "data/billcraft.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("render.currency_symbol", "₹")
	v.SetDefault("render.variant", string(render.VariantStandard))

	v.SetDefault("raster.browser_bin", "")
	v.SetDefault("raster.control_url", "")
	v.SetDefault("raster.no_sandbox", false)
	v.SetDefault("raster.scale", 2.5)
	v.SetDefault("raster.settle_delay", 500*time.Millisecond)

	v.SetDefault("pdf.page_size", "A4")
	v.SetDefault("pdf.margin_mm", 8.0)
	v.SetDefault("pdf.fit", string(pdf.FitWidth))
	v.SetDefault("pdf.clip_to_margins", true)
	v.SetDefault("pdf.compress", true)

	v.SetDefault("export.timeout", 60*time.Second)
	v.SetDefault("export.max_concurrent", 2)
	v.SetDefault("export.output_dir", "exports")
	v.SetDefault("export.preview_dpi", 96.0)
	v.SetDefault("export.creator", "billcraft")
}

// bindEnvVars binds conventional variable names used by deployments
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("raster.browser_bin", EnvPrefix+"_RASTER_BROWSER_BIN", "CHROME_BIN")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite3 or postgres, got %q", c.Database.Driver)
	}

	if _, err := render.ParseVariant(c.Render.Variant); err != nil {
		return fmt.Errorf("render.variant: %w", err)
	}

	if c.Raster.Scale <= 0 {
		return fmt.Errorf("raster.scale must be positive")
	}
	if c.Raster.SettleDelay < 0 {
		return fmt.Errorf("raster.settle_delay must not be negative")
	}

	if _, err := c.PDFLayout(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}

	if c.Export.Timeout <= 0 {
		return fmt.Errorf("export.timeout must be positive")
	}
	if c.Export.MaxConcurrent <= 0 {
		return fmt.Errorf("export.max_concurrent must be positive")
	}
	if c.Export.PreviewDPI <= 0 {
		return fmt.Errorf("export.preview_dpi must be positive")
	}

	return nil
}

// PDFLayout resolves the page geometry
func (c *Config) PDFLayout() (pdf.Config, error) {
	page, err := pdf.ParsePageSize(c.PDF.PageSize)
	if err != nil {
		return pdf.Config{}, err
	}
	fit, err := pdf.ParseFitMode(c.PDF.Fit)
	if err != nil {
		return pdf.Config{}, err
	}
	layout := pdf.Config{
		Page:          page,
		Margins:       pdf.UniformMargins(c.PDF.MarginMM),
		Fit:           fit,
		ClipToMargins: c.PDF.ClipToMargins,
		Compress:      c.PDF.Compress,
	}
	if err := layout.Validate(); err != nil {
		return pdf.Config{}, err
	}
	return layout, nil
}
