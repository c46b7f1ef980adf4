// Package cli implements the billcraft command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/config"
	"github.com/garyjia/billcraft/pkg/utils"
)

var (
	version = "dev"
	commit  = "none"
)

const defaultConfigPath = "configs/config.yaml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "billcraft",
		Short:         "Render invoices to paginated PDFs",
		Long:          "billcraft renders stored or file-based invoices to HTML, rasterizes them in headless Chromium and lays the result out over PDF pages.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default configs/config.yaml when present)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newCheckCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
	}
	return err
}

// loadConfig reads configuration from --config, falling back to the
// default file when it exists
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	return config.Load(path)
}

// load reads configuration and builds the logger it describes. Commands
// that write results to stdout pass stdoutFree so logs move to stderr.
func (o *rootOptions) load(stdoutFree bool) (*config.Config, *zap.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	output := cfg.Logger.OutputPath
	if stdoutFree && (output == "" || output == "stdout") {
		output = "stderr"
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: output,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
