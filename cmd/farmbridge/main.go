// Package main is the farmbridge command: the SOAP protocol bridge for the
// farm platform's crop and billing services.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agriservices/farmbridge/internal/config"
	"github.com/agriservices/farmbridge/internal/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logJSON    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "farmbridge",
	Short: "Typed bridge to the farm platform's SOAP services",
	Long: `farmbridge exposes the legacy crop (JAX-WS) and billing (WCF) SOAP
services as typed operations over gRPC and HTTP/JSON.

Configuration is read from defaults, an optional YAML file (--config or
FARMBRIDGE_CONFIG) and FARMBRIDGE_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = os.Getenv("FARMBRIDGE_CONFIG")
		}
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-json") {
			c.Log.JSON = logJSON
		}
		cfg = c

		logger, err = logging.New(cfg.Log.Level, cfg.Log.JSON)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (or set FARMBRIDGE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", true, "Emit JSON logs")

	rootCmd.AddCommand(serveCmd, workerCmd, operationsCmd, invokeCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
