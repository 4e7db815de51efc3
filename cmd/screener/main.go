package main

import (
	"os"

	"github.com/fractalizend/screener/internal/config"
	"github.com/fractalizend/screener/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Screener - trading alert ingestion and pair screener",
	Long: `Screener receives TradingView-style webhook alerts, keeps the latest
direction and confirmation per pair and timeframe, forwards allow-listed
changes to notifiers and serves a live pair grid.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; an explicit --env file must exist.
		if envFile != "" {
			return godotenv.Load(envFile)
		}
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load before reading config")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads --config, or falls back to defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
		return config.Defaults(), nil
	}
	return config.Load(cfgFile)
}

// newLogger builds the CLI logger; --debug forces development output. A nil
// cfg gives the bootstrap logger used while config is loading.
func newLogger(cfg *config.Config) *zap.Logger {
	if debug {
		return logger.Must(true, "debug")
	}
	if cfg == nil {
		return logger.Must(false, "info")
	}
	return logger.Must(cfg.Log.Development, cfg.Log.Level)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
