// Command ledgerd serves the ledger over gRPC and manages its schema.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/config"
	"github.com/simaogato/ledger-backend/internal/logger"
)

var (
	cfgFile string
	envFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ledgerd",
		Short:         "ledgerd runs the account ledger service",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./ledger.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerd: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and builds the logger every command uses
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile, envFile)
	if err != nil {
		return nil, nil, err
	}

	log, _, err := logger.New(logger.Config{
		Environment: logger.Environment(cfg.Log.Env),
		Level:       cfg.Log.Level,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.ConfigPath != "" {
		log.Info("configuration loaded", zap.String("path", cfg.ConfigPath))
	}
	return cfg, log, nil
}
