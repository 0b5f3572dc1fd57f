package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"littlesteps/internal/config"
	"littlesteps/internal/database"
)

// env is the opened database and logger shared by every subcommand
type env struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

var rootCmd = &cobra.Command{
	Use:   "littlesteps-admin",
	Short: "Inspect and back up stored child profiles",
	Long: `Administrative tasks against the LittleSteps database.

Available subcommands:
  devices - List devices that have stored data
  export  - Write profiles to a JSON backup
  import  - Restore profiles from a JSON backup
  clear   - Delete everything stored for a device`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(devicesCmd, exportCmd, importCmd, clearCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openEnv loads configuration, connects and migrates. The caller closes it.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	// Run migrations to ensure schema is up to date
	if _, err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &env{cfg: cfg, db: db, logger: logger}, nil
}

func (e *env) Close() {
	_ = e.logger.Sync()
	e.db.Close()
}
