package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/denzelpenzel/tours/internal/config"
	"github.com/denzelpenzel/tours/internal/database"
	"github.com/denzelpenzel/tours/internal/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	dsn     string
	migrate bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load or remove the development data of the tours API",
	Long: `Seed manages the development data set of the tours API.

The connection string is taken from --dsn or from DATABASE_DSN
(a .env file in the working directory is honoured).

Subcommands:
  import  - Create users, tours and reviews from JSON files
  delete  - Remove every user, tour and review`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database connection string (defaults to DATABASE_DSN)")
	rootCmd.PersistentFlags().BoolVar(&migrate, "migrate", true, "Apply pending migrations before seeding")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// connect opens the pool shared by the subcommands
func connect(ctx context.Context) (*pgxpool.Pool, *zap.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger("production", level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg := config.DatabaseConfig{DSN: dsn, MaxConns: 4, MinConns: 1}
	if cfg.DSN == "" {
		loaded, err := config.LoadDatabase()
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	pool, err := database.NewConnection(ctx, cfg, migrate, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, log, nil
}
