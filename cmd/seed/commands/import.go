package commands

import (
	"fmt"

	"github.com/denzelpenzel/tours/internal/repository"
	"github.com/denzelpenzel/tours/internal/seed"
	"github.com/denzelpenzel/tours/internal/services"
	"github.com/spf13/cobra"
)

var (
	// Import flags
	dataDir    string
	bcryptCost int
)

// importCmd loads the data files
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import users, tours and reviews",
	Long: `Import the development data from users.json, tours.json and reviews.json.

Records reference each other through their "_id" keys: tour guides name
user keys, reviews name a tour key and a user key. Missing files are
skipped. Every record is validated like an API write.

Examples:
  seed import --dir ./dev-data
  seed import --dir ./dev-data --dsn postgres://localhost/natours`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&dataDir, "dir", "./dev-data", "Directory holding the JSON files")
	importCmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", 12, "bcrypt cost for seeded passwords")
}

func runImport(cmd *cobra.Command) error {
	ctx := cmd.Context()

	data, err := seed.Load(dataDir)
	if err != nil {
		return err
	}

	pool, log, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer log.Sync()

	users := repository.NewUserRepository(pool, log)
	tours := repository.NewTourRepository(pool, log)
	reviews := repository.NewReviewRepository(pool, log)

	importer := seed.NewImporter(
		services.NewUserService(users, log),
		services.NewTourService(tours, reviews, users, log),
		services.NewReviewService(reviews, tours, log),
		seed.BcryptHasher(bcryptCost),
		log,
	)

	summary, err := importer.Import(ctx, data)
	if err != nil {
		return fmt.Errorf("import stopped after %d users, %d tours, %d reviews: %w",
			summary.Users, summary.Tours, summary.Reviews, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Data loaded successfully! %d users, %d tours, %d reviews\n",
		summary.Users, summary.Tours, summary.Reviews)
	return nil
}
