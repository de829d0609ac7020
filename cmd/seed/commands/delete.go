package commands

import (
	"fmt"

	"github.com/denzelpenzel/tours/internal/repository"
	"github.com/spf13/cobra"
)

// deleteCmd empties the tables
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete all users, tours and reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, log, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		defer log.Sync()

		if err := repository.Truncate(ctx, pool); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Data deleted successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
