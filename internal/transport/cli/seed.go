package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample clauses",
	Long:  `Inserts the sample ASME B31.3 clauses. Clauses that already exist are left alone.`,
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}

	n, err := svc.Clauses.Seed(cmd.Context())
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	cmd.Printf("Seeded %d clauses.\n", n)
	return nil
}
