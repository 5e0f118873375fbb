package cli

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/mechmind/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("mechmind version %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
