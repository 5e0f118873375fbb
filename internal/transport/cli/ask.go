package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/mechmind/internal/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the piping code",
	Long: `Resolves a question the same way POST /qa does: exact clause id,
clause keywords, then the nearest document chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

type askOutput struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
	Stage     string   `json:"stage"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	ans, err := svc.Answers.Resolve(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, ans)
	}

	cmd.Println(ans.Text)
	if len(ans.Citations) > 0 {
		cmd.Println()
		cmd.Printf("Citations: %s\n", strings.Join(ans.Citations, ", "))
	}
	return nil
}

func outputAskJSON(cmd *cobra.Command, ans domain.Answer) error {
	citations := ans.Citations
	if citations == nil {
		citations = []string{}
	}
	data, err := json.MarshalIndent(askOutput{
		Answer:    ans.Text,
		Citations: citations,
		Stage:     string(ans.Stage),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
