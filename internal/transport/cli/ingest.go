package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/mechmind/internal/document/markdown"
	ingestuc "github.com/kailas-cloud/mechmind/internal/usecase/ingest"
)

var (
	ingestFile     string
	ingestTextFile string
	ingestSource   string
	ingestJSON     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk, embed and store a document",
	Long: `Reads a PDF (--file) or a plain text / markdown file (--text-file),
splits it into overlapping chunks, embeds them and stores the vectors.
Markdown is reduced to its text before chunking.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "PDF document to ingest")
	ingestCmd.Flags().StringVar(&ingestTextFile, "text-file", "", "text or markdown file to ingest")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source name for --text-file chunks (default: file name)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	ingestCmd.MarkFlagsMutuallyExclusive("file", "text-file")
	ingestCmd.MarkFlagsOneRequired("file", "text-file")
	rootCmd.AddCommand(ingestCmd)
}

type ingestOutput struct {
	IngestID        string  `json:"ingest_id"`
	Source          string  `json:"source"`
	Chunks          int     `json:"chunks"`
	Stored          int     `json:"stored"`
	Batches         int     `json:"batches"`
	EmbeddingTokens int     `json:"embedding_tokens"`
	DurationSec     float64 `json:"duration_sec"`
}

func runIngest(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}

	var rep ingestuc.Report
	if ingestFile != "" {
		rep, err = svc.Ingest.IngestPDF(cmd.Context(), ingestFile)
	} else {
		rep, err = readAndIngestText(cmd, svc.Ingest)
	}
	if err != nil {
		if rep.IngestID != "" {
			cmd.PrintErrf("Stored %d of %d chunks before failing.\n", rep.Stored, rep.Chunks)
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		return outputIngestJSON(cmd, rep)
	}

	cmd.Printf("Ingested %s: %d chunks stored in %d batches (%d embedding tokens, %s)\n",
		rep.Source, rep.Stored, rep.Batches, rep.EmbeddingTokens, rep.Duration.Round(time.Millisecond))
	return nil
}

func readAndIngestText(cmd *cobra.Command, ing Ingester) (ingestuc.Report, error) {
	data, err := os.ReadFile(filepath.Clean(ingestTextFile))
	if err != nil {
		return ingestuc.Report{}, fmt.Errorf("read %s: %w", ingestTextFile, err)
	}

	text := string(data)
	if markdown.IsMarkdownPath(ingestTextFile) {
		text = markdown.PlainText(data)
	}

	source := ingestSource
	if source == "" {
		source = filepath.Base(ingestTextFile)
	}
	return ing.IngestText(cmd.Context(), source, text)
}

func outputIngestJSON(cmd *cobra.Command, rep ingestuc.Report) error {
	data, err := json.MarshalIndent(ingestOutput{
		IngestID:        rep.IngestID,
		Source:          rep.Source,
		Chunks:          rep.Chunks,
		Stored:          rep.Stored,
		Batches:         rep.Batches,
		EmbeddingTokens: rep.EmbeddingTokens,
		DurationSec:     rep.Duration.Seconds(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
