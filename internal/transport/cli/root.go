// Package cli is the mechmindctl command tree.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/logger"
	ingestuc "github.com/kailas-cloud/mechmind/internal/usecase/ingest"
)

// Answerer resolves a question.
type Answerer interface {
	Resolve(ctx context.Context, question string) (domain.Answer, error)
}

// Seeder inserts sample clauses.
type Seeder interface {
	Seed(ctx context.Context, clauses ...domain.Clause) (int, error)
}

// Ingester stores documents as embedded chunks.
type Ingester interface {
	IngestPDF(ctx context.Context, path string) (ingestuc.Report, error)
	IngestText(ctx context.Context, source, text string) (ingestuc.Report, error)
}

// Services are the use cases the commands drive.
type Services struct {
	Answers Answerer
	Clauses Seeder
	Ingest  Ingester
	// Logger is attached to the command context. May be nil.
	Logger *zap.Logger
	// Close is called once after the command finishes. May be nil.
	Close func()
}

// Loader builds the services on first use. logLevel comes from --log-level.
type Loader func(ctx context.Context, logLevel string) (*Services, error)

var errNoLoader = errors.New("services not configured")

var (
	loader   Loader
	services *Services
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "mechmindctl",
	Short: "Operate the mechmind piping code assistant",
	Long: `mechmindctl ingests reference documents into the vector store,
seeds the clause table and asks questions from the command line.
Configuration is read from config/<ENV>.yaml like the API server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// SetLoader installs the function that builds services for the commands.
func SetLoader(l Loader) {
	loader = l
	services = nil
}

// Execute runs the command tree and releases services afterwards.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

func loadServices(cmd *cobra.Command) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if loader == nil {
		return nil, errNoLoader
	}
	s, err := loader(cmd.Context(), logLevel)
	if err != nil {
		return nil, err
	}
	services = s
	if s.Logger != nil {
		cmd.SetContext(logger.ContextWithLogger(cmd.Context(), s.Logger))
	}
	return s, nil
}

func closeServices() {
	if services != nil && services.Close != nil {
		services.Close()
	}
	services = nil
}
