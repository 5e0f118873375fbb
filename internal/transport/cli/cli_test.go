package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/mechmind/internal/domain"
	ingestuc "github.com/kailas-cloud/mechmind/internal/usecase/ingest"
	"github.com/kailas-cloud/mechmind/internal/version"
)

// --- Mocks ---

type mockAnswerer struct {
	answer   domain.Answer
	err      error
	question string
}

func (m *mockAnswerer) Resolve(_ context.Context, question string) (domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}

type mockSeeder struct {
	n   int
	err error
}

func (m *mockSeeder) Seed(_ context.Context, _ ...domain.Clause) (int, error) {
	return m.n, m.err
}

type mockIngester struct {
	pdfPath string
	source  string
	text    string
	err     error
}

func (m *mockIngester) IngestPDF(_ context.Context, path string) (ingestuc.Report, error) {
	m.pdfPath = path
	rep := ingestuc.Report{IngestID: "run-1", Source: filepath.Base(path), Chunks: 4, Stored: 4, Batches: 1}
	return rep, m.err
}

func (m *mockIngester) IngestText(_ context.Context, source, text string) (ingestuc.Report, error) {
	m.source, m.text = source, text
	rep := ingestuc.Report{
		IngestID: "run-2", Source: source, Chunks: 2, Stored: 2, Batches: 1,
		EmbeddingTokens: 30, Duration: 1500 * time.Millisecond,
	}
	return rep, m.err
}

type fixture struct {
	answers *mockAnswerer
	seeder  *mockSeeder
	ingest  *mockIngester
	closed  int
}

func setupServices(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{answers: &mockAnswerer{}, seeder: &mockSeeder{}, ingest: &mockIngester{}}
	SetLoader(func(_ context.Context, _ string) (*Services, error) {
		return &Services{
			Answers: f.answers,
			Clauses: f.seeder,
			Ingest:  f.ingest,
			Close:   func() { f.closed++ },
		}, nil
	})
	t.Cleanup(func() { SetLoader(nil) })
	return f
}

// execute runs the root command and resets every flag to its default afterwards.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// --- Tests ---

func TestVersionCmd_Executes(t *testing.T) {
	orig := version.Version
	version.Version = "test-version-1.0.0"
	defer func() { version.Version = orig }()

	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "mechmind version test-version-1.0.0")
}

func TestVersionCmd_NeedsNoServices(t *testing.T) {
	SetLoader(nil)

	_, err := execute(t, "version")

	assert.NoError(t, err)
}

func TestSeedCmd_PrintsCount(t *testing.T) {
	f := setupServices(t)
	f.seeder.n = 2

	out, err := execute(t, "seed")

	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 clauses.")
}

func TestSeedCmd_Error(t *testing.T) {
	f := setupServices(t)
	f.seeder.err = errors.New("disk full")

	_, err := execute(t, "seed")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed failed")
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	setupServices(t)

	_, err := execute(t, "ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAskCmd_PrintsAnswerAndCitations(t *testing.T) {
	f := setupServices(t)
	f.answers.answer = domain.Answer{
		Text:      "Clause 300.2 covers definitions.",
		Citations: []string{"300.2"},
		Stage:     domain.StageClauseID,
	}

	out, err := execute(t, "ask", "what", "is", "300.2?")

	require.NoError(t, err)
	assert.Equal(t, "what is 300.2?", f.answers.question)
	assert.Contains(t, out, "Clause 300.2 covers definitions.")
	assert.Contains(t, out, "Citations: 300.2")
}

func TestAskCmd_JSON(t *testing.T) {
	f := setupServices(t)
	f.answers.answer = domain.Answer{Text: domain.NoMatchAnswer, Stage: domain.StageFallback}

	out, err := execute(t, "ask", "--json", "anything")

	require.NoError(t, err)
	var got askOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, domain.NoMatchAnswer, got.Answer)
	assert.Equal(t, []string{}, got.Citations)
	assert.Equal(t, string(domain.StageFallback), got.Stage)
}

func TestAskCmd_Error(t *testing.T) {
	f := setupServices(t)
	f.answers.err = domain.ErrEmbeddingFailed

	_, err := execute(t, "ask", "question")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
}

func TestAskCmd_LoaderError(t *testing.T) {
	SetLoader(func(context.Context, string) (*Services, error) {
		return nil, errors.New("config missing")
	})
	defer SetLoader(nil)

	_, err := execute(t, "ask", "question")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config missing")
}

func TestAskCmd_NoLoader(t *testing.T) {
	SetLoader(nil)

	_, err := execute(t, "ask", "question")

	assert.ErrorIs(t, err, errNoLoader)
}

func TestIngestCmd_RequiresInput(t *testing.T) {
	setupServices(t)

	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestIngestCmd_InputsAreExclusive(t *testing.T) {
	setupServices(t)

	_, err := execute(t, "ingest", "--file", "a.pdf", "--text-file", "b.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others")
}

func TestIngestCmd_PDF(t *testing.T) {
	f := setupServices(t)

	out, err := execute(t, "ingest", "--file", "docs/b31.3.pdf")

	require.NoError(t, err)
	assert.Equal(t, "docs/b31.3.pdf", f.ingest.pdfPath)
	assert.Contains(t, out, "Ingested b31.3.pdf: 4 chunks stored in 1 batches")
}

func TestIngestCmd_MarkdownIsFlattened(t *testing.T) {
	f := setupServices(t)
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Thermal expansion\n\nUse *expansion loops* where needed.\n"), 0o600))

	_, err := execute(t, "ingest", "--text-file", path)

	require.NoError(t, err)
	assert.Equal(t, "notes.md", f.ingest.source)
	assert.Contains(t, f.ingest.text, "Thermal expansion")
	assert.Contains(t, f.ingest.text, "Use expansion loops where needed.")
	assert.NotContains(t, f.ingest.text, "#")
	assert.NotContains(t, f.ingest.text, "*")
}

func TestIngestCmd_PlainTextWithSource(t *testing.T) {
	f := setupServices(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("# not a heading in plain text"), 0o600))

	out, err := execute(t, "ingest", "--text-file", path, "--source", "field-notes", "--json")

	require.NoError(t, err)
	assert.Equal(t, "field-notes", f.ingest.source)
	assert.Equal(t, "# not a heading in plain text", f.ingest.text)

	var got ingestOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "run-2", got.IngestID)
	assert.Equal(t, 2, got.Stored)
	assert.Equal(t, 30, got.EmbeddingTokens)
	assert.InDelta(t, 1.5, got.DurationSec, 1e-9)
}

func TestIngestCmd_MissingTextFile(t *testing.T) {
	setupServices(t)

	_, err := execute(t, "ingest", "--text-file", filepath.Join(t.TempDir(), "absent.txt"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed")
}

func TestIngestCmd_PartialFailureReportsProgress(t *testing.T) {
	f := setupServices(t)
	f.ingest.err = domain.ErrEmbeddingFailed

	out, err := execute(t, "ingest", "--file", "a.pdf")

	require.Error(t, err)
	assert.Contains(t, out, "Stored 4 of 4 chunks before failing.")
}

func TestExecute_ClosesServices(t *testing.T) {
	f := setupServices(t)
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"seed"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	require.NoError(t, Execute())
	assert.Equal(t, 1, f.closed)
}
