package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/helpdex"
	"github.com/fwojciec/helpdex/gemini"
	"github.com/fwojciec/helpdex/goquery"
	helpdexslog "github.com/fwojciec/helpdex/slog"
	"github.com/fwojciec/helpdex/sqlite"
	"google.golang.org/genai"
)

const version = "0.1.0"

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Data directory holding index databases. Set before calling Run().
	DataDir string

	// Store is exposed for end-to-end testing.
	Store helpdex.IndexStore
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{DataDir: defaultDataDir()}
}

// defaultDataDir resolves the data directory: HELPDEX_DATA if set, otherwise
// ~/.helpdex, falling back to a relative directory when the home directory
// is unknown.
func defaultDataDir() string {
	if dir := os.Getenv("HELPDEX_DATA"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".helpdex"
	}
	return filepath.Join(home, ".helpdex")
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Logs go to stderr: the serve command speaks MCP on stdout.
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("helpdex"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'helpdex --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	m.Store = helpdexslog.NewLoggingStore(sqlite.NewStore(filepath.Join(m.DataDir, "index")), logger)
	deps.Store = m.Store
	deps.Topics = helpdexslog.NewLoggingDocumentSource(goquery.NewDocumentSource(logger), logger)
	deps.TOC = &goquery.TOCSource{}

	// Commands that touch the embedding API get a Gemini-backed embedder.
	switch cmd {
	case "ingest", "search", "serve":
		model, rps := embedderSettings(cmd, cli)
		embedder, err := newEmbedder(ctx, model, rps)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: set GEMINI_API_KEY to enable embedding requests")
			return err
		}
		deps.Embedder = embedder
	}

	return kongCtx.Run(deps)
}

func embedderSettings(cmd string, cli *CLI) (model string, rps float64) {
	switch cmd {
	case "ingest":
		return cli.Ingest.Model, cli.Ingest.RPS
	case "search":
		return cli.Search.Model, cli.Search.RPS
	case "serve":
		return cli.Serve.Model, cli.Serve.RPS
	}
	return "", 0
}

func newEmbedder(ctx context.Context, model string, rps float64) (helpdex.Embedder, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return gemini.NewEmbedder(client, model, rps), nil
}
