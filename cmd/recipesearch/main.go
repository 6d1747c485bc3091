// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/recipesearch"
	"github.com/poiesic/recipesearch/ai"
	"github.com/poiesic/recipesearch/filter"
	"github.com/poiesic/recipesearch/importer"
	"github.com/poiesic/recipesearch/metrics"
	"github.com/poiesic/recipesearch/remote"
	"github.com/poiesic/recipesearch/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

const (
	modeLocal  = "local"
	modeRemote = "remote"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
	collectionFlag := &cli.StringFlag{
		Name:    "collection",
		Aliases: []string{"c"},
		Usage:   "Restrict to one collection (default: all collections)",
	}
	thresholdFlag := &cli.Float64Flag{
		Name:  "threshold",
		Usage: "Minimum similarity score for a match",
		Value: filter.DefaultThreshold,
	}

	return &cli.App{
		Name:      "recipesearch",
		Usage:     "Semantic search over recipe tickets",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Import tickets and recipes from a YAML fixture",
				Action: importCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the YAML fixture",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of tickets written per transaction",
						Value: importer.DefaultBatchSize,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List stored tickets in collection order",
				Action: listCommand,
				Flags:  []cli.Flag{dbFlag, collectionFlag},
			},
			{
				Name:      "search",
				Usage:     "Search tickets with a natural-language query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag,
					collectionFlag,
					thresholdFlag,
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search backend to try first (local, remote)",
						Value: modeLocal,
					},
					&cli.StringFlag{
						Name:  "endpoint",
						Usage: "Remote search endpoint used for remote mode and fallback",
					},
					&cli.StringFlag{
						Name:  "vocabulary",
						Usage: "YAML vocabulary overriding the local model's synonyms and weights",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the remote search endpoint",
				Action: serveCommand,
				Flags: []cli.Flag{
					dbFlag,
					thresholdFlag,
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: server.DefaultConfig().ListenAddr,
					},
					&cli.StringFlag{
						Name:  "backend",
						Usage: "Embedding backend (local, openai)",
						Value: string(ai.BackendLocal),
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL for the openai backend",
						Value: ai.DefaultConfig().EmbeddingHost,
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name for the openai backend",
						Value: ai.DefaultConfig().EmbeddingModel,
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "API token for the openai backend",
						EnvVars: []string{"RECIPESEARCH_EMBEDDING_TOKEN"},
					},
					&cli.StringFlag{
						Name:  "vocabulary",
						Usage: "YAML vocabulary overriding the local model's synonyms and weights",
					},
					&cli.BoolFlag{
						Name:  "metrics",
						Usage: "Expose Prometheus metrics on /metrics",
						Value: true,
					},
				},
			},
		},
	}
}

func importCommand(c *cli.Context) error {
	fixture, err := importer.LoadFixture(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to load fixture: %w", err)
	}

	db, err := recipesearch.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	imp, err := db.NewImporter(
		importer.WithBatchSize(c.Int("batch-size")),
		importer.WithProgress(c.App.ErrWriter),
	)
	if err != nil {
		return err
	}

	result, err := imp.ImportFixture(c.Context, fixture)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Imported %d tickets and %d recipes in %s\n",
		result.Tickets, result.Recipes, result.Elapsed.Round(time.Millisecond))
	return nil
}

func listCommand(c *cli.Context) error {
	db, err := recipesearch.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tickets, err := db.TicketRepository().ListTickets(c.Context, c.String("collection"))
	if err != nil {
		return err
	}
	for _, t := range tickets {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%d\t%s\n", t.Id, t.CollectionId, t.Position, headline(t.Content))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a query is required")
	}

	mode := c.String("mode")
	endpoint := c.String("endpoint")
	switch mode {
	case modeLocal:
	case modeRemote:
		if endpoint == "" {
			return errors.New("--endpoint is required in remote mode")
		}
	default:
		return fmt.Errorf("invalid mode %q: must be one of local, remote", mode)
	}

	aiConfig := ai.NewConfig(ai.WithVocabularyPath(c.String("vocabulary")))
	db, err := recipesearch.NewDatabase(c.String("db"), recipesearch.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var fallback filter.RemoteSearcher
	if endpoint != "" {
		fallback = remote.NewClient(endpoint)
	}

	controller, err := db.NewController(fallback,
		filter.WithThreshold(c.Float64("threshold")),
		filter.WithLocalMode(mode == modeLocal),
		filter.WithObserver(&noticePrinter{w: c.App.ErrWriter}),
	)
	if err != nil {
		return err
	}

	candidates, err := db.CollectionCorpus(c.Context, c.String("collection"))
	if err != nil {
		return err
	}

	state := controller.Submit(c.Context, query, candidates)
	switch state.Status {
	case filter.StatusError:
		return errors.New(state.Error)
	case filter.StatusNoResults:
		fmt.Fprintln(c.App.Writer, "No matching recipes")
		return nil
	}

	tickets, err := db.TicketRepository().GetTickets(c.Context, state.Matches...)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", t.Id, headline(t.Content))
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	backend, err := ai.ParseBackend(c.String("backend"))
	if err != nil {
		return err
	}
	aiConfig := ai.NewConfig(
		ai.WithBackend(backend),
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("token")),
		ai.WithVocabularyPath(c.String("vocabulary")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	var m *metrics.Metrics
	if c.Bool("metrics") {
		if m, err = metrics.New(prometheus.DefaultRegisterer); err != nil {
			return err
		}
	}

	db, err := recipesearch.NewDatabase(c.String("db"),
		recipesearch.WithAIConfig(aiConfig),
		recipesearch.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.Searcher()
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.ListenAddr = c.String("addr")
	cfg.Threshold = c.Float64("threshold")
	srv, err := server.New(cfg, searcher, db, server.WithMetrics(m))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting search server", "addr", cfg.ListenAddr, "backend", backend)
	return srv.Start(ctx)
}

// noticePrinter shows backend switches to the user.
type noticePrinter struct {
	w io.Writer
}

var _ filter.Observer = (*noticePrinter)(nil)

func (p *noticePrinter) StateChanged(filter.State) {}

func (p *noticePrinter) BackendSwitched(message string) {
	fmt.Fprintln(p.w, message)
}

// headline returns the first non-blank line of a ticket.
func headline(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
