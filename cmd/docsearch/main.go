// Command docsearch manages and searches a document corpus from the shell.
// It talks to the configured store directly; with no -config it uses the
// embedded store under ./data.
//
// Usage:
//
//	docsearch ingest reports/*.pdf notes.txt
//	docsearch search --debug "budget report"
//	docsearch list
//	docsearch delete 42
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/documents"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/service"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/logger"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "docsearch",
		Usage:  "Ingest, search and manage documents",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config; without it the embedded store is used",
			},
			&cli.StringFlag{
				Name:    "store-dir",
				Aliases: []string{"d"},
				Usage:   "Embedded store directory (forces the badger driver)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: func(c *cli.Context) error {
			slog.SetDefault(logger.New(os.Stderr, c.String("log-level"), "text"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Add PDF or TXT files to the corpus",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files processed concurrently (0 uses the config value)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Rank the corpus against a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Include the scoring breakdown",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the raw ranking output",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List stored documents, newest first",
				Action: listCommand,
			},
			{
				Name:      "delete",
				Usage:     "Remove a document",
				ArgsUsage: "ID",
				Action:    deleteCommand,
			},
		},
	}
}

// loadConfig resolves the configuration for one command invocation.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if !c.IsSet("config") && os.Getenv("DS_STORAGE_DRIVER") == "" {
		cfg.Storage.Driver = config.DriverBadger
	}
	if dir := c.String("store-dir"); dir != "" {
		cfg.Storage.Driver = config.DriverBadger
		cfg.Storage.BadgerDir = dir
	}
	return cfg, nil
}

func openStore(c *cli.Context) (documents.Store, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	store, err := documents.Open(c.Context, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening document store: %w", err)
	}
	return store, cfg, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}
	store, cfg, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	workers := c.Int("workers")
	if workers <= 0 {
		workers = cfg.Ingestion.BulkWorkers
	}
	svc := service.New(
		store,
		validator.New(cfg.Ingestion.MaxUploadBytes, cfg.Ingestion.AllowedExtensions),
		tokenizer.NewAnalyzer(nil),
		service.WithBulkWorkers(workers),
	)

	uploads := make([]ingestion.Upload, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		uploads = append(uploads, ingestion.Upload{Filename: filepath.Base(path), Data: data})
	}

	results, err := svc.BulkIngest(c.Context, uploads)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(c.App.Writer, "FAIL %s: %s\n", r.Filename, apperrors.PublicMessage(r.Err, r.Err.Error()))
			continue
		}
		fmt.Fprintf(c.App.Writer, "OK   %s -> #%d %q\n", r.Filename, r.Document.ID, r.Document.Filename)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("a query is required")
	}
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	out, err := executor.New(store, nil, nil).Execute(c.Context, query, c.Bool("debug"))
	if err != nil {
		return err
	}
	res := out.Result
	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	w := c.App.Writer
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
		return nil
	}
	if info := res.QueryInfo; info != nil {
		fmt.Fprintf(w, "terms: %s", strings.Join(info.OriginalTerms, " "))
		if len(info.FuzzyMatches) > 0 {
			fmt.Fprintf(w, "  (fuzzy: %s)", strings.Join(info.FuzzyMatches, " "))
		}
		fmt.Fprintf(w, "\nfound %d of %d documents\n\n", res.TotalFound, info.TotalDocuments)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tID\tFILENAME")
	for i, hit := range res.Results {
		fmt.Fprintf(tw, "%d\t%.4f\t%d\t%s\n", i+1, hit.Score, hit.ID, hit.Filename)
		if d := hit.Details; d != nil {
			fmt.Fprintf(tw, "\ttfidf=%.4f cosine=%.4f boost=%.1f\t\t\n", d.TFIDFScore, d.CosineSimilarity, d.FilenameBoost)
		}
	}
	return tw.Flush()
}

func listCommand(c *cli.Context) error {
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.List(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTERMS\tFILENAME")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", d.ID, d.CreatedAt.Local().Format("2006-01-02 15:04"), len(tokenizer.Split(d.Content)), d.Filename)
	}
	return tw.Flush()
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid document ID %q", c.Args().First())
	}
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Delete(c.Context, id)
	if errors.Is(err, apperrors.ErrDocumentNotFound) {
		return fmt.Errorf("document %d not found", id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted #%d %q\n", doc.ID, doc.Filename)
	return nil
}
