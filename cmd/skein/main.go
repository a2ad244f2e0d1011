package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/pellmark/skein/internal/config"
	"github.com/pellmark/skein/internal/ingest"
	"github.com/pellmark/skein/internal/mcp"
	"github.com/pellmark/skein/internal/realtime"
	"github.com/pellmark/skein/internal/store"
	"github.com/pellmark/skein/internal/topics"
	"github.com/pellmark/skein/internal/web"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "ingest":
		if err := runIngest(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "topics":
		if err := runTopics(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("skein %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func openStore(resolved config.ResolvedConfig) (store.Store, error) {
	s, err := store.NewStore(store.StoreConfig{DBPath: resolved.DBPath.Value})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (overrides config)")
	dbPath := fs.String("db", "", "database path (overrides config)")
	cfgPath := fs.String("config", "", "config file path")
	mcpMode := fs.Bool("mcp", false, "serve the MCP surface on stdio instead of HTTP")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: *cfgPath,
		CLIDBPath:  *dbPath,
		CLIAddr:    *addr,
	})
	if err != nil {
		return err
	}

	st, err := openStore(resolved)
	if err != nil {
		return err
	}
	defer st.Close()

	if *mcpMode {
		srv := mcp.NewServer(mcp.ServerConfig{Store: st, Version: version})
		return mcpserver.ServeStdio(srv)
	}

	log := newLogger()
	log.Info("starting skein",
		"version", version,
		"addr", resolved.Addr.Value,
		"addr_source", resolved.Addr.Source,
		"db", resolved.DBPath.Value,
	)

	perPage, _ := strconv.Atoi(resolved.TopicsPerPage.Value)
	srv, err := web.NewServer(st, realtime.NewServer(st, log), web.Options{
		Addr:    resolved.Addr.Value,
		Order:   webOrder(resolved.TopicsOrder.Value),
		PerPage: perPage,
	}, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}

// webOrder maps config order names onto the query-string vocabulary.
func webOrder(order string) string {
	if order == "activity" {
		return "time"
	}
	return order
}

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	batch := fs.String("batch", "", "provenance label for this run")
	workers := fs.Int("workers", 0, "concurrent taggers (0 = one per CPU)")
	maxLines := fs.Int("max-lines", 0, "stop after this many lines (0 = all)")
	dryRun := fs.Bool("dry-run", false, "tag but don't store")
	dbPath := fs.String("db", "", "database path (overrides config)")
	cfgPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: skein ingest <file.jsonl> [--batch name] [--workers n] [--max-lines n] [--dry-run]")
	}
	path := fs.Arg(0)

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: *cfgPath,
		CLIDBPath:  *dbPath,
	})
	if err != nil {
		return err
	}
	if *workers == 0 {
		if n, err := strconv.Atoi(resolved.IngestWorkers.Value); err == nil {
			*workers = n
		}
	}

	st, err := openStore(resolved)
	if err != nil {
		return err
	}
	defer st.Close()

	var in io.Reader
	if path == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening dump: %w", err)
		}
		defer f.Close()
		in = f
	}

	if *dryRun {
		fmt.Println("Dry run mode — no changes will be written")
		fmt.Println()
	}

	log := newLogger()
	engine := ingest.NewEngine(st, log)
	res, err := engine.Run(context.Background(), in, ingest.Options{
		Batch:    *batch,
		Workers:  *workers,
		MaxLines: *maxLines,
		DryRun:   *dryRun,
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(res.String())
	return nil
}

func runTopics(args []string) error {
	fs := flag.NewFlagSet("topics", flag.ExitOnError)
	order := fs.String("order", "", "ranking order: time or posts")
	limit := fs.Int("limit", 20, "number of topics to show")
	dbPath := fs.String("db", "", "database path (overrides config)")
	cfgPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: *cfgPath,
		CLIDBPath:  *dbPath,
		CLIOrder:   *order,
	})
	if err != nil {
		return err
	}

	st, err := openStore(resolved)
	if err != nil {
		return err
	}
	defer st.Close()

	page, err := topics.List(context.Background(), st,
		webOrder(resolved.TopicsOrder.Value), 1, *limit)
	if err != nil {
		return err
	}

	if len(page.Topics) == 0 {
		fmt.Println("No topics yet. Run `skein ingest <file.jsonl>` first.")
		return nil
	}

	fmt.Printf("%-8s %-24s %8s %8s  %s\n", "ID", "TOPIC", "STORY", "POOL", "LAST ACTIVITY")
	for _, tp := range page.Topics {
		last := "-"
		if !tp.LastActivity.IsZero() {
			last = tp.LastActivity.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-8d %-24s %8d %8d  %s\n",
			tp.SubjectID, tp.Label, tp.UsedCount, tp.AvailableCount, last)
	}
	fmt.Printf("\n%d topics total\n", page.Total)
	return nil
}

func printUsage() {
	fmt.Printf(`skein %s — collaborative stories woven from comment dumps

Usage:
  skein <command> [arguments]

Commands:
  serve               Serve the web UI and realtime story rooms
  ingest <file>       Ingest a JSONL comment dump ("-" reads stdin)
  topics              Show the ranked topic listing
  version             Print version

Serve Flags:
  --addr <addr>       Listen address (default %s)
  --db <path>         SQLite database path
  --config <path>     Config file (default ~/.skein/config.yaml)
  --mcp               Serve the MCP surface on stdio instead of HTTP

Ingest Flags:
  --batch <name>      Provenance label for this run
  --workers <n>       Concurrent taggers (default: one per CPU)
  --max-lines <n>     Stop after n lines
  --dry-run           Tag but don't store

Topics Flags:
  --order <order>     time (recent activity) or posts (story length)
  --limit <n>         Topics to show (default 20)

Environment:
  SKEIN_DB, SKEIN_ADDR, SKEIN_TOPICS_ORDER override the config file.
`, version, config.DefaultAddr)
}
