package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herald/internal/config"
	"herald/internal/format"
	"herald/internal/loader"
	"herald/internal/logging"
	"herald/internal/state"
	"herald/internal/types"
)

var (
	configPath = flag.String("config", "config.toml", "Path to configuration file")
	envPath    = flag.String("env", ".env", "Path to an optional .env file")
	once       = flag.Bool("once", false, "Run a single aggregation, print it and exit")
	limit      = flag.Int("limit", 0, "Articles per source for -once (defaults to aggregator.default_limit)")
	style      = flag.String("style", "html", "Title label style for -once: html or markdown")
	importOPML = flag.String("import-opml", "", "Import feed sources from an OPML file and exit")
)

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(ctx context.Context, out io.Writer) error {
	if err := config.LoadEnv(*envPath); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	oneShot := *once || *importOPML != ""
	if oneShot {
		cfg.Server.Disable()
	}

	app, err := loader.NewLoader(cfg, logger).Initialize(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := app.Close(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	switch {
	case *importOPML != "":
		return runImport(ctx, app, *importOPML, out)
	case *once:
		return runOnce(ctx, app, out)
	}

	logger.Info("Herald running", "name", cfg.App.Name, "address", cfg.Server.Address)
	<-ctx.Done()
	logger.Info("Initiating shutdown")
	return nil
}

func runImport(ctx context.Context, app *state.State, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open OPML file: %w", err)
	}
	defer f.Close()

	res := app.Service.ImportOPML(ctx, f)
	if !res.Success {
		return fmt.Errorf("import failed: %s", res.Message)
	}

	fmt.Fprintln(out, res.Message)
	return nil
}

type onceOutput struct {
	RunID    string                 `json:"run_id"`
	Articles []types.DisplayArticle `json:"articles"`
	Sources  []types.SourceStatus   `json:"sources"`
}

func runOnce(ctx context.Context, app *state.State, out io.Writer) error {
	n := *limit
	if n == 0 {
		n = app.Config.Aggregator.DefaultLimit
	}

	labelStyle, err := format.ParseStyle(*style)
	if err != nil {
		return err
	}

	report, err := app.Service.Aggregate(ctx, n)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(onceOutput{
		RunID:    report.RunID,
		Articles: format.New(labelStyle).Format(report.Articles),
		Sources:  report.Statuses,
	})
}
