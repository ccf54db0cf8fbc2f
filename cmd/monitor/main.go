package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/scorethread/scorethread/internal/app"
	"github.com/scorethread/scorethread/internal/config"
	"github.com/scorethread/scorethread/internal/observability"
	"github.com/scorethread/scorethread/internal/platform/logging"
	"github.com/scorethread/scorethread/internal/usecase"
)

const dateLayout = "2006-01-02"

func main() {
	mode := flag.String("mode", "cycle", "cycle | ingest | daily | backfill")
	once := flag.Bool("once", false, "run a single cycle instead of polling (cycle mode)")
	date := flag.String("date", "", "target date as YYYY-MM-DD, default today UTC (ingest and daily modes)")
	from := flag.String("from", "", "backfill range start as YYYY-MM-DD")
	to := flag.String("to", "", "backfill range end as YYYY-MM-DD, default -from")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownUptrace(shutdownCtx); err != nil {
			logger.Error("shutdown uptrace", "error", err)
		}
	}()

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stopPyroscope(); err != nil {
			logger.Error("stop pyroscope", "error", err)
		}
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close app", "error", err)
		}
	}()

	if err := run(ctx, application, *mode, *once, *date, *from, *to); err != nil {
		logger.Error("run", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.App, mode string, once bool, date, from, to string) error {
	switch mode {
	case "cycle":
		if once {
			return application.Monitor.RunCycle(ctx, time.Now().UTC())
		}
		return runLoop(ctx, application)
	case "ingest":
		day, err := parseDate(date)
		if err != nil {
			return err
		}
		inserted, err := application.Ingestion.IngestScoreboard(ctx, day)
		if err != nil {
			return err
		}
		application.Logger.Info("ingest finished", "date", day.Format(dateLayout), "inserted", inserted)
		return nil
	case "daily":
		day, err := parseDate(date)
		if err != nil {
			return err
		}
		return application.Ingestion.PostDailySummary(ctx, day)
	case "backfill":
		return runBackfill(ctx, application, from, to)
	default:
		return fmt.Errorf("unknown mode %q: valid modes are cycle, ingest, daily, backfill", mode)
	}
}

func runLoop(ctx context.Context, application *app.App) error {
	interval := application.Config.PollInterval
	application.Logger.Info("monitor loop starting", "poll_interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := application.Monitor.RunCycle(ctx, time.Now().UTC()); err != nil {
		application.Logger.Error("cycle failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			application.Logger.Info("monitor loop stopping")
			return nil
		case <-ticker.C:
			if err := application.Monitor.RunCycle(ctx, time.Now().UTC()); err != nil {
				application.Logger.Error("cycle failed", "error", err)
			}
		}
	}
}

func runBackfill(ctx context.Context, application *app.App, from, to string) error {
	if from == "" {
		return fmt.Errorf("backfill requires -from")
	}
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return fmt.Errorf("parse -from: %w", err)
	}
	end := start
	if to != "" {
		end, err = time.Parse(dateLayout, to)
		if err != nil {
			return fmt.Errorf("parse -to: %w", err)
		}
	}

	result, err := application.Backfill.Backfill(ctx, usecase.BackfillInput{
		From:       start,
		To:         end,
		MaxWorkers: application.Config.BackfillMaxWorkers,
	})
	if err != nil {
		return err
	}

	out, err := sonic.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("render backfill result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse -date: %w", err)
	}
	return day, nil
}
