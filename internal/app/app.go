package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	_ "github.com/lib/pq"

	"github.com/scorethread/scorethread/external/bluesky"
	"github.com/scorethread/scorethread/external/espn"
	"github.com/scorethread/scorethread/internal/config"
	"github.com/scorethread/scorethread/internal/domain/apiquery"
	"github.com/scorethread/scorethread/internal/infrastructure/repository/postgres"
	"github.com/scorethread/scorethread/internal/platform/logging"
	"github.com/scorethread/scorethread/internal/platform/resilience"
	"github.com/scorethread/scorethread/internal/usecase"
)

// App owns the wired object graph for one process: DB handle, upstream
// clients, repositories and the services the commands call into.
type App struct {
	Config config.Config
	Logger *logging.Logger
	DB     *sqlx.DB

	Games   *postgres.GameRepository
	Posts   *postgres.PostRepository
	Queries *postgres.QueryRepository

	ESPN    *espn.Client
	Bluesky *bluesky.Client

	Ingestion *usecase.IngestionService
	Monitor   *usecase.MonitorService
	Backfill  *usecase.BackfillService
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	games := postgres.NewGameRepository(db)
	posts := postgres.NewPostRepository(db)
	queries := postgres.NewQueryRepository(db)

	espnClient := espn.NewClient(espn.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.ESPNTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:    cfg.ESPNBaseURL,
		MaxRetries: cfg.ESPNMaxRetries,
		Logger:     logger,
		Recorder:   &queryRecorder{repo: queries, logger: logger},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ESPNCircuitEnabled,
			FailureThreshold: cfg.ESPNCircuitFailureCount,
			OpenTimeout:      cfg.ESPNCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ESPNCircuitHalfOpenMaxReq,
		},
	})

	blueskyClient := bluesky.NewClient(bluesky.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		ServiceURL: cfg.BlueskyBaseURL,
		Identifier: cfg.BlueskyHandle,
		Password:   cfg.BlueskyAppPassword,
		Logger:     logger,
	})

	ingestion := usecase.NewIngestionService(espnClient, games, posts, blueskyClient, usecase.IngestionConfig{
		Group:         cfg.ESPNGroup,
		SelectedTeams: cfg.TrackTeams,
	}, logger)

	resolver := usecase.NewReplyChainResolver(posts)
	monitor := usecase.NewMonitorService(espnClient, blueskyClient, games, posts, resolver, ingestion, usecase.MonitorConfig{
		HeaderLookback: cfg.HeaderLookback,
		Filter:         usecase.KeywordUpdateFilter(cfg.UpdateKeywords),
	}, logger)

	backfill := usecase.NewBackfillService(ingestion, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Games:     games,
		Posts:     posts,
		Queries:   queries,
		ESPN:      espnClient,
		Bluesky:   blueskyClient,
		Ingestion: ingestion,
		Monitor:   monitor,
		Backfill:  backfill,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dsn)),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// queryRecorder adapts the audit repository to the provider's recorder
// hook. Insert failures are logged and swallowed so auditing can never
// break a fetch.
type queryRecorder struct {
	repo   *postgres.QueryRepository
	logger *logging.Logger
}

func (r *queryRecorder) RecordQuery(ctx context.Context, url string, statusCode int) {
	err := r.repo.Insert(ctx, apiquery.Query{
		URL:        url,
		StatusCode: statusCode,
		DateTS:     time.Now().UTC(),
	})
	if err != nil {
		r.logger.WarnContext(ctx, "record api query failed", "url", url, "error", err)
	}
}
