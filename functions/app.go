package functions

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/google/uuid"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/auth"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/config"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/ingest"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/period"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/sales"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

func init() {
	functions.HTTP("sync", entry("sync", (*Handlers).Sync))
	functions.HTTP("credential", entry("credential", (*Handlers).Credential))
	functions.HTTP("dashboard", entry("dashboard", (*Handlers).Dashboard))
	functions.HTTP("videoDetail", entry("videoDetail", (*Handlers).VideoDetail))
	functions.HTTP("sales", entry("sales", (*Handlers).Sales))
	functions.HTTP("salesDeals", entry("salesDeals", (*Handlers).SalesDeals))
	functions.HTTP("links", entry("links", (*Handlers).Links))
}

type Syncer interface {
	Sync(ctx context.Context, req ingest.SyncRequest) (ingest.SyncResult, error)
}

type CredentialSaver interface {
	SaveCredential(ctx context.Context, channelID, refreshToken string) error
}

type SalesReporter interface {
	Rank(ctx context.Context, p period.Period) ([]sales.RankingItem, error)
	Summary(ctx context.Context, p period.Period) (sales.Summary, error)
	Dashboard(ctx context.Context, p period.Period) (sales.Dashboard, error)
	DealsByVideo(ctx context.Context, videoID string) ([]store.Deal, error)
}

type VideoReader interface {
	ListVideosByChannel(ctx context.Context, channelID string) ([]store.VideoRecord, error)
	RetentionByVideo(ctx context.Context, videoID string) ([]store.RetentionPoint, error)
	TrafficByVideo(ctx context.Context, videoID string) ([]store.TrafficSourceRow, error)
}

type LinkRegistry interface {
	ListLinks(ctx context.Context) ([]store.Link, error)
	SaveLink(ctx context.Context, link *store.Link) error
	DeleteLink(ctx context.Context, id uuid.UUID) error
}

// Handlers serves every HTTP function from one set of dependencies.
type Handlers struct {
	Syncer      Syncer
	Credentials CredentialSaver
	Reports     SalesReporter
	Videos      VideoReader
	LinkStore   LinkRegistry
}

type runtime struct {
	cfg      *config.Config
	handlers *Handlers
	flusher  Flush
}

var (
	runtimeOnce sync.Once
	shared      *runtime
)

// loadRuntime builds the shared dependencies on the first invocation of any function.
// Configuration and tracing failures panic without returning an error response, so
// Cloud Scheduler does not keep retrying a misconfigured deployment.
func loadRuntime() *runtime {
	runtimeOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			slog.Error("Failed to load configuration", slog.Group("config", "error", err))
			panic(err)
		}

		tp, err := InitTracing(cfg)
		if err != nil {
			slog.Error("Failed to initialize tracing",
				slog.Group("tracing", slog.Group("initTracing", "error", err)),
			)
			panic(err)
		}

		db, err := store.NewDBClient(cfg.DSN)
		if err != nil {
			slog.Error("Failed to create Database client", slog.Group("database", "error", err))
			panic(err)
		}
		st := store.New(db)

		broker := auth.NewBroker(st, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTokenURL)
		orchestrator := ingest.NewOrchestrator(broker, st, ingest.NewGoogleClients(), ingest.Options{
			BatchSize:    cfg.BatchSize,
			DeepDiveTopN: cfg.DeepDiveTopN,
			LagDays:      cfg.LagDays,
		})
		aggregator := sales.NewAggregator(
			st,
			period.NewCalculator(),
			sales.NewStageClassifier(cfg.WonKeywords, cfg.LostKeywords),
			cfg.DealChunkSize,
		)

		shared = &runtime{
			cfg: cfg,
			handlers: &Handlers{
				Syncer:      orchestrator,
				Credentials: broker,
				Reports:     aggregator,
				Videos:      st,
				LinkStore:   st,
			},
			flusher: tp,
		}
	})
	return shared
}

// entry defers building the instrumented handler until the function is first invoked.
func entry(name string, fn func(*Handlers, http.ResponseWriter, *http.Request)) HttpHandler {
	var (
		once    sync.Once
		handler HttpHandler
	)
	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			rt := loadRuntime()
			handler = InstrumentedHandler(name, func(w http.ResponseWriter, r *http.Request) {
				slog.SetDefault(NewCustomLogger(rt.cfg.ServiceName, rt.cfg.ProjectID))
				fn(rt.handlers, w, r)
			}, rt.flusher)
		})
		handler(w, r)
	}
}
