package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Code-Hex/synchro"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/period"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

const (
	tracerName = "github.com/KasumiMercury/patotta-stone-function-revenue/internal/ingest"

	// The Analytics API has no data before YouTube existed; this is the lifetime start.
	lifetimeStart = "2005-01-01"
	dateLayout    = "2006-01-02"

	defaultDetailLimit = 15
)

type Store interface {
	VideoStore
	TrafficStore
	ReplaceRetention(ctx context.Context, videoID string, points []store.RetentionPoint) error
	TopVideosByAnalyticsViews(ctx context.Context, channelID string, videoIDs []string, limit int) ([]store.VideoRecord, error)
}

type TokenRefresher interface {
	Refresh(ctx context.Context, channelID string) (*oauth2.Token, error)
}

type Options struct {
	// BatchSize bounds the ids of one Tier-1 batch.
	BatchSize int
	// DeepDiveTopN is how many videos get the Tier-2 queries.
	DeepDiveTopN int
	// LagDays shifts the Tier-2 end date back to data the provider has consolidated.
	LagDays int
	// DetailLimit caps keyword and suggested-video rows kept per video.
	DetailLimit int
}

type SyncRequest struct {
	ChannelID string
	VideoIDs  []string
	// DeepDive overrides the default, which is on only when VideoIDs is empty.
	DeepDive *bool
}

type SyncResult struct {
	ProcessedCount int
}

type Orchestrator struct {
	tokens  TokenRefresher
	store   Store
	clients ClientFactory
	opts    Options
	metrics *MetricsUpserter
	traffic *TrafficReconciler
	now     func() time.Time
	tracer  trace.Tracer
}

func NewOrchestrator(tokens TokenRefresher, st Store, clients ClientFactory, opts Options) *Orchestrator {
	if opts.BatchSize <= 0 || opts.BatchSize > MaxVideosPerRequest {
		opts.BatchSize = MaxVideosPerRequest
	}
	if opts.DetailLimit <= 0 {
		opts.DetailLimit = defaultDetailLimit
	}
	o := &Orchestrator{
		tokens:  tokens,
		store:   st,
		clients: clients,
		opts:    opts,
		traffic: NewTrafficReconciler(st),
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	o.metrics = NewMetricsUpserter(st, func() time.Time { return o.now() })
	return o
}

// Sync ingests analytics for a channel. Only credential and discovery failures are returned;
// per-batch and per-video failures are logged and the sync continues.
func (o *Orchestrator) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	ctx, span := o.tracer.Start(ctx, "ingest.Sync", trace.WithAttributes(
		attribute.String("channel.id", req.ChannelID),
		attribute.Int("request.video_ids", len(req.VideoIDs)),
	))
	defer span.End()

	tok, err := o.tokens.Refresh(ctx, req.ChannelID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token refresh failed")
		return SyncResult{}, err
	}

	videos, analytics, err := o.clients(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		span.RecordError(err)
		return SyncResult{}, fmt.Errorf("create API clients: %w", err)
	}

	ids := uniqueIDs(req.VideoIDs)
	explicit := len(ids) > 0
	if !explicit {
		ids, err = videos.ListUploads(ctx, req.ChannelID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "discovery failed")
			return SyncResult{}, fmt.Errorf("discover uploads: %w", err)
		}
		ids = uniqueIDs(ids)
	}
	slog.Info("Starting sync",
		slog.Group("sync", "channelId", req.ChannelID, "videos", len(ids), "explicit", explicit),
	)

	processed := 0
	for i, batch := range chunk(ids, o.opts.BatchSize) {
		processed += o.syncBatch(ctx, req.ChannelID, i, batch, videos, analytics)
	}

	deepDive := !explicit
	if req.DeepDive != nil {
		deepDive = *req.DeepDive
	}
	if deepDive && o.opts.DeepDiveTopN > 0 {
		var scope []string
		if explicit {
			scope = ids
		}
		o.deepDive(ctx, req.ChannelID, scope, analytics)
	}

	span.SetAttributes(attribute.Int("sync.processed", processed))
	slog.Info("Sync finished",
		slog.Group("sync", "channelId", req.ChannelID, "processed", processed, "deepDive", deepDive),
	)
	return SyncResult{ProcessedCount: processed}, nil
}

// syncBatch runs Tier 1 for one batch and returns the number of videos persisted.
func (o *Orchestrator) syncBatch(ctx context.Context, channelID string, index int, batch []string, videos VideoSource, analytics AnalyticsSource) int {
	ctx, span := o.tracer.Start(ctx, "ingest.Tier1Batch", trace.WithAttributes(
		attribute.Int("batch.index", index),
		attribute.Int("batch.size", len(batch)),
	))
	defer span.End()

	group := func(args ...any) slog.Attr {
		return slog.Group("tier1", append([]any{"channelId", channelID, "batch", index}, args...)...)
	}

	metas, err := videos.FetchVideos(ctx, batch)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to fetch video metadata, skipping batch", group(slog.Group("YouTubeAPI", "error", err)))
		return 0
	}
	if len(metas) == 0 {
		return 0
	}

	health, ok := o.fetchHealth(ctx, analytics, batch, group)
	if !ok {
		span.SetStatus(codes.Error, "health report unavailable")
		return 0
	}

	trafficReport, err := analytics.Query(ctx, ReportQuery{
		StartDate:  lifetimeStart,
		EndDate:    o.today(),
		Metrics:    []string{metricViews, metricMinutesWatched},
		Dimensions: []string{dimVideo, dimSourceType},
		Filters:    videoFilter(batch),
	})
	if err != nil {
		// Nothing is replaced, the stored aggregates stay.
		slog.Warn("Failed to fetch traffic sources", group(slog.Group("YouTubeAnalyticsAPI", "error", err)))
	}

	records, err := o.metrics.Upsert(ctx, channelID, metas, health.report)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to upsert videos", group(slog.Group("database", "error", err)))
		return 0
	}

	allowed := make(map[string]bool, len(records))
	for _, r := range records {
		allowed[r.VideoID] = true
	}
	if err := o.traffic.ReplaceAggregates(ctx, aggregateRows(trafficReport), allowed); err != nil {
		span.RecordError(err)
	}

	span.SetAttributes(attribute.Bool("batch.has_revenue", health.hasRevenue))
	slog.Info("Batch synced", group("videos", len(records), "hasRevenue", health.hasRevenue))
	return len(records)
}

type healthResult struct {
	report     *Report
	hasRevenue bool
}

// fetchHealth requests the lifetime health report. A 4xx rejection is retried once without
// the revenue metric; if that is rejected too the batch is persisted with zero analytics.
// Any other failure reports !ok and the batch is skipped, so stored metrics are not zeroed
// by a network error.
func (o *Orchestrator) fetchHealth(ctx context.Context, analytics AnalyticsSource, batch []string, group func(...any) slog.Attr) (healthResult, bool) {
	query := func(withRevenue bool) (*Report, error) {
		return analytics.Query(ctx, ReportQuery{
			StartDate:  lifetimeStart,
			EndDate:    o.today(),
			Metrics:    healthMetrics(withRevenue),
			Dimensions: []string{dimVideo},
			Filters:    videoFilter(batch),
		})
	}

	rep, err := query(true)
	if err == nil {
		return healthResult{report: rep, hasRevenue: true}, true
	}
	if !isClientError(err) {
		slog.Error("Failed to fetch health report, skipping batch", group(slog.Group("YouTubeAnalyticsAPI", "error", err)))
		return healthResult{}, false
	}

	slog.Warn("Revenue metric rejected, retrying without it", group(slog.Group("YouTubeAnalyticsAPI", "error", err)))
	rep, err = query(false)
	if err == nil {
		return healthResult{report: rep}, true
	}
	if !isClientError(err) {
		slog.Error("Failed to fetch health report, skipping batch", group(slog.Group("YouTubeAnalyticsAPI", "error", err)))
		return healthResult{}, false
	}

	slog.Warn("Analytics unavailable for channel, persisting zero metrics", group(slog.Group("YouTubeAnalyticsAPI", "error", err)))
	return healthResult{}, true
}

// deepDive runs the Tier-2 queries for the top videos. Every query runs in its own goroutine
// and its failure only affects its own rows.
func (o *Orchestrator) deepDive(ctx context.Context, channelID string, scope []string, analytics AnalyticsSource) {
	ctx, span := o.tracer.Start(ctx, "ingest.Tier2")
	defer span.End()

	top, err := o.store.TopVideosByAnalyticsViews(ctx, channelID, scope, o.opts.DeepDiveTopN)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to select deep dive videos",
			slog.Group("tier2", "channelId", channelID, slog.Group("database", "error", err)),
		)
		return
	}
	span.SetAttributes(attribute.Int("tier2.videos", len(top)))

	end := o.reliableEndDate()
	var wg sync.WaitGroup
	for _, v := range top {
		v := v
		wg.Add(3)
		go func() {
			defer wg.Done()
			o.syncRetention(ctx, analytics, v, end)
		}()
		go func() {
			defer wg.Done()
			o.syncTrafficDetail(ctx, analytics, v.VideoID, SourceSearch, end)
		}()
		go func() {
			defer wg.Done()
			o.syncTrafficDetail(ctx, analytics, v.VideoID, SourceRelated, end)
		}()
	}
	wg.Wait()
}

func (o *Orchestrator) syncRetention(ctx context.Context, analytics AnalyticsSource, video store.VideoRecord, end string) {
	ctx, span := o.tracer.Start(ctx, "ingest.Retention", trace.WithAttributes(attribute.String("video.id", video.VideoID)))
	defer span.End()

	rep, err := analytics.Query(ctx, ReportQuery{
		StartDate:  lifetimeStart,
		EndDate:    end,
		Metrics:    []string{metricWatchRatio},
		Dimensions: []string{dimElapsedRatio},
		Filters:    "video==" + video.VideoID,
	})
	if err != nil {
		span.RecordError(err)
		slog.Warn("Failed to fetch retention curve",
			slog.Group("tier2", "videoId", video.VideoID, "clientError", isClientError(err), slog.Group("YouTubeAnalyticsAPI", "error", err)),
		)
		return
	}

	duration, ok := ParseISODuration(video.Duration)
	if !ok {
		// TODO: decide on a fallback anchor for videos whose duration cannot be parsed.
		slog.Warn("Unknown video duration, retention anchored at second 0",
			slog.Group("tier2", "videoId", video.VideoID, "duration", video.Duration),
		)
	}

	points := BuildRetentionCurve(video.VideoID, duration, rep)
	if err := o.store.ReplaceRetention(ctx, video.VideoID, points); err != nil {
		span.RecordError(err)
		slog.Error("Failed to replace retention curve",
			slog.Group("tier2", "videoId", video.VideoID, slog.Group("database", "error", err)),
		)
	}
}

func (o *Orchestrator) syncTrafficDetail(ctx context.Context, analytics AnalyticsSource, videoID, sourceType, end string) {
	ctx, span := o.tracer.Start(ctx, "ingest.TrafficDetail", trace.WithAttributes(
		attribute.String("video.id", videoID),
		attribute.String("traffic.source_type", sourceType),
	))
	defer span.End()

	rep, err := analytics.Query(ctx, ReportQuery{
		StartDate:  lifetimeStart,
		EndDate:    end,
		Metrics:    []string{metricViews, metricMinutesWatched},
		Dimensions: []string{dimSourceDetail},
		Filters:    fmt.Sprintf("video==%s;%s==%s", videoID, dimSourceType, sourceType),
		Sort:       "-" + metricViews,
		MaxResults: int64(o.opts.DetailLimit),
	})
	if err != nil {
		span.RecordError(err)
		slog.Warn("Failed to fetch traffic detail",
			slog.Group("tier2", "videoId", videoID, "sourceType", sourceType, "clientError", isClientError(err), slog.Group("YouTubeAnalyticsAPI", "error", err)),
		)
		return
	}

	rows := detailRows(videoID, sourceType, rep)
	if len(rows) > o.opts.DetailLimit {
		rows = rows[:o.opts.DetailLimit]
	}
	if err := o.traffic.ReplaceDetails(ctx, videoID, sourceType, rows); err != nil {
		span.RecordError(err)
		slog.Error("Failed to replace traffic detail",
			slog.Group("tier2", "videoId", videoID, "sourceType", sourceType, slog.Group("database", "error", err)),
		)
	}
}

func (o *Orchestrator) today() string {
	return synchro.In[period.BusinessZone](o.now()).Format(dateLayout)
}

// reliableEndDate is today shifted back by the processing lag.
func (o *Orchestrator) reliableEndDate() string {
	return synchro.In[period.BusinessZone](o.now()).AddDate(0, 0, -o.opts.LagDays).Format(dateLayout)
}

func videoFilter(ids []string) string {
	return "video==" + strings.Join(ids, ",")
}

func chunk(ids []string, size int) [][]string {
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

// uniqueIDs trims and deduplicates ids, keeping first occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
