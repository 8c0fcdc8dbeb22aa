package ingest

import (
	"context"
	"time"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

// Analytics API metric names.
const (
	metricViews          = "views"
	metricMinutesWatched = "estimatedMinutesWatched"
	metricRevenue        = "estimatedRevenue"
	metricAvgDuration    = "averageViewDuration"
	metricAvgPercentage  = "averageViewPercentage"
	metricSubscribers    = "subscribersGained"
	metricImpressions    = "videoThumbnailImpressions"
	metricImpressionsCTR = "videoThumbnailImpressionsClickRate"
	metricEngagedViews   = "engagedViews"
	metricEndScreenCTR   = "cardClickRate"
	metricWatchRatio     = "audienceWatchRatio"

	dimVideo        = "video"
	dimSourceType   = "insightTrafficSourceType"
	dimSourceDetail = "insightTrafficSourceDetail"
	dimElapsedRatio = "elapsedVideoTimeRatio"
)

// healthMetrics builds the Tier-1 metric list. The revenue metric needs the monetary scope,
// which channels without a partner program do not grant.
func healthMetrics(withRevenue bool) []string {
	m := []string{
		metricViews,
		metricMinutesWatched,
		metricAvgDuration,
		metricAvgPercentage,
		metricSubscribers,
		metricImpressions,
		metricImpressionsCTR,
		metricEngagedViews,
		metricEndScreenCTR,
	}
	if withRevenue {
		m = append(m, metricRevenue)
	}
	return m
}

type VideoStore interface {
	UpsertVideos(ctx context.Context, records []store.VideoRecord) error
}

// MetricsUpserter merges Data API metadata with the health report into canonical records.
type MetricsUpserter struct {
	store VideoStore
	now   func() time.Time
}

func NewMetricsUpserter(st VideoStore, now func() time.Time) *MetricsUpserter {
	return &MetricsUpserter{store: st, now: now}
}

// Merge returns one record per video in metas. Every analytics field starts at zero and is
// only overwritten by columns the report actually carries, so a missing metric persists as 0.
func (m *MetricsUpserter) Merge(channelID string, metas []VideoMeta, health *Report) []store.VideoRecord {
	rows := make(map[string][]interface{})
	if videoCol := health.Column(dimVideo); videoCol >= 0 {
		for _, row := range health.Rows {
			rows[cellString(row, videoCol)] = row
		}
	}

	updated := m.now().UTC()
	records := make([]store.VideoRecord, 0, len(metas))
	for _, meta := range metas {
		rec := store.VideoRecord{
			VideoID:      meta.ID,
			ChannelID:    meta.ChannelID,
			Title:        meta.Title,
			ThumbnailURL: meta.ThumbnailURL,
			PublishedAt:  meta.PublishedAt,
			ViewCount:    meta.ViewCount,
			LikeCount:    meta.LikeCount,
			CommentCount: meta.CommentCount,
			Duration:     meta.Duration,
			LastUpdated:  updated,
		}
		if rec.ChannelID == "" {
			rec.ChannelID = channelID
		}
		if row, ok := rows[meta.ID]; ok {
			applyHealth(&rec, health, row)
		}
		records = append(records, rec)
	}
	return records
}

func applyHealth(rec *store.VideoRecord, health *Report, row []interface{}) {
	for i, col := range health.Columns {
		switch col {
		case metricViews:
			rec.AnalyticsViews = cellInt(row, i)
		case metricMinutesWatched:
			rec.EstimatedMinutesWatched = cellFloat(row, i)
		case metricRevenue:
			rec.EstimatedRevenue = cellFloat(row, i)
		case metricAvgDuration:
			rec.AverageViewDuration = cellFloat(row, i)
		case metricAvgPercentage:
			rec.AverageViewPercentage = cellFloat(row, i)
		case metricSubscribers:
			rec.SubscribersGained = cellInt(row, i)
		case metricImpressions:
			rec.Impressions = cellInt(row, i)
		case metricImpressionsCTR:
			rec.ImpressionsCTR = cellFloat(row, i)
		case metricEngagedViews:
			rec.EngagedViews = cellInt(row, i)
		case metricEndScreenCTR:
			rec.EndScreenCTR = cellFloat(row, i)
		}
	}
}

// Upsert merges and persists one batch with a single statement.
func (m *MetricsUpserter) Upsert(ctx context.Context, channelID string, metas []VideoMeta, health *Report) ([]store.VideoRecord, error) {
	records := m.Merge(channelID, metas, health)
	if err := m.store.UpsertVideos(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}
