package store

import (
	"context"

	"github.com/uptrace/bun"
)

// Columns overwritten when a video is upserted again. published_at is included because the
// owner can reschedule a premiere.
var videoUpdateColumns = []string{
	"channel_id",
	"title",
	"thumbnail_url",
	"published_at",
	"view_count",
	"like_count",
	"comment_count",
	"duration",
	"analytics_views",
	"estimated_minutes_watched",
	"estimated_revenue",
	"average_view_duration",
	"average_view_percentage",
	"subscribers_gained",
	"impressions",
	"impressions_ctr",
	"engaged_views",
	"end_screen_ctr",
	"last_updated",
}

// UpsertVideos writes the records in a single statement. Re-running it with the same input
// leaves the table unchanged.
func (s *Store) UpsertVideos(ctx context.Context, records []VideoRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := upsertVideosQuery(s.db, records).Exec(ctx)
	return err
}

func upsertVideosQuery(db bun.IDB, records []VideoRecord) *bun.InsertQuery {
	q := db.NewInsert().Model(&records).On("CONFLICT (video_id) DO UPDATE")
	for _, col := range videoUpdateColumns {
		q = q.Set(col + " = EXCLUDED." + col)
	}
	return q
}

// TopVideosByAnalyticsViews returns the channel's most viewed videos according to the last
// analytics snapshot. When videoIDs is not empty the selection is restricted to them.
func (s *Store) TopVideosByAnalyticsViews(ctx context.Context, channelID string, videoIDs []string, limit int) ([]VideoRecord, error) {
	records := make([]VideoRecord, 0, limit)
	err := topVideosQuery(s.db, &records, channelID, videoIDs, limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func topVideosQuery(db bun.IDB, dest *[]VideoRecord, channelID string, videoIDs []string, limit int) *bun.SelectQuery {
	q := db.NewSelect().
		Model(dest).
		Column("video_id", "title", "duration", "analytics_views").
		Where("channel_id = ?", channelID)
	if len(videoIDs) > 0 {
		q = q.Where("video_id IN (?)", bun.In(videoIDs))
	}
	return q.Order("analytics_views DESC", "video_id ASC").Limit(limit)
}

// ListVideosByChannel returns every stored video of a channel, most viewed first.
func (s *Store) ListVideosByChannel(ctx context.Context, channelID string) ([]VideoRecord, error) {
	records := make([]VideoRecord, 0)
	err := s.db.NewSelect().
		Model(&records).
		Where("channel_id = ?", channelID).
		Order("analytics_views DESC", "video_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) VideosByIDs(ctx context.Context, videoIDs []string) ([]VideoRecord, error) {
	records := make([]VideoRecord, 0, len(videoIDs))
	if len(videoIDs) == 0 {
		return records, nil
	}
	err := s.db.NewSelect().
		Model(&records).
		Column("video_id", "title", "thumbnail_url").
		Where("video_id IN (?)", bun.In(videoIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
