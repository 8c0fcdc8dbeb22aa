package functions

import (
	"time"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

type SyncRequest struct {
	ChannelID string   `json:"channelId"`
	VideoIDs  []string `json:"videoIds"`
	DeepDive  *bool    `json:"deepDive"`
}

type SyncResponse struct {
	Success        bool `json:"success"`
	ProcessedCount int  `json:"processedCount"`
}

type CredentialRequest struct {
	ChannelID    string `json:"channelId"`
	RefreshToken string `json:"refreshToken"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// VideoSummary is one row of the channel dashboard.
type VideoSummary struct {
	VideoID               string    `json:"videoId"`
	Title                 string    `json:"title"`
	ThumbnailURL          string    `json:"thumbnailUrl"`
	PublishedAt           time.Time `json:"publishedAt"`
	ViewCount             int64     `json:"viewCount"`
	AnalyticsViews        int64     `json:"analyticsViews"`
	WatchTimeMinutes      float64   `json:"watchTimeMinutes"`
	EstimatedRevenue      float64   `json:"estimatedRevenue"`
	AverageViewPercentage float64   `json:"averageViewPercentage"`
	ImpressionsCTR        float64   `json:"impressionsCtr"`
	SubscribersGained     int64     `json:"subscribersGained"`
	LastUpdated           time.Time `json:"lastUpdated"`
}

func newVideoSummary(v store.VideoRecord) VideoSummary {
	return VideoSummary{
		VideoID:               v.VideoID,
		Title:                 v.Title,
		ThumbnailURL:          v.ThumbnailURL,
		PublishedAt:           v.PublishedAt,
		ViewCount:             v.ViewCount,
		AnalyticsViews:        v.AnalyticsViews,
		WatchTimeMinutes:      v.EstimatedMinutesWatched,
		EstimatedRevenue:      v.EstimatedRevenue,
		AverageViewPercentage: v.AverageViewPercentage,
		ImpressionsCTR:        v.ImpressionsCTR,
		SubscribersGained:     v.SubscribersGained,
		LastUpdated:           v.LastUpdated,
	}
}

type VideoDetail struct {
	VideoID   string                   `json:"videoId"`
	Retention []store.RetentionPoint   `json:"retention"`
	Traffic   []store.TrafficSourceRow `json:"traffic"`
}

type LinkRequest struct {
	VideoID    string `json:"videoId"`
	UTMContent string `json:"utmContent"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}
