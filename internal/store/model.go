package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VideoRecord is the canonical per-video row: metadata, lifetime stats and the latest
// analytics snapshot. Analytics columns are never NULL.
type VideoRecord struct {
	bun.BaseModel `bun:"table:yt_myvideos,alias:v"`

	VideoID      string    `bun:"video_id,pk" json:"videoId"`
	ChannelID    string    `bun:"channel_id,notnull" json:"channelId"`
	Title        string    `bun:"title" json:"title"`
	ThumbnailURL string    `bun:"thumbnail_url" json:"thumbnailUrl"`
	PublishedAt  time.Time `bun:"published_at,nullzero" json:"publishedAt"`
	ViewCount    int64     `bun:"view_count,notnull,default:0" json:"viewCount"`
	LikeCount    int64     `bun:"like_count,notnull,default:0" json:"likeCount"`
	CommentCount int64     `bun:"comment_count,notnull,default:0" json:"commentCount"`
	Duration     string    `bun:"duration" json:"duration"`

	AnalyticsViews          int64   `bun:"analytics_views,notnull,default:0" json:"analyticsViews"`
	EstimatedMinutesWatched float64 `bun:"estimated_minutes_watched,notnull,default:0" json:"estimatedMinutesWatched"`
	EstimatedRevenue        float64 `bun:"estimated_revenue,notnull,default:0" json:"estimatedRevenue"`
	AverageViewDuration     float64 `bun:"average_view_duration,notnull,default:0" json:"averageViewDuration"`
	AverageViewPercentage   float64 `bun:"average_view_percentage,notnull,default:0" json:"averageViewPercentage"`
	SubscribersGained       int64   `bun:"subscribers_gained,notnull,default:0" json:"subscribersGained"`
	Impressions             int64   `bun:"impressions,notnull,default:0" json:"impressions"`
	ImpressionsCTR          float64 `bun:"impressions_ctr,notnull,default:0" json:"impressionsCtr"`
	EngagedViews            int64   `bun:"engaged_views,notnull,default:0" json:"engagedViews"`
	EndScreenCTR            float64 `bun:"end_screen_ctr,notnull,default:0" json:"endScreenCtr"`

	LastUpdated time.Time `bun:"last_updated,notnull" json:"lastUpdated"`
}

// TrafficSourceRow is one traffic source line of a video. An empty SourceDetail marks the
// aggregate row of its source type.
type TrafficSourceRow struct {
	bun.BaseModel `bun:"table:yt_video_traffic_details,alias:t"`

	ID               int64   `bun:"id,pk,autoincrement" json:"-"`
	VideoID          string  `bun:"video_id,notnull" json:"videoId"`
	SourceType       string  `bun:"source_type,notnull" json:"sourceType"`
	SourceDetail     string  `bun:"source_detail,notnull" json:"sourceDetail"`
	Views            int64   `bun:"views,notnull,default:0" json:"views"`
	WatchTimeMinutes float64 `bun:"watch_time_minutes,notnull,default:0" json:"watchTimeMinutes"`
}

type RetentionPoint struct {
	bun.BaseModel `bun:"table:yt_video_retention_curve,alias:r"`

	ID                  int64   `bun:"id,pk,autoincrement" json:"-"`
	VideoID             string  `bun:"video_id,notnull" json:"videoId"`
	SecondMark          int     `bun:"second_mark,notnull" json:"secondMark"`
	RetentionPercentage float64 `bun:"retention_percentage,notnull" json:"retentionPercentage"`
}

// Link is a tracking link published in a video description. UTMContent keeps the raw
// form for display; matching always goes through normalization.
type Link struct {
	bun.BaseModel `bun:"table:yt_links,alias:l"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	VideoID    string    `bun:"video_id,nullzero" json:"videoId,omitempty"`
	UTMContent string    `bun:"utm_content" json:"utmContent"`
	Title      string    `bun:"title" json:"title"`
	URL        string    `bun:"url" json:"url"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Deal is a CRM record exported from HubSpot. Column names follow the export.
type Deal struct {
	bun.BaseModel `bun:"table:hubspot_negocios,alias:d"`

	NegocioID      string     `bun:"negocio_id,pk" json:"negocioId"`
	UTMContent     string     `bun:"utm_content" json:"utmContent"`
	Valor          float64    `bun:"valor" json:"valor"`
	Etapa          string     `bun:"etapa" json:"etapa"`
	ItemLinha      string     `bun:"item_linha" json:"itemLinha"`
	DataCriacao    *time.Time `bun:"data_criacao" json:"dataCriacao"`
	DataFechamento *time.Time `bun:"data_fechamento" json:"dataFechamento"`
}

type OAuthCredential struct {
	bun.BaseModel `bun:"table:yt_auth,alias:a"`

	ChannelID    string    `bun:"channel_id,pk"`
	RefreshToken string    `bun:"refresh_token,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}
