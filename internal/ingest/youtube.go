package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Code-Hex/synchro"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	youtubeanalytics "google.golang.org/api/youtubeanalytics/v2"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/period"
)

const (
	// MaxVideosPerRequest is the id limit of videos.list.
	MaxVideosPerRequest = 50
	playlistPageSize    = 50

	// Reports are always requested for the channel the access token belongs to.
	analyticsChannel = "channel==MINE"
)

var ErrUploadsNotFound = errors.New("uploads playlist not found")

// ClientFactory builds the API clients for one sync, authenticated with the channel's token.
type ClientFactory func(ctx context.Context, ts oauth2.TokenSource) (VideoSource, AnalyticsSource, error)

// NewGoogleClients returns a ClientFactory backed by the YouTube Data and Analytics APIs.
// Extra options are applied after the token source.
func NewGoogleClients(opts ...option.ClientOption) ClientFactory {
	return func(ctx context.Context, ts oauth2.TokenSource) (VideoSource, AnalyticsSource, error) {
		all := make([]option.ClientOption, 0, len(opts)+1)
		all = append(all, option.WithTokenSource(ts))
		all = append(all, opts...)

		yt, err := NewYouTubeClient(ctx, all...)
		if err != nil {
			return nil, nil, err
		}
		ya, err := NewAnalyticsClient(ctx, all...)
		if err != nil {
			return nil, nil, err
		}
		return yt, ya, nil
	}
}

type YouTubeClient struct {
	svc *youtube.Service
}

func NewYouTubeClient(ctx context.Context, opts ...option.ClientOption) (*YouTubeClient, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create YouTube service: %w", err)
	}
	return &YouTubeClient{svc: svc}, nil
}

func (c *YouTubeClient) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	resp, err := c.svc.Channels.List([]string{"contentDetails"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	for _, item := range resp.Items {
		if item.ContentDetails != nil && item.ContentDetails.RelatedPlaylists != nil &&
			item.ContentDetails.RelatedPlaylists.Uploads != "" {
			return item.ContentDetails.RelatedPlaylists.Uploads, nil
		}
	}
	return "", fmt.Errorf("%w for channel %s", ErrUploadsNotFound, channelID)
}

func (c *YouTubeClient) ListUploads(ctx context.Context, channelID string) ([]string, error) {
	playlistID, err := c.uploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	pageToken := ""
	for {
		call := c.svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(playlistPageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
		}
		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return ids, nil
}

func (c *YouTubeClient) FetchVideos(ctx context.Context, ids []string) ([]VideoMeta, error) {
	if len(ids) > MaxVideosPerRequest {
		return nil, fmt.Errorf("videos.list accepts at most %d ids, got %d", MaxVideosPerRequest, len(ids))
	}

	resp, err := c.svc.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	result := make([]VideoMeta, 0, len(resp.Items))
	for _, item := range resp.Items {
		meta := VideoMeta{ID: item.Id}
		if sn := item.Snippet; sn != nil {
			meta.ChannelID = sn.ChannelId
			meta.Title = sn.Title
			meta.ThumbnailURL = thumbnailURL(sn.Thumbnails)
			if sn.PublishedAt != "" {
				pa, err := synchro.ParseISO[period.BusinessZone](sn.PublishedAt)
				if err != nil {
					slog.Warn("Failed to parse publishedAt",
						slog.Group("fetchVideos", "videoId", item.Id, "publishedAt", sn.PublishedAt, "error", err),
					)
				} else {
					meta.PublishedAt = pa.StdTime().UTC()
				}
			}
		}
		if st := item.Statistics; st != nil {
			meta.ViewCount = int64(st.ViewCount)
			meta.LikeCount = int64(st.LikeCount)
			meta.CommentCount = int64(st.CommentCount)
		}
		if cd := item.ContentDetails; cd != nil {
			meta.Duration = cd.Duration
		}
		result = append(result, meta)
	}

	return result, nil
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

type AnalyticsClient struct {
	svc *youtubeanalytics.Service
}

func NewAnalyticsClient(ctx context.Context, opts ...option.ClientOption) (*AnalyticsClient, error) {
	svc, err := youtubeanalytics.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create YouTube Analytics service: %w", err)
	}
	return &AnalyticsClient{svc: svc}, nil
}

func (c *AnalyticsClient) Query(ctx context.Context, q ReportQuery) (*Report, error) {
	call := c.svc.Reports.Query().
		Ids(analyticsChannel).
		StartDate(q.StartDate).
		EndDate(q.EndDate).
		Metrics(strings.Join(q.Metrics, ","))
	if len(q.Dimensions) > 0 {
		call = call.Dimensions(strings.Join(q.Dimensions, ","))
	}
	if q.Filters != "" {
		call = call.Filters(q.Filters)
	}
	if q.Sort != "" {
		call = call.Sort(q.Sort)
	}
	if q.MaxResults > 0 {
		call = call.MaxResults(q.MaxResults)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	report := &Report{Rows: resp.Rows}
	for _, h := range resp.ColumnHeaders {
		report.Columns = append(report.Columns, h.Name)
	}
	// Headers are omitted on some empty results; fall back to the requested order.
	if len(report.Columns) == 0 {
		report.Columns = append(append([]string{}, q.Dimensions...), q.Metrics...)
	}
	return report, nil
}
