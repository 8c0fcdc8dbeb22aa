package ingest

import (
	"context"
	"errors"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"
)

// VideoMeta is the Data API view of a video: snippet, statistics and content details.
type VideoMeta struct {
	ID           string
	ChannelID    string
	Title        string
	ThumbnailURL string
	PublishedAt  time.Time
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	// Duration is the raw ISO-8601 token, e.g. "PT12M3S".
	Duration string
}

type VideoSource interface {
	// ListUploads returns the ids of every video in the channel's uploads playlist.
	ListUploads(ctx context.Context, channelID string) ([]string, error)
	// FetchVideos returns metadata for at most MaxVideosPerRequest ids.
	FetchVideos(ctx context.Context, ids []string) ([]VideoMeta, error)
}

// ReportQuery mirrors the parameters of an Analytics API reports.query call.
type ReportQuery struct {
	StartDate  string
	EndDate    string
	Metrics    []string
	Dimensions []string
	Filters    string
	Sort       string
	MaxResults int64
}

// Report is a result table. Rows are positional, Columns names each position.
type Report struct {
	Columns []string
	Rows    [][]interface{}
}

type AnalyticsSource interface {
	Query(ctx context.Context, q ReportQuery) (*Report, error)
}

// Column returns the position of the named column or -1.
func (r *Report) Column(name string) int {
	if r == nil {
		return -1
	}
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func cellString(row []interface{}, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func cellFloat(row []interface{}, i int) float64 {
	if i < 0 || i >= len(row) {
		return 0
	}
	switch v := row[i].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func cellInt(row []interface{}, i int) int64 {
	return int64(cellFloat(row, i))
}

// isClientError reports whether the API rejected the request itself (missing scope,
// unknown metric, quota) rather than failing to answer it.
func isClientError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= 400 && gerr.Code < 500
	}
	return false
}
