package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

// Traffic source types used by the deep dive.
const (
	SourceSearch  = "YT_SEARCH"
	SourceRelated = "RELATED_VIDEO"
)

type TrafficStore interface {
	ReplaceTraffic(ctx context.Context, scope store.TrafficScope, rows []store.TrafficSourceRow) error
}

// TrafficReconciler replaces traffic rows scope by scope. Only scopes that received rows in
// the current fetch are touched.
type TrafficReconciler struct {
	store TrafficStore
}

func NewTrafficReconciler(st TrafficStore) *TrafficReconciler {
	return &TrafficReconciler{store: st}
}

// ReplaceAggregates replaces the per-type aggregate rows of every video present in rows.
// Rows for videos outside allowed are dropped.
func (r *TrafficReconciler) ReplaceAggregates(ctx context.Context, rows []store.TrafficSourceRow, allowed map[string]bool) error {
	byVideo := make(map[string][]store.TrafficSourceRow)
	order := make([]string, 0)
	for _, row := range rows {
		if row.SourceDetail != "" || !allowed[row.VideoID] {
			continue
		}
		if _, ok := byVideo[row.VideoID]; !ok {
			order = append(order, row.VideoID)
		}
		byVideo[row.VideoID] = append(byVideo[row.VideoID], row)
	}

	var errs []error
	for _, id := range order {
		scope := store.TrafficScope{VideoID: id}
		if err := r.store.ReplaceTraffic(ctx, scope, byVideo[id]); err != nil {
			slog.Error("Failed to replace traffic aggregates",
				slog.Group("reconcileTraffic", "scope", scope.String(), slog.Group("database", "error", err)),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReplaceDetails replaces the detail rows of one source type of one video.
func (r *TrafficReconciler) ReplaceDetails(ctx context.Context, videoID, sourceType string, rows []store.TrafficSourceRow) error {
	if len(rows) == 0 {
		slog.Info("No traffic detail returned, keeping stored rows",
			slog.Group("reconcileTraffic", "videoId", videoID, "sourceType", sourceType),
		)
		return nil
	}
	scope := store.TrafficScope{VideoID: videoID, SourceType: sourceType, Detail: true}
	return r.store.ReplaceTraffic(ctx, scope, rows)
}

// aggregateRows converts a (video, source type) report into aggregate rows.
func aggregateRows(rep *Report) []store.TrafficSourceRow {
	if rep == nil {
		return nil
	}
	videoCol, typeCol := rep.Column(dimVideo), rep.Column(dimSourceType)
	viewsCol, minutesCol := rep.Column(metricViews), rep.Column(metricMinutesWatched)
	if videoCol < 0 || typeCol < 0 {
		return nil
	}

	rows := make([]store.TrafficSourceRow, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		rows = append(rows, store.TrafficSourceRow{
			VideoID:          cellString(row, videoCol),
			SourceType:       cellString(row, typeCol),
			Views:            cellInt(row, viewsCol),
			WatchTimeMinutes: cellFloat(row, minutesCol),
		})
	}
	return rows
}

// detailRows converts a single-video detail report into detail rows. Blank details are
// skipped so they cannot collide with the aggregate row.
func detailRows(videoID, sourceType string, rep *Report) []store.TrafficSourceRow {
	if rep == nil {
		return nil
	}
	detailCol := rep.Column(dimSourceDetail)
	viewsCol, minutesCol := rep.Column(metricViews), rep.Column(metricMinutesWatched)
	if detailCol < 0 {
		return nil
	}

	rows := make([]store.TrafficSourceRow, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		detail := cellString(row, detailCol)
		if detail == "" {
			continue
		}
		rows = append(rows, store.TrafficSourceRow{
			VideoID:          videoID,
			SourceType:       sourceType,
			SourceDetail:     detail,
			Views:            cellInt(row, viewsCol),
			WatchTimeMinutes: cellFloat(row, minutesCol),
		})
	}
	return rows
}
