package ingest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestHealthMetrics(t *testing.T) {
	with := healthMetrics(true)
	without := healthMetrics(false)
	if !slices.Contains(with, metricRevenue) {
		t.Error("revenue metric missing from the full health query")
	}
	if slices.Contains(without, metricRevenue) {
		t.Error("revenue metric present in the fallback query")
	}
	if len(with) != len(without)+1 {
		t.Errorf("len(with) = %d, len(without) = %d", len(with), len(without))
	}
}

func TestMerge(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMetricsUpserter(newFakeStore(), func() time.Time { return now })

	metas := []VideoMeta{
		{ID: "a", ChannelID: "UCx", Title: "A", ViewCount: 500, Duration: "PT3M"},
		{ID: "b", Title: "B", ViewCount: 20},
	}
	health := &Report{
		// Column order differs from the requested order on purpose.
		Columns: []string{metricRevenue, dimVideo, metricViews, metricImpressionsCTR},
		Rows: [][]interface{}{
			{3.25, "a", 410.0, 0.052},
			{9.0, "zzz", 1.0, 0.1},
		},
	}

	got := m.Merge("UCfallback", metas, health)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	a := got[0]
	if a.VideoID != "a" || a.ChannelID != "UCx" || a.ViewCount != 500 {
		t.Errorf("a metadata = %+v", a)
	}
	if a.AnalyticsViews != 410 || a.EstimatedRevenue != 3.25 || a.ImpressionsCTR != 0.052 {
		t.Errorf("a analytics = %+v", a)
	}
	if a.EngagedViews != 0 || a.SubscribersGained != 0 {
		t.Errorf("metrics absent from the report must be zero, got %+v", a)
	}
	if !a.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v, want %v", a.LastUpdated, now)
	}

	b := got[1]
	if b.ChannelID != "UCfallback" {
		t.Errorf("b channel = %q, want request channel", b.ChannelID)
	}
	if b.AnalyticsViews != 0 || b.EstimatedRevenue != 0 {
		t.Errorf("video without a health row must have zero analytics, got %+v", b)
	}
}

func TestMerge_NilHealth(t *testing.T) {
	m := NewMetricsUpserter(newFakeStore(), time.Now)
	got := m.Merge("ch", []VideoMeta{{ID: "a", ViewCount: 7}}, nil)
	if len(got) != 1 || got[0].ViewCount != 7 || got[0].AnalyticsViews != 0 {
		t.Errorf("Merge(nil health) = %+v", got)
	}
}

func TestUpsert_PropagatesStoreError(t *testing.T) {
	st := newFakeStore()
	st.upsertErr = errors.New("boom")
	m := NewMetricsUpserter(st, time.Now)

	if _, err := m.Upsert(context.Background(), "ch", []VideoMeta{{ID: "a"}}, nil); !errors.Is(err, st.upsertErr) {
		t.Fatalf("Upsert() error = %v, want %v", err, st.upsertErr)
	}
}

func TestCellConversions(t *testing.T) {
	row := []interface{}{"12.5", 3.0, int64(4), nil}
	if got := cellFloat(row, 0); got != 12.5 {
		t.Errorf("cellFloat(string) = %v", got)
	}
	if got := cellInt(row, 1); got != 3 {
		t.Errorf("cellInt(float) = %v", got)
	}
	if got := cellFloat(row, 2); got != 4 {
		t.Errorf("cellFloat(int64) = %v", got)
	}
	if got := cellFloat(row, 3); got != 0 {
		t.Errorf("cellFloat(nil) = %v", got)
	}
	if got := cellFloat(row, 9); got != 0 {
		t.Errorf("cellFloat(out of range) = %v", got)
	}
	if got := cellString(row, 1); got != "3" {
		t.Errorf("cellString(float) = %q", got)
	}
}
