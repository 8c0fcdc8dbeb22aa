package ingest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

type fakeTokens struct {
	err error
}

func (f *fakeTokens) Refresh(_ context.Context, _ string) (*oauth2.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "access"}, nil
}

type fakeVideos struct {
	mu       sync.Mutex
	uploads  []string
	listErr  error
	fetchErr map[string]error // keyed by first id of the batch
	batches  [][]string
}

func (f *fakeVideos) ListUploads(_ context.Context, _ string) ([]string, error) {
	return f.uploads, f.listErr
}

func (f *fakeVideos) FetchVideos(_ context.Context, ids []string) ([]VideoMeta, error) {
	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), ids...))
	f.mu.Unlock()
	if err := f.fetchErr[ids[0]]; err != nil {
		return nil, err
	}
	metas := make([]VideoMeta, 0, len(ids))
	for _, id := range ids {
		metas = append(metas, VideoMeta{ID: id, ChannelID: "ch1", Title: "title " + id, Duration: "PT1M40S", ViewCount: 10})
	}
	return metas, nil
}

// fakeAnalytics answers each report kind through a handler keyed by its first dimension.
type fakeAnalytics struct {
	mu       sync.Mutex
	queries  []ReportQuery
	handlers map[string]func(q ReportQuery) (*Report, error)
}

func (f *fakeAnalytics) Query(_ context.Context, q ReportQuery) (*Report, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	key := ""
	if len(q.Dimensions) > 0 {
		key = strings.Join(q.Dimensions, ",")
	}
	if h, ok := f.handlers[key]; ok {
		return h(q)
	}
	return &Report{Columns: append(append([]string{}, q.Dimensions...), q.Metrics...)}, nil
}

func (f *fakeAnalytics) queriesFor(dimensions string) []ReportQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ReportQuery
	for _, q := range f.queries {
		if strings.Join(q.Dimensions, ",") == dimensions {
			out = append(out, q)
		}
	}
	return out
}

// healthReport builds a health row per id using whatever metrics were requested.
func healthReport(q ReportQuery, ids []string) *Report {
	rep := &Report{Columns: append([]string{dimVideo}, q.Metrics...)}
	for i, id := range ids {
		row := []interface{}{id}
		for _, m := range q.Metrics {
			switch m {
			case metricViews:
				row = append(row, float64(100*(i+1)))
			case metricRevenue:
				row = append(row, 12.5)
			default:
				row = append(row, 1.0)
			}
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

func idsFromFilter(filter string) []string {
	f := strings.TrimPrefix(filter, "video==")
	if i := strings.Index(f, ";"); i >= 0 {
		f = f[:i]
	}
	return strings.Split(f, ",")
}

type fakeStore struct {
	mu        sync.Mutex
	videos    map[string]store.VideoRecord
	upserts   int
	upsertErr error
	traffic   map[store.TrafficScope][]store.TrafficSourceRow
	retention map[string][]store.RetentionPoint
	top       []store.VideoRecord
	topScope  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos:    map[string]store.VideoRecord{},
		traffic:   map[store.TrafficScope][]store.TrafficSourceRow{},
		retention: map[string][]store.RetentionPoint{},
	}
}

func (f *fakeStore) UpsertVideos(_ context.Context, records []store.VideoRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	for _, r := range records {
		f.videos[r.VideoID] = r
	}
	return nil
}

func (f *fakeStore) ReplaceTraffic(_ context.Context, scope store.TrafficScope, rows []store.TrafficSourceRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traffic[scope] = rows
	return nil
}

func (f *fakeStore) ReplaceRetention(_ context.Context, videoID string, points []store.RetentionPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retention[videoID] = points
	return nil
}

func (f *fakeStore) TopVideosByAnalyticsViews(_ context.Context, _ string, videoIDs []string, limit int) ([]store.VideoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topScope = videoIDs
	if f.top != nil {
		return f.top, nil
	}
	all := make([]store.VideoRecord, 0, len(f.videos))
	for _, v := range f.videos {
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AnalyticsViews > all[j].AnalyticsViews })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
