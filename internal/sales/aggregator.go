package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/period"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

const (
	tracerName = "github.com/KasumiMercury/patotta-stone-function-revenue/internal/sales"

	DefaultChunkSize  = 200
	UnknownVideoTitle = "Unknown video"
)

var ErrMissingVideoID = errors.New("video id is required")

type Store interface {
	ListLinks(ctx context.Context) ([]store.Link, error)
	DealsByUTM(ctx context.Context, utms []string) ([]store.Deal, error)
	DealsByVideo(ctx context.Context, videoID string) ([]store.Deal, error)
	VideosByIDs(ctx context.Context, videoIDs []string) ([]store.VideoRecord, error)
}

type RankingItem struct {
	VideoID        string   `json:"videoId"`
	VideoTitle     string   `json:"videoTitle"`
	ThumbnailURL   string   `json:"thumbnailUrl"`
	TotalRevenue   float64  `json:"totalRevenue"`
	DealsCount     int      `json:"dealsCount"`
	WonCount       int      `json:"wonCount"`
	WonToday       int      `json:"wonToday"`
	LostCount      int      `json:"lostCount"`
	ConversionRate float64  `json:"conversionRate"`
	Products       []string `json:"products"`
}

type Summary struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalDeals     int     `json:"totalDeals"`
	TotalWon       int     `json:"totalWon"`
	TotalLost      int     `json:"totalLost"`
	WonToday       int     `json:"wonToday"`
	ConversionRate float64 `json:"conversionRate"`
}

type Dashboard struct {
	Period  period.Period `json:"period"`
	Summary Summary       `json:"summary"`
	Ranking []RankingItem `json:"ranking"`
}

type Aggregator struct {
	store      Store
	periods    *period.Calculator
	classifier *StageClassifier
	chunkSize  int
	tracer     trace.Tracer
}

func NewAggregator(st Store, periods *period.Calculator, classifier *StageClassifier, chunkSize int) *Aggregator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Aggregator{
		store:      st,
		periods:    periods,
		classifier: classifier,
		chunkSize:  chunkSize,
		tracer:     otel.Tracer(tracerName),
	}
}

type videoStats struct {
	revenue  float64
	deals    int
	won      int
	wonToday int
	lost     int
	products map[string]bool
}

// Rank attributes the deals of the period to videos and orders them by revenue.
func (a *Aggregator) Rank(ctx context.Context, p period.Period) ([]RankingItem, error) {
	ctx, span := a.tracer.Start(ctx, "sales.Rank", trace.WithAttributes(attribute.String("sales.period", string(p))))
	defer span.End()

	window, err := a.periods.Window(p)
	if err != nil {
		return nil, err
	}

	links, err := a.store.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	idx := BuildIndex(links)
	if len(idx.Keys()) == 0 {
		return []RankingItem{}, nil
	}

	deals, err := a.fetchDeals(ctx, idx.Keys())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("sales.deals", len(deals)))

	stats := make(map[string]*videoStats)
	for _, d := range deals {
		link, ok := idx.Lookup(d.UTMContent)
		if !ok || link.VideoID == "" {
			continue
		}
		if !window.Contains(d.DataCriacao) && !window.Contains(d.DataFechamento) {
			continue
		}

		s, ok := stats[link.VideoID]
		if !ok {
			s = &videoStats{products: make(map[string]bool)}
			stats[link.VideoID] = s
		}
		s.deals++

		switch a.classifier.Classify(d.Etapa) {
		case StageWon:
			s.won++
			if window.Contains(d.DataFechamento) {
				s.revenue += d.Valor
			}
			if d.DataFechamento != nil && a.periods.IsToday(*d.DataFechamento) {
				s.wonToday++
			}
		case StageLost:
			s.lost++
		}

		if product := strings.TrimSpace(d.ItemLinha); product != "" {
			s.products[product] = true
		}
	}

	ranking, err := a.buildRanking(ctx, stats)
	if err != nil {
		return nil, err
	}
	slog.Info("Sales ranking built",
		slog.Group("salesRanking", "period", string(p), "deals", len(deals), "videos", len(ranking)),
	)
	return ranking, nil
}

// fetchDeals queries the UTM keys in chunks concurrently. Each goroutine owns one slot of
// the result slice, which is concatenated after Wait.
func (a *Aggregator) fetchDeals(ctx context.Context, keys []string) ([]store.Deal, error) {
	chunks := make([][]string, 0, (len(keys)+a.chunkSize-1)/a.chunkSize)
	for start := 0; start < len(keys); start += a.chunkSize {
		chunks = append(chunks, keys[start:min(start+a.chunkSize, len(keys))])
	}

	results := make([][]store.Deal, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			deals, err := a.store.DealsByUTM(gctx, c)
			if err != nil {
				return fmt.Errorf("fetch deals chunk %d: %w", i, err)
			}
			results[i] = deals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("Failed to fetch deals", slog.Group("salesRanking", slog.Group("database", "error", err)))
		return nil, err
	}

	seen := make(map[string]bool)
	deals := make([]store.Deal, 0)
	for _, r := range results {
		for _, d := range r {
			if seen[d.NegocioID] {
				continue
			}
			seen[d.NegocioID] = true
			deals = append(deals, d)
		}
	}
	return deals, nil
}

func (a *Aggregator) buildRanking(ctx context.Context, stats map[string]*videoStats) ([]RankingItem, error) {
	ranking := make([]RankingItem, 0, len(stats))
	if len(stats) == 0 {
		return ranking, nil
	}

	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	videos, err := a.store.VideosByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load videos: %w", err)
	}
	byID := make(map[string]store.VideoRecord, len(videos))
	for _, v := range videos {
		byID[v.VideoID] = v
	}

	for _, id := range ids {
		s := stats[id]
		item := RankingItem{
			VideoID:        id,
			VideoTitle:     UnknownVideoTitle,
			TotalRevenue:   s.revenue,
			DealsCount:     s.deals,
			WonCount:       s.won,
			WonToday:       s.wonToday,
			LostCount:      s.lost,
			ConversionRate: conversionRate(s.won, s.deals),
			Products:       sortedKeys(s.products),
		}
		if v, ok := byID[id]; ok {
			if v.Title != "" {
				item.VideoTitle = v.Title
			}
			item.ThumbnailURL = v.ThumbnailURL
		}
		ranking = append(ranking, item)
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].TotalRevenue != ranking[j].TotalRevenue {
			return ranking[i].TotalRevenue > ranking[j].TotalRevenue
		}
		if ranking[i].DealsCount != ranking[j].DealsCount {
			return ranking[i].DealsCount > ranking[j].DealsCount
		}
		return ranking[i].VideoID < ranking[j].VideoID
	})
	return ranking, nil
}

// Summary totals the ranking of the period.
func (a *Aggregator) Summary(ctx context.Context, p period.Period) (Summary, error) {
	ranking, err := a.Rank(ctx, p)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(ranking), nil
}

// Dashboard returns the summary and the ranking computed from a single aggregation.
func (a *Aggregator) Dashboard(ctx context.Context, p period.Period) (Dashboard, error) {
	ranking, err := a.Rank(ctx, p)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Period: p, Summary: Summarize(ranking), Ranking: ranking}, nil
}

func Summarize(ranking []RankingItem) Summary {
	var s Summary
	for _, item := range ranking {
		s.TotalRevenue += item.TotalRevenue
		s.TotalDeals += item.DealsCount
		s.TotalWon += item.WonCount
		s.TotalLost += item.LostCount
		s.WonToday += item.WonToday
	}
	s.ConversionRate = conversionRate(s.TotalWon, s.TotalDeals)
	return s
}

// DealsByVideo lists every deal attributed to one of the video's links.
func (a *Aggregator) DealsByVideo(ctx context.Context, videoID string) ([]store.Deal, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, ErrMissingVideoID
	}
	return a.store.DealsByVideo(ctx, videoID)
}

func conversionRate(won, deals int) float64 {
	if deals == 0 {
		return 0
	}
	return float64(won) / float64(deals) * 100
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
