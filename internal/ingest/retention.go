package ingest

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseISODuration converts a Data API duration such as "PT1H2M3S" into whole seconds.
// Fractional seconds are rounded down.
func ParseISODuration(s string) (int, bool) {
	// A designator with no component ("P", "PT", "P1DT") is malformed.
	if s == "P" || strings.HasSuffix(s, "T") {
		return 0, false
	}
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	units := []float64{7 * 24 * 3600, 24 * 3600, 3600, 60, 1}
	var total float64
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, false
		}
		total += v * unit
	}
	return int(total), true
}

// BuildRetentionCurve turns (elapsed ratio, watch ratio) samples into absolute second marks.
// Marks are clamped to [0, durationSec], sorted, and a mark sampled twice keeps its first value.
// With an unknown duration (0) every sample collapses onto second 0.
func BuildRetentionCurve(videoID string, durationSec int, rep *Report) []store.RetentionPoint {
	if rep == nil || len(rep.Rows) == 0 {
		return nil
	}
	ratioCol, watchCol := rep.Column(dimElapsedRatio), rep.Column(metricWatchRatio)
	if ratioCol < 0 || watchCol < 0 {
		ratioCol, watchCol = 0, 1
	}
	if durationSec < 0 {
		durationSec = 0
	}

	seen := make(map[int]bool, len(rep.Rows))
	points := make([]store.RetentionPoint, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		ratio := cellFloat(row, ratioCol)
		second := int(math.Round(ratio * float64(durationSec)))
		second = min(max(second, 0), durationSec)
		if seen[second] {
			continue
		}
		seen[second] = true
		points = append(points, store.RetentionPoint{
			VideoID:             videoID,
			SecondMark:          second,
			RetentionPercentage: cellFloat(row, watchCol) * 100,
		})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].SecondMark < points[j].SecondMark })
	return points
}
