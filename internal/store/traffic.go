package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// TrafficScope selects the traffic rows of one video that a fetch is allowed to replace.
type TrafficScope struct {
	VideoID string
	// SourceType restricts the scope to one source type. Empty means every type.
	SourceType string
	// Detail selects keyword/related-video rows (non-empty source_detail) instead of the
	// per-type aggregate rows.
	Detail bool
}

func (sc TrafficScope) String() string {
	kind := "aggregate"
	if sc.Detail {
		kind = "detail"
	}
	if sc.SourceType == "" {
		return fmt.Sprintf("%s/*/%s", sc.VideoID, kind)
	}
	return fmt.Sprintf("%s/%s/%s", sc.VideoID, sc.SourceType, kind)
}

// ReplaceTraffic deletes the rows in scope and inserts rows in their place, in one
// transaction. Replacing with no rows is a no-op: the previous rows stay.
func (s *Store) ReplaceTraffic(ctx context.Context, scope TrafficScope, rows []TrafficSourceRow) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].VideoID != scope.VideoID {
			return fmt.Errorf("traffic row for %q outside scope %s", rows[i].VideoID, scope)
		}
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := deleteTrafficQuery(tx, scope).Exec(ctx); err != nil {
			return fmt.Errorf("delete traffic %s: %w", scope, err)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert traffic %s: %w", scope, err)
		}
		return nil
	})
}

func deleteTrafficQuery(db bun.IDB, scope TrafficScope) *bun.DeleteQuery {
	q := db.NewDelete().
		Model((*TrafficSourceRow)(nil)).
		Where("video_id = ?", scope.VideoID)
	if scope.SourceType != "" {
		q = q.Where("source_type = ?", scope.SourceType)
	}
	if scope.Detail {
		q = q.Where("source_detail <> ''")
	} else {
		q = q.Where("source_detail = ''")
	}
	return q
}

func (s *Store) TrafficByVideo(ctx context.Context, videoID string) ([]TrafficSourceRow, error) {
	rows := make([]TrafficSourceRow, 0)
	err := s.db.NewSelect().
		Model(&rows).
		Where("video_id = ?", videoID).
		Order("source_type ASC", "views DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
