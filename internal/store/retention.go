package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// ReplaceRetention swaps the whole retention curve of a video in one transaction.
// An empty curve leaves the stored one untouched.
func (s *Store) ReplaceRetention(ctx context.Context, videoID string, points []RetentionPoint) error {
	if len(points) == 0 {
		return nil
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := deleteRetentionQuery(tx, videoID).Exec(ctx); err != nil {
			return fmt.Errorf("delete retention %s: %w", videoID, err)
		}
		if _, err := tx.NewInsert().Model(&points).Exec(ctx); err != nil {
			return fmt.Errorf("insert retention %s: %w", videoID, err)
		}
		return nil
	})
}

func deleteRetentionQuery(db bun.IDB, videoID string) *bun.DeleteQuery {
	return db.NewDelete().
		Model((*RetentionPoint)(nil)).
		Where("video_id = ?", videoID)
}

func (s *Store) RetentionByVideo(ctx context.Context, videoID string) ([]RetentionPoint, error) {
	points := make([]RetentionPoint, 0)
	err := s.db.NewSelect().
		Model(&points).
		Where("video_id = ?", videoID).
		Order("second_mark ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return points, nil
}
