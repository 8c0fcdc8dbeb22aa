package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListLinks returns every registered link, newest first.
func (s *Store) ListLinks(ctx context.Context) ([]Link, error) {
	links := make([]Link, 0)
	err := s.db.NewSelect().
		Model(&links).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (s *Store) LinksByVideo(ctx context.Context, videoID string) ([]Link, error) {
	links := make([]Link, 0)
	err := s.db.NewSelect().
		Model(&links).
		Where("video_id = ?", videoID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return links, nil
}

// SaveLink inserts the link, assigning an id and creation time when missing.
func (s *Store) SaveLink(ctx context.Context, link *Link) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NewInsert().Model(link).Returning("*").Exec(ctx)
	return err
}

func (s *Store) DeleteLink(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewDelete().
		Model((*Link)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
