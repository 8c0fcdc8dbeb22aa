package store

import (
	"context"
	"time"
)

// GetRefreshToken returns ErrNotFound when the channel was never authorized.
func (s *Store) GetRefreshToken(ctx context.Context, channelID string) (string, error) {
	cred := new(OAuthCredential)
	err := s.db.NewSelect().
		Model(cred).
		Column("refresh_token").
		Where("channel_id = ?", channelID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return "", notFound(err)
	}
	if cred.RefreshToken == "" {
		return "", ErrNotFound
	}
	return cred.RefreshToken, nil
}

// SaveRefreshToken stores the channel's refresh token, replacing the previous one.
func (s *Store) SaveRefreshToken(ctx context.Context, channelID, refreshToken string) error {
	cred := &OAuthCredential{
		ChannelID:    channelID,
		RefreshToken: refreshToken,
		UpdatedAt:    time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(cred).
		On("CONFLICT (channel_id) DO UPDATE").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
