package store

import (
	"context"
	"slices"
	"strings"

	"github.com/uptrace/bun"
)

// utmKey is the SQL form of the UTM matching key: whitespace trimmed, lowercased.
const utmKey = `lower(btrim(utm_content, E' \t\n\r\f'))`

// normalizeUTMKeys lowercases and trims keys, dropping blanks and duplicates.
func normalizeUTMKeys(utms []string) []string {
	keys := make([]string, 0, len(utms))
	for _, u := range utms {
		k := strings.ToLower(strings.TrimSpace(u))
		if k != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

// DealsByUTM returns the deals whose utm_content matches one of utms after trimming and
// lowercasing both sides.
func (s *Store) DealsByUTM(ctx context.Context, utms []string) ([]Deal, error) {
	deals := make([]Deal, 0)
	keys := normalizeUTMKeys(utms)
	if len(keys) == 0 {
		return deals, nil
	}
	if err := dealsByUTMQuery(s.db, &deals, keys).Scan(ctx); err != nil {
		return nil, err
	}
	return deals, nil
}

func dealsByUTMQuery(db bun.IDB, dest *[]Deal, keys []string) *bun.SelectQuery {
	return db.NewSelect().
		Model(dest).
		Column("negocio_id", "utm_content", "valor", "etapa", "item_linha", "data_criacao", "data_fechamento").
		Where(utmKey+" IN (?)", bun.In(keys))
}

// DealsByVideo returns the deals attributed to any link of the video, latest close first.
func (s *Store) DealsByVideo(ctx context.Context, videoID string) ([]Deal, error) {
	links, err := s.LinksByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	utms := make([]string, 0, len(links))
	for _, l := range links {
		utms = append(utms, l.UTMContent)
	}

	deals := make([]Deal, 0)
	keys := normalizeUTMKeys(utms)
	if len(keys) == 0 {
		return deals, nil
	}
	if err := dealsByVideoQuery(s.db, &deals, keys).Scan(ctx); err != nil {
		return nil, err
	}
	return deals, nil
}

func dealsByVideoQuery(db bun.IDB, dest *[]Deal, keys []string) *bun.SelectQuery {
	return db.NewSelect().
		Model(dest).
		Where(utmKey+" IN (?)", bun.In(keys)).
		Order("data_fechamento DESC NULLS LAST")
}
