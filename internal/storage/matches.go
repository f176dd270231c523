package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/opendota"
	"github.com/pable/dota-coach/internal/stratz"
)

// Shared coders; EncodeAll and DecodeAll are safe for concurrent use.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// StoredMatch is a raw provider payload kept for re-analysis.
type StoredMatch struct {
	Provider  model.Provider
	MatchID   int64
	Raw       []byte
	FetchedAt time.Time
}

// SaveMatch stores the raw payload zstd-compressed, replacing any earlier copy.
func (db *DB) SaveMatch(ctx context.Context, provider model.Provider, matchID int64, raw []byte) error {
	payload := encoder.EncodeAll(raw, make([]byte, 0, len(raw)/4))
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO matches(provider, match_id, payload, raw_size, fetched_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(provider), matchID, payload, len(raw), formatTime(time.Now()),
	)
	if err != nil {
		return errors.Wrapf(err, "save %s match %d", provider, matchID)
	}
	return nil
}

// LoadMatch returns the stored payload, decompressed. A missing match is
// apperr.ErrInputNotFound.
func (db *DB) LoadMatch(ctx context.Context, provider model.Provider, matchID int64) (*StoredMatch, error) {
	var (
		payload   []byte
		size      int
		fetchedAt string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT payload, raw_size, fetched_at FROM matches WHERE provider = ? AND match_id = ?`,
		string(provider), matchID).Scan(&payload, &size, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("%s match %d not stored", provider, matchID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s match %d", provider, matchID)
	}

	raw, err := decoder.DecodeAll(payload, make([]byte, 0, size))
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s match %d", provider, matchID)
	}
	t, err := parseTime(fetchedAt)
	if err != nil {
		return nil, err
	}
	return &StoredMatch{Provider: provider, MatchID: matchID, Raw: raw, FetchedAt: t}, nil
}

// OpenDotaArchive serves OpenDota matches from the store instead of the API.
type OpenDotaArchive struct{ DB *DB }

func (a OpenDotaArchive) FetchMatch(ctx context.Context, matchID int64) (*opendota.Match, []byte, error) {
	sm, err := a.DB.LoadMatch(ctx, model.ProviderOpenDota, matchID)
	if err != nil {
		return nil, nil, err
	}
	m, err := opendota.DecodeMatch(sm.Raw)
	if err != nil {
		return nil, nil, err
	}
	return m, sm.Raw, nil
}

// StratzArchive serves Stratz matches from the store instead of the API.
type StratzArchive struct{ DB *DB }

func (a StratzArchive) FetchMatch(ctx context.Context, matchID int64) (*stratz.Match, []byte, error) {
	sm, err := a.DB.LoadMatch(ctx, model.ProviderStratz, matchID)
	if err != nil {
		return nil, nil, err
	}
	m, err := stratz.DecodeMatch(sm.Raw)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, apperr.NotFoundf("stored stratz match %d is null", matchID)
	}
	return m, sm.Raw, nil
}
