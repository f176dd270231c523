package storage

import (
	"context"
	"database/sql"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/pable/dota-coach/internal/benchmark"
)

// LoadBenchmark returns the persisted entry for key, or nil when none is
// stored. Freshness is the caller's concern.
func (db *DB) LoadBenchmark(ctx context.Context, key benchmark.Key) (*benchmark.Entry, error) {
	var points, cachedAt string
	err := db.conn.QueryRowContext(ctx, `
		SELECT points, cached_at FROM benchmark_cache
		WHERE hero_id = ? AND position = ? AND grouping = ?`,
		key.HeroID, key.Position, string(key.Grouping)).Scan(&points, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load benchmark %s", key)
	}

	e := &benchmark.Entry{}
	if err := sonic.UnmarshalString(points, &e.Points); err != nil {
		return nil, errors.Wrapf(err, "decode benchmark %s", key)
	}
	if e.CachedAt, err = parseTime(cachedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// SaveBenchmarks replaces every grouping of one hero and position in a
// single transaction.
func (db *DB) SaveBenchmarks(ctx context.Context, heroID int, position string, entries map[benchmark.Grouping]benchmark.Entry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO benchmark_cache(hero_id, position, grouping, points, cached_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for g, e := range entries {
		points, err := sonic.MarshalString(e.Points)
		if err != nil {
			return errors.Wrapf(err, "encode benchmark %d %s %s", heroID, position, g)
		}
		if _, err := stmt.ExecContext(ctx, heroID, position, string(g), points, formatTime(e.CachedAt)); err != nil {
			return errors.Wrapf(err, "insert benchmark %d %s %s", heroID, position, g)
		}
	}
	return tx.Commit()
}

// BenchmarkKeys lists every persisted key.
func (db *DB) BenchmarkKeys(ctx context.Context) ([]benchmark.Key, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT hero_id, position, grouping FROM benchmark_cache ORDER BY hero_id, position, grouping`)
	if err != nil {
		return nil, errors.Wrap(err, "list benchmarks")
	}
	defer rows.Close()

	var out []benchmark.Key
	for rows.Next() {
		var (
			k benchmark.Key
			g string
		)
		if err := rows.Scan(&k.HeroID, &k.Position, &g); err != nil {
			return nil, err
		}
		k.Grouping = benchmark.Grouping(g)
		out = append(out, k)
	}
	return out, rows.Err()
}
