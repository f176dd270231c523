package storage

import (
	"context"
	"database/sql"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/model"
)

// InsertReport stores a finished report. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertReport(ctx context.Context, r *model.Report) error {
	body, err := sonic.MarshalString(r)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports(id, match_id, provider, hero_id, hero_name, role,
			grouping, ruleset_version, summary, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.MatchID, string(r.Provider), r.HeroID, r.HeroName, string(r.Role),
		r.Grouping, r.RulesetVersion, r.Summary, formatTime(r.CreatedAt), body,
	)
	if err != nil {
		return errors.Wrapf(err, "insert report %s", r.ID)
	}
	return nil
}

// GetReportByPrefix finds the most recent report whose id starts with prefix.
func (db *DB) GetReportByPrefix(ctx context.Context, prefix string) (*model.Report, error) {
	var body string
	err := db.conn.QueryRowContext(ctx, `
		SELECT body FROM reports WHERE id LIKE ? ORDER BY created_at DESC LIMIT 1`, prefix+"%").
		Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("no report with id prefix %q", prefix)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query report")
	}

	var r model.Report
	if err := sonic.UnmarshalString(body, &r); err != nil {
		return nil, errors.Wrapf(err, "decode report %s", prefix)
	}
	return &r, nil
}

// ListFilter narrows ListReports. Zero values match everything.
type ListFilter struct {
	MatchID int64
	HeroID  int
	Limit   int
}

// ListReports returns report summaries, newest first.
func (db *DB) ListReports(ctx context.Context, f ListFilter) ([]model.ReportSummary, error) {
	query := `SELECT id, match_id, provider, hero_id, hero_name, role, summary, created_at
		FROM reports WHERE 1=1`
	var args []any
	if f.MatchID != 0 {
		query += " AND match_id = ?"
		args = append(args, f.MatchID)
	}
	if f.HeroID != 0 {
		query += " AND hero_id = ?"
		args = append(args, f.HeroID)
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list reports")
	}
	defer rows.Close()

	var out []model.ReportSummary
	for rows.Next() {
		var (
			s                  model.ReportSummary
			provider, role, at string
		)
		if err := rows.Scan(&s.ID, &s.MatchID, &provider, &s.HeroID, &s.HeroName, &role, &s.Summary, &at); err != nil {
			return nil, err
		}
		s.Provider, s.Role = model.Provider(provider), model.Role(role)
		if s.CreatedAt, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteReport removes reports whose id starts with prefix and returns how
// many were removed.
func (db *DB) DeleteReport(ctx context.Context, prefix string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM reports WHERE id LIKE ?`, prefix+"%")
	if err != nil {
		return 0, errors.Wrap(err, "delete report")
	}
	return res.RowsAffected()
}
