package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMatchRoundTrip(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	raw := bytes.Repeat([]byte(`{"match_id":8123456789,"players":[]}`), 50)
	if err := db.SaveMatch(ctx, model.ProviderOpenDota, 8123456789, raw); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}

	m, err := db.LoadMatch(ctx, model.ProviderOpenDota, 8123456789)
	if err != nil {
		t.Fatalf("LoadMatch: %v", err)
	}
	if !bytes.Equal(m.Raw, raw) {
		t.Errorf("payload mismatch: got %d bytes, want %d", len(m.Raw), len(raw))
	}
	if m.FetchedAt.IsZero() {
		t.Error("expected fetched_at to be set")
	}

	_, err = db.LoadMatch(ctx, model.ProviderStratz, 8123456789)
	if !apperr.Is(err, apperr.ErrInputNotFound) {
		t.Errorf("expected not found for other provider, got %v", err)
	}
}

func TestMatchIsCompressed(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	raw := bytes.Repeat([]byte("networth"), 1000)
	if err := db.SaveMatch(ctx, model.ProviderStratz, 1, raw); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	var stored int
	if err := db.conn.QueryRow("SELECT length(payload) FROM matches").Scan(&stored); err != nil {
		t.Fatalf("query: %v", err)
	}
	if stored >= len(raw) {
		t.Errorf("stored %d bytes, expected fewer than %d", stored, len(raw))
	}
}

func TestArchivesServeStoredMatches(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	od := []byte(`{"match_id":42,"duration":1800,"players":[{"player_slot":0,"hero_id":1}]}`)
	if err := db.SaveMatch(ctx, model.ProviderOpenDota, 42, od); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	m, raw, err := OpenDotaArchive{DB: db}.FetchMatch(ctx, 42)
	if err != nil {
		t.Fatalf("OpenDotaArchive.FetchMatch: %v", err)
	}
	if m.MatchID != 42 || m.Duration != 1800 || len(m.Players) != 1 || m.Players[0].HeroID != 1 {
		t.Errorf("unexpected match: %+v", m)
	}
	if !bytes.Equal(raw, od) {
		t.Error("expected the stored payload back")
	}

	sz := []byte(`{"data":{"match":{"id":42,"durationSeconds":2100,"players":[{"playerSlot":128,"hero":{"id":5}}]}}}`)
	if err := db.SaveMatch(ctx, model.ProviderStratz, 42, sz); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	sm, _, err := StratzArchive{DB: db}.FetchMatch(ctx, 42)
	if err != nil {
		t.Fatalf("StratzArchive.FetchMatch: %v", err)
	}
	if sm.DurationSeconds != 2100 || len(sm.Players) != 1 || sm.Players[0].Hero.ID != 5 {
		t.Errorf("unexpected match: %+v", sm)
	}

	if err := db.SaveMatch(ctx, model.ProviderStratz, 43, []byte(`{"data":{"match":null}}`)); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	if _, _, err := (StratzArchive{DB: db}).FetchMatch(ctx, 43); !apperr.Is(err, apperr.ErrInputNotFound) {
		t.Errorf("expected not found for null match, got %v", err)
	}
	if _, _, err := (OpenDotaArchive{DB: db}).FetchMatch(ctx, 99); !apperr.Is(err, apperr.ErrInputNotFound) {
		t.Errorf("expected not found for unstored match, got %v", err)
	}
}

func sampleReport(id string, matchID int64, created time.Time) *model.Report {
	return &model.Report{
		ID:             id,
		MatchID:        matchID,
		Provider:       model.ProviderOpenDota,
		HeroID:         1,
		HeroName:       "Anti-Mage",
		Role:           model.RolePos1,
		Grouping:       string(benchmark.LegendAncient),
		RulesetVersion: "3.1.0",
		CreatedAt:      created,
		Summary:        "Focus on late first core item for improvement.",
		Fixes: []model.Finding{{
			RuleID: "carry_late_first_core", Kind: model.KindFix, Title: "Late first core item",
			Severity: "HIGH", Priority: 1, Confidence: 3, ConfidenceLabel: "medium",
			Evidence: []model.Evidence{{Metric: "first_core_s", Minute: -1, Player: 1100, Reference: 960}},
		}},
		Timeline: []model.TimelineMarker{{Label: "First Core Item", Time: 1100, Delta: 380, HasDelta: true}},
	}
}

func TestReportInsertAndGet(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := db.InsertReport(ctx, sampleReport("abcdef12-0000", 42, created)); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	got, err := db.GetReportByPrefix(ctx, "abcd")
	if err != nil {
		t.Fatalf("GetReportByPrefix: %v", err)
	}
	if got.MatchID != 42 || got.HeroName != "Anti-Mage" {
		t.Errorf("unexpected report: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, created)
	}
	if len(got.Fixes) != 1 || got.Fixes[0].Evidence[0].Player != 1100 {
		t.Errorf("fixes not preserved: %+v", got.Fixes)
	}
	if len(got.Timeline) != 1 || !got.Timeline[0].HasDelta {
		t.Errorf("timeline not preserved: %+v", got.Timeline)
	}

	_, err = db.GetReportByPrefix(ctx, "zzzz")
	if !apperr.Is(err, apperr.ErrInputNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListReports(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, r := range []*model.Report{
		sampleReport("r1", 10, base),
		sampleReport("r2", 10, base.Add(time.Hour)),
		sampleReport("r3", 11, base.Add(2*time.Hour)),
	} {
		if err := db.InsertReport(ctx, r); err != nil {
			t.Fatalf("InsertReport %d: %v", i, err)
		}
	}

	all, err := db.ListReports(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}
	if all[0].ID != "r3" || all[2].ID != "r1" {
		t.Errorf("expected newest first, got %s..%s", all[0].ID, all[2].ID)
	}
	if all[0].Role != model.RolePos1 || all[0].Provider != model.ProviderOpenDota {
		t.Errorf("role/provider not scanned: %+v", all[0])
	}

	byMatch, err := db.ListReports(ctx, ListFilter{MatchID: 10, Limit: 1})
	if err != nil {
		t.Fatalf("ListReports filtered: %v", err)
	}
	if len(byMatch) != 1 || byMatch[0].ID != "r2" {
		t.Errorf("unexpected filtered result: %+v", byMatch)
	}

	n, err := db.DeleteReport(ctx, "r1")
	if err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
}

func TestBenchmarkPersistence(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	cachedAt := time.Date(2025, 2, 2, 8, 30, 0, 0, time.UTC)

	entries := map[benchmark.Grouping]benchmark.Entry{
		benchmark.HeraldGuardian: {Points: []benchmark.Point{{Time: 10, CS: 40}}, CachedAt: cachedAt},
		benchmark.LegendAncient:  {Points: []benchmark.Point{{Time: 10, CS: 55, Denies: 6}, {Time: 20, CS: 140}}, CachedAt: cachedAt},
	}
	if err := db.SaveBenchmarks(ctx, 1, "POSITION_1", entries); err != nil {
		t.Fatalf("SaveBenchmarks: %v", err)
	}

	key := benchmark.Key{HeroID: 1, Position: "POSITION_1", Grouping: benchmark.LegendAncient}
	e, err := db.LoadBenchmark(ctx, key)
	if err != nil {
		t.Fatalf("LoadBenchmark: %v", err)
	}
	if e == nil || len(e.Points) != 2 {
		t.Fatalf("expected 2 points, got %+v", e)
	}
	if e.Points[0].Denies != 6 || e.Points[1].CS != 140 {
		t.Errorf("points not preserved: %+v", e.Points)
	}
	if !e.CachedAt.Equal(cachedAt) {
		t.Errorf("CachedAt: got %v, want %v", e.CachedAt, cachedAt)
	}

	missing, err := db.LoadBenchmark(ctx, benchmark.Key{HeroID: 2, Position: "POSITION_1", Grouping: benchmark.LegendAncient})
	if err != nil || missing != nil {
		t.Errorf("expected nil entry for missing key, got %+v, %v", missing, err)
	}

	keys, err := db.BenchmarkKeys(ctx)
	if err != nil {
		t.Fatalf("BenchmarkKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d", len(keys))
	}
}

func TestBenchmarkCacheUsesStore(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	now := time.Now()

	key := benchmark.Key{HeroID: 8, Position: "POSITION_1", Grouping: benchmark.DivineImmortal}
	entries := map[benchmark.Grouping]benchmark.Entry{
		key.Grouping: {Points: []benchmark.Point{{Time: 10, CS: 70}}, CachedAt: now},
	}
	if err := db.SaveBenchmarks(ctx, key.HeroID, key.Position, entries); err != nil {
		t.Fatalf("SaveBenchmarks: %v", err)
	}

	// No fetcher: the only way to a hit is the persisted tier.
	cache := benchmark.NewCache(benchmark.CacheConfig{Persister: db, TTL: time.Hour})
	points, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("cache.Get: %v", err)
	}
	if len(points) != 1 || points[0].CS != 70 {
		t.Errorf("unexpected points: %+v", points)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	if err := db.InsertReport(ctx, sampleReport("q1", 99, time.Now())); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	cols, rows, err := db.QueryRaw(ctx, "SELECT id, match_id, NULL AS n FROM reports")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 3 || cols[1] != "match_id" {
		t.Errorf("unexpected columns: %v", cols)
	}
	if len(rows) != 1 || rows[0][0] != "q1" || rows[0][1] != "99" || rows[0][2] != "NULL" {
		t.Errorf("unexpected rows: %v", rows)
	}

	if _, _, err := db.QueryRaw(ctx, "SELECT * FROM nope"); err == nil {
		t.Error("expected error for unknown table")
	}
}
