package rules

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/logging"
)

// Store owns the process-wide ruleset. It is loaded once and replaced only
// by Reload.
type Store struct {
	rulesPath      string
	thresholdsPath string
	logger         *logging.Logger

	mu      sync.Mutex
	current atomic.Pointer[Ruleset]
}

// NewStore returns a store reading from the given paths; empty paths use the
// embedded documents. Nothing is loaded until Load or Current.
func NewStore(rulesPath, thresholdsPath string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{rulesPath: rulesPath, thresholdsPath: thresholdsPath, logger: logger}
}

// Load loads the ruleset if it is not loaded yet.
func (s *Store) Load(ctx context.Context) (*Ruleset, error) {
	if rs := s.current.Load(); rs != nil {
		return rs, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rs := s.current.Load(); rs != nil {
		return rs, nil
	}
	return s.loadLocked(ctx, "ruleset loaded")
}

// Current returns the loaded ruleset, loading it on first use.
func (s *Store) Current(ctx context.Context) (*Ruleset, error) {
	return s.Load(ctx)
}

// Reload re-reads the documents and swaps them in. On failure the previous
// ruleset stays active.
func (s *Store) Reload(ctx context.Context) (*Ruleset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, "ruleset reloaded")
}

func (s *Store) loadLocked(ctx context.Context, msg string) (*Ruleset, error) {
	rs, err := LoadFiles(s.rulesPath, s.thresholdsPath)
	if err != nil {
		s.logger.ErrorContext(ctx, "ruleset load failed", "rules", s.source(s.rulesPath), "error", err)
		return nil, err
	}
	if rs == nil {
		return nil, apperr.ConfigParse(nil, "empty ruleset")
	}
	s.current.Store(rs)
	s.logger.InfoContext(ctx, msg, "version", rs.Version, "rules", len(rs.Rules), "source", s.source(s.rulesPath))
	return rs, nil
}

func (s *Store) source(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
