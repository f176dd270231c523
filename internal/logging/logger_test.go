package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestContextFieldsAreEmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTo(&buf, LevelDebug, "json")

	ctx := WithFields(context.Background(), "match_id", int64(7654321))
	ctx = WithFields(ctx, "slot", 3)
	logger.WarnContext(ctx, "benchmark degraded", "error", errors.New("boom"))

	out := buf.String()
	for _, want := range []string{`"match_id":7654321`, `"slot":3`, `"error":"boom"`, `"msg":"benchmark degraded"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTo(&buf, LevelWarn, "json")
	logger.Debug("hidden")
	logger.Info("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn line, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" debug ")
	if err != nil || lvl != LevelDebug {
		t.Fatalf("ParseLevel(debug) = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestOddKeyValueCount(t *testing.T) {
	var buf bytes.Buffer
	NewTo(&buf, LevelInfo, "json").Info("odd", "dangling")
	if !strings.Contains(buf.String(), `"dangling":null`) {
		t.Errorf("expected dangling key with null value, got %q", buf.String())
	}
}
