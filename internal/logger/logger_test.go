package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("invalid json record %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "cycle-arb", nil)
	ctx := context.Background()

	log.Debug(ctx, "debug")
	log.Info(ctx, "info")
	log.Warn(ctx, "warn")
	log.Error(ctx, "error")

	recs := decodeLines(t, &buf)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0]["msg"] != "warn" || recs[1]["msg"] != "error" {
		t.Errorf("unexpected messages: %v, %v", recs[0]["msg"], recs[1]["msg"])
	}
}

func TestLogger_FieldsAndTraceID(t *testing.T) {
	var buf bytes.Buffer
	traceFn := func(ctx context.Context) string { return "abc123" }
	log := New(&buf, LevelDebug, "cycle-arb", traceFn)

	log.Info(context.Background(), "scan complete",
		"venues", 3,
		"error", errors.New("boom"),
		"dangling",
	)

	recs := decodeLines(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0]

	tests := []struct {
		name string
		key  string
		want any
	}{
		{name: "service", key: "service", want: "cycle-arb"},
		{name: "trace_id", key: "trace_id", want: "abc123"},
		{name: "int_field", key: "venues", want: float64(3)},
		{name: "error_field", key: "error", want: "boom"},
		{name: "bad_key", key: "!BADKEY", want: "dangling"},
		{name: "level", key: "level", want: "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rec[tt.key]; got != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
