package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	perrors "github.com/YuminosukeSato/penguinml/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestZerologLogger_StructuredFields(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)

	logger := p.GetLoggerWithName("pipeline").With(ComponentKey, "dataset")
	logger.Info("Loaded dataset", SamplesKey, 344, FeaturesKey, 9)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["message"] != "Loaded dataset" {
		t.Errorf("message = %v", e["message"])
	}
	if e["level"] != "info" {
		t.Errorf("level = %v, want info", e["level"])
	}
	if e["logger"] != "pipeline" || e[ComponentKey] != "dataset" {
		t.Errorf("context fields missing: %v", e)
	}
	if e[SamplesKey] != 344.0 {
		t.Errorf("%s = %v, want 344", SamplesKey, e[SamplesKey])
	}
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelWarn)
	logger := p.GetLogger()

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["message"] != "shown" {
		t.Errorf("unexpected entries: %v", entries)
	}
	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("Info should not be enabled at warn level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("Error should be enabled at warn level")
	}
}

func TestZerologLogger_ErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProvider(&buf, LevelInfo).GetLogger()

	err := perrors.NewColumnNotFoundError("dataset.Select", "beak", []string{"species"})
	logger.Error("Split failed", err, StageKey, StageSplit)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if !strings.Contains(fmt.Sprint(e["error"]), `column "beak" not found`) {
		t.Errorf("error field = %v", e["error"])
	}
	if e[StageKey] != StageSplit {
		t.Errorf("%s = %v", StageKey, e[StageKey])
	}
	if _, ok := e[StacktraceKey]; !ok {
		t.Error("expected a stack trace field for a cockroachdb error")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetProvider_SwapsGlobal(t *testing.T) {
	provider, logger := NewTestLoggerProvider(LevelDebug)
	prev := SetProvider(provider)
	defer SetProvider(prev)

	GetLoggerWithName("dataset").Debug("rows dropped", DroppedKey, 2)

	if !logger.ContainsMessage("rows dropped") {
		t.Error("expected message to be captured by the test provider")
	}
	if !logger.ContainsField("logger", "dataset") {
		t.Error("expected logger name field")
	}
	if !logger.ContainsField(DroppedKey, 2.0) {
		t.Error("expected dropped rows field")
	}
}

func TestTestLogger_With(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	child := logger.With(ModelNameKey, "LogisticRegression")
	child.Info("fitted", OperationKey, OperationFit)
	child.Debug("filtered out")

	if !logger.ContainsField(ModelNameKey, "LogisticRegression") {
		t.Error("context field not written to the shared buffer")
	}
	if logger.ContainsMessage("filtered out") {
		t.Error("debug record should be filtered at info level")
	}

	logger.Clear()
	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
}
