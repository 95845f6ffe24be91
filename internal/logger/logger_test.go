package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want *zapcore.Level
	}{
		{in: "debug", want: levelPtr(zapcore.DebugLevel)},
		{in: "info", want: levelPtr(zapcore.InfoLevel)},
		{in: "warn", want: levelPtr(zapcore.WarnLevel)},
		{in: "error", want: levelPtr(zapcore.ErrorLevel)},
		{in: "verbose", want: nil},
		{in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseLevel(tt.in)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.in, *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, *tt.want)
			}
		})
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := FromZap(zap.New(core)).With(String("addr", "localhost:6379"))

	log.Debug("dropped")
	log.Info("connected", Int("attempts", 2))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["addr"] != "localhost:6379" {
		t.Errorf("addr = %v, want localhost:6379", ctx["addr"])
	}
	if ctx["attempts"] != int64(2) {
		t.Errorf("attempts = %v, want 2", ctx["attempts"])
	}
}

func TestNewNopDiscards(t *testing.T) {
	log := NewNop()
	log.Info("nothing")
	log.With(Bool("ok", true)).Warnf("still %s", "nothing")
	if err := log.Sync(); err != nil {
		t.Errorf("Sync() = %v", err)
	}
}

func levelPtr(l zapcore.Level) *zapcore.Level { return &l }
