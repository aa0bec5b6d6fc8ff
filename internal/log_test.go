package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(LogLevelInfo, &buf)

	l.Debug("hidden %d", 1)
	l.Info("stage %s", "normalization")
	l.Error("boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug message should be filtered at INFO, got %q", out)
	}
	if !strings.Contains(out, "[INFO] stage normalization") {
		t.Errorf("Expected info line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] boom") {
		t.Errorf("Expected error line, got %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"ERROR": LogLevelError,
		"warn":  LogLevelWarn,
		"":      LogLevelInfo,
		"DEBUG": LogLevelDebug,
		"trace": LogLevelTrace,
		"bogus": LogLevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %d, want %d", in, got, want)
		}
	}
}
