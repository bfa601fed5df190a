package internal

import "testing"

// TestParseLevel tests the LOG_LEVEL name mapping, including the unknown
// name fallback to INFO
func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"WARN", LogLevelWarn},
		{"INFO", LogLevelInfo},
		{"DEBUG", LogLevelDebug},
		{"TRACE", LogLevelTrace},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, test := range tests {
		if got := ParseLevel(test.name); got != test.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", test.name, got, test.want)
		}
	}
}

// TestLevelOrdering tests that verbosity increases from Error to Trace so
// the >= gating in each log method holds
func TestLevelOrdering(t *testing.T) {
	order := []LogLevel{LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug, LogLevelTrace}
	for i := 1; i < len(order); i++ {
		if order[i] <= order[i-1] {
			t.Fatalf("Level %d not above level %d", order[i], order[i-1])
		}
	}
	if NewLogger(LogLevelTrace).GetLevel() != LogLevelTrace {
		t.Error("NewLogger did not keep the trace level")
	}
}
