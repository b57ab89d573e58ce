package utils

import (
	"testing"
	"time"
	"unicode/utf8"
)

func TestFormatDowntime(t *testing.T) {
	tests := []struct {
		name     string
		minutes  int
		expected string
	}{
		{"zero", 0, "0 min"},
		{"negative clamps", -5, "0 min"},
		{"under an hour", 45, "45 min"},
		{"just under an hour", 59, "59 min"},
		{"exactly an hour", 60, "1h 0m"},
		{"hour and a half", 90, "1h 30m"},
		{"just under a day", 1439, "23h 59m"},
		{"exactly a day", 1440, "1d 0h"},
		{"day and an hour", 1500, "1d 1h"},
		{"several days", 3 * 1440, "3d 0h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatDowntime(tt.minutes)
			if result != tt.expected {
				t.Errorf("FormatDowntime(%d) = %s; want %s", tt.minutes, result, tt.expected)
			}
		})
	}
}

func TestDowntimeMinutes(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		end      time.Time
		expected int
	}{
		{"same instant", start, 0},
		{"under a minute", start.Add(59 * time.Second), 0},
		{"floors partial minutes", start.Add(5*time.Minute + 59*time.Second), 5},
		{"a day", start.Add(24 * time.Hour), 1440},
		{"end before start", start.Add(-time.Minute), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DowntimeMinutes(start, tt.end); got != tt.expected {
				t.Errorf("DowntimeMinutes = %d; want %d", got, tt.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"milliseconds", 45 * time.Millisecond, "45ms"},
		{"one second", 1 * time.Second, "1.0s"},
		{"seconds with decimal", 1500 * time.Millisecond, "1.5s"},
		{"one minute", 1 * time.Minute, "1m"},
		{"minutes and seconds", 2*time.Minute + 30*time.Second, "2m 30s"},
		{"hours and minutes", 1*time.Hour + 15*time.Minute, "1h 15m"},
		{"just hours", 2 * time.Hour, "2h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("FormatDuration(%v) = %s; want %s", tt.duration, result, tt.expected)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{"short text", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"newlines flattened", "dial tcp\nrefused", 40, "dial tcp refused"},
		{"tiny max", "hello", 2, "..."},
		{"multi-byte kept whole", "héllo wörld", 8, "héllo..."},
		{"multi-byte within limit", "日本語", 3, "日本語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateText(tt.text, tt.maxLen)
			if got != tt.expected {
				t.Errorf("TruncateText(%q, %d) = %q; want %q", tt.text, tt.maxLen, got, tt.expected)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateText(%q, %d) produced invalid UTF-8", tt.text, tt.maxLen)
			}
		})
	}
}
