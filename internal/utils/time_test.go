package utils

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{"8:00 AM", 8, 0, false},
		{"08:00 AM", 8, 0, false},
		{"12:00 AM", 0, 0, false},
		{"12:30 PM", 12, 30, false},
		{"11:45 PM", 23, 45, false},
		{"  9:05 am ", 9, 5, false},
		{"25:00 AM", 0, 0, true},
		{"8:00", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		hour, minute, err := ParseClock(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error, got none", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if hour != tt.hour || minute != tt.minute {
			t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tt.input, hour, minute, tt.hour, tt.minute)
		}
	}
}

func TestTriggerInstant(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	instant, err := TriggerInstant(start, "8:30 AM")
	if err != nil {
		t.Fatalf("TriggerInstant failed: %v", err)
	}

	want := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	if !instant.Equal(want) {
		t.Errorf("TriggerInstant = %v, want %v", instant, want)
	}

	if _, err := TriggerInstant(start, "not a time"); err == nil {
		t.Error("expected error for malformed clock string")
	}
}

func TestClockMinutes(t *testing.T) {
	if got := ClockMinutes("8:30 AM"); got != 510 {
		t.Errorf("ClockMinutes(8:30 AM) = %d, want 510", got)
	}
	if got := ClockMinutes("12:00 AM"); got != 0 {
		t.Errorf("ClockMinutes(12:00 AM) = %d, want 0", got)
	}
	if got := ClockMinutes("garbage"); got != -1 {
		t.Errorf("ClockMinutes(garbage) = %d, want -1", got)
	}
}

func TestFormatClock(t *testing.T) {
	at := time.Date(2026, 9, 1, 20, 5, 0, 0, time.UTC)
	if got := FormatClock(at); got != "8:05 PM" {
		t.Errorf("FormatClock = %q, want %q", got, "8:05 PM")
	}
}
