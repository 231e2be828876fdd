package format_test

// Notes:
// - Negative values are not tested: durations and sizes here come from
//   probed audio and files on disk and are never negative.

import (
	"testing"
	"time"

	"github.com/alnah/go-audiobook/internal/format"
)

func TestDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{name: "zero", input: 0, want: "00:00"},
		{name: "boundary: 59 seconds", input: 59 * time.Second, want: "00:59"},
		{name: "mixed minutes and seconds", input: 5*time.Minute + 30*time.Second, want: "05:30"},
		{name: "boundary: exactly 1 hour", input: time.Hour, want: "01:00:00"},
		{name: "long audiobook", input: 31*time.Hour + 4*time.Minute + 9*time.Second, want: "31:04:09"},
		{name: "milliseconds dropped", input: 999 * time.Millisecond, want: "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := format.Duration(tt.input); got != tt.want {
				t.Errorf("Duration(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{name: "zero", input: 0, want: "00:00:00.000"},
		{name: "milliseconds", input: 3500 * time.Millisecond, want: "00:00:03.500"},
		{name: "hours", input: 2*time.Hour + 3*time.Minute + 4*time.Second + 5*time.Millisecond, want: "02:03:04.005"},
		{name: "sub-millisecond truncated", input: 1*time.Second + 999*time.Microsecond, want: "00:00:01.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := format.Timestamp(tt.input); got != tt.want {
				t.Errorf("Timestamp(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDurationHuman(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input time.Duration
		want  string
	}{
		{45 * time.Second, "45s"},
		{30 * time.Minute, "30m"},
		{time.Hour, "1h"},
		{12*time.Hour + 5*time.Minute, "12h5m"},
	}

	for _, tt := range tests {
		if got := format.DurationHuman(tt.input); got != tt.want {
			t.Errorf("DurationHuman(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 bytes"},
		{1023, "1023 bytes"},
		{1024, "1 KB"},
		{5 * 1024 * 1024, "5 MB"},
		{3 * 1024 * 1024 * 1024 / 2, "1.5 GB"},
	}

	for _, tt := range tests {
		if got := format.Size(tt.input); got != tt.want {
			t.Errorf("Size(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
