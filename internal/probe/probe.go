package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prober reports the playable duration of one audio file.
type Prober interface {
	// Probe returns the duration of path truncated to whole milliseconds.
	// Errors wrap ErrDecode.
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// Compile-time interface implementation checks.
var (
	_ Prober = (*FFprobe)(nil)
	_ Prober = (*Decoder)(nil)
)

// decodeError wraps ErrDecode with the offending path and cause.
func decodeError(path string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrDecode, path, fmt.Sprintf(format, args...))
}

// parseSeconds converts a decimal seconds string ("123.456789") to a
// millisecond-truncated duration without going through float64.
func parseSeconds(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("duration unavailable")
	}
	whole, frac, _ := strings.Cut(value, ".")
	if whole == "" {
		whole = "0"
	}
	secs, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	ms, err := fractionMillis(frac)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return time.Duration(secs)*time.Second + time.Duration(ms)*time.Millisecond, nil
}

// fractionMillis normalizes the digits after a decimal point to milliseconds,
// truncating excess precision.
func fractionMillis(frac string) (int, error) {
	if frac == "" {
		return 0, nil
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid fraction %q", frac)
		}
	}
	if len(frac) > 3 {
		frac = frac[:3]
	}
	frac += strings.Repeat("0", 3-len(frac))
	return strconv.Atoi(frac)
}
