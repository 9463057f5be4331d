// Package formatting converts byte sizes between human-readable strings
// and counts for upload limits in configuration and diagnostics.
package formatting

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidSize is returned for byte size strings that cannot be parsed.
var ErrInvalidSize = errors.New("invalid byte size")

// Base-1024 units, smallest first. Upload limits never need more than TB.
var units = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n in the largest unit that keeps the value at or
// above one. Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	size := float64(n)
	unit := 0
	for unit < len(units)-1 && (size >= 1024 || size <= -1024) {
		size /= 1024
		unit++
	}

	if unit == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[unit]
}

// ParseBytes reads sizes such as "512", "1.5KB" or "50 mb". A missing unit
// means bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	split := strings.IndexFunc(s, func(r rune) bool {
		return r != '.' && !unicode.IsDigit(r)
	})
	number, suffix := s, ""
	if split >= 0 {
		number, suffix = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	multiplier := 1.0
	if suffix != "" {
		found := false
		for _, u := range units {
			if strings.EqualFold(u, suffix) {
				found = true
				break
			}
			multiplier *= 1024
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, suffix)
		}
	}

	return int64(value * multiplier), nil
}
