// Package normalize converts loosely typed export cells into canonical values.
// Normalizers never fail: malformed input falls back to a defined default, and
// every function is idempotent so values may be normalized more than once.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical rendering of date values.
const DateLayout = "2006-01-02"

var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
}

// String trims raw and returns nil for empty values and the null tokens
// "nan", "none" and "null" (case-insensitive).
func String(raw any) *string {
	s, ok := text(raw)
	if !ok {
		return nil
	}

	s = strings.TrimSpace(s)
	if _, null := nullTokens[strings.ToLower(s)]; null {
		return nil
	}
	return &s
}

// Int truncates any fractional part and parses raw as an integer.
// Zero and unparseable values yield nil.
func Int(raw any) *int64 {
	s, ok := text(raw)
	if !ok {
		return nil
	}

	s = strings.TrimSpace(s)
	if before, _, found := strings.Cut(s, "."); found {
		s = before
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	return &n
}

// Date returns strings trimmed and unchanged, time values formatted as
// YYYY-MM-DD, and an empty string for nil.
func Date(raw any) string {
	switch v := raw.(type) {
	case time.Time:
		return v.Format(DateLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(DateLayout)
	}

	s, ok := text(raw)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Deref returns the value behind s, or an empty string when s is nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func text(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case []byte:
		if v == nil {
			return "", false
		}
		return string(v), true
	case json.Number:
		return v.String(), true
	case decimal.Decimal:
		return v.String(), true
	case *decimal.Decimal:
		if v == nil {
			return "", false
		}
		return v.String(), true
	case float64:
		return formatFloat(v, 64), true
	case *float64:
		if v == nil {
			return "", false
		}
		return formatFloat(*v, 64), true
	case float32:
		return formatFloat(float64(v), 32), true
	case int:
		return strconv.Itoa(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case *int64:
		if v == nil {
			return "", false
		}
		return strconv.FormatInt(*v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		return v.Format(DateLayout), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) {
		return "nan"
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}
