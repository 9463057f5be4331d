package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyAmount indicates the raw amount held no numeric characters.
	ErrEmptyAmount = errors.New("empty amount")
	// ErrInvalidAmount indicates the raw amount could not be read in either
	// US or European notation.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Amount parses raw as a decimal in US ("1,234.56") or European ("1.234,56")
// notation. Unparseable or empty input yields zero and a warning log.
func Amount(raw any) decimal.Decimal {
	d, err := ParseAmount(raw)
	if err != nil {
		slog.Default().Warn("amount conversion failed", "value", raw, "error", err)
		return decimal.Zero
	}
	return d
}

// ParseAmount is the error-returning form of Amount.
//
// Every character other than digits, separators and the minus sign is dropped.
// When both "," and "." remain, whichever appears last is the decimal
// separator and the other is removed. A lone "," is read as the decimal
// separator.
func ParseAmount(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v != nil {
			return *v, nil
		}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
		}
		return decimal.NewFromFloat(v), nil
	}

	s, ok := text(raw)
	if !ok {
		return decimal.Zero, ErrEmptyAmount
	}

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	if cleaned == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	if d, err := decimal.NewFromString(cleaned); err == nil {
		return d, nil
	}

	comma := strings.LastIndex(cleaned, ",")
	dot := strings.LastIndex(cleaned, ".")

	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case comma >= 0 && dot >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case comma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}
