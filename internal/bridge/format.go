package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// SlotValues resolves every slot of desc against params and renders each value
// in its wire type. The returned slice follows descriptor order.
func SlotValues(desc *OperationDescriptor, params Params) ([]string, error) {
	values := make([]string, len(desc.Params))
	for i, p := range desc.Params {
		raw, ok := params[p.Name]
		if !ok || raw == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, p.Name)
		}
		s, err := FormatParam(p, raw)
		if err != nil {
			return nil, err
		}
		values[i] = s
	}
	return values, nil
}

// FormatParam renders v as the lexical form of p's wire type.
func FormatParam(p Param, v any) (string, error) {
	switch p.Type {
	case TypeInt:
		n, err := toInt64(v)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidParameter, p.Name, err)
		}
		if p.Positive && n <= 0 {
			return "", fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParameter, p.Name, n)
		}
		if p.NonNegative && n < 0 {
			return "", fmt.Errorf("%w: %s must be non-negative, got %d", ErrInvalidParameter, p.Name, n)
		}
		return strconv.FormatInt(n, 10), nil
	case TypeDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidParameter, p.Name, err)
		}
		if p.NonNegative && d.IsNegative() {
			return "", fmt.Errorf("%w: %s must be non-negative, got %s", ErrInvalidParameter, p.Name, d)
		}
		return d.String(), nil
	case TypeString, "":
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case fmt.Stringer:
			s = t.String()
		default:
			return "", fmt.Errorf("%w: %s: expected text, got %T", ErrInvalidParameter, p.Name, v)
		}
		if err := CheckText(p, s); err != nil {
			return "", err
		}
		return s, nil
	default:
		return "", fmt.Errorf("%w: %s: unsupported wire type %q", ErrInvalidParameter, p.Name, p.Type)
	}
}

// CheckText rejects text an XML 1.0 document cannot carry. encoding/xml would
// otherwise substitute U+FFFD and the backend would store a different value.
func CheckText(p Param, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidParameter, p.Name)
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: %s contains character %U not allowed in XML", ErrInvalidParameter, p.Name, r)
		}
		if p.SingleLine && (r == '\n' || r == '\r') {
			return fmt.Errorf("%w: %s must be a single line", ErrInvalidParameter, p.Name)
		}
	}
	return nil
}

// isXMLChar reports whether r matches the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return decimal.Decimal{}, fmt.Errorf("%v is not a finite number", n)
		}
		return decimal.NewFromFloat(n), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	default:
		return decimal.Decimal{}, fmt.Errorf("expected decimal, got %T", v)
	}
}
