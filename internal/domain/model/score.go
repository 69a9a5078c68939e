package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxScore bounds accepted scores so per-user sums cannot overflow.
const maxScore = math.MaxInt32

// ParseScore converts a loosely typed stored score into a non-negative int.
// It accepts Go integer kinds, integral floats, json.Number and decimal
// strings. A nil or empty value yields ErrMissingValue; anything else that is
// not a non-negative integer yields ErrInvalidValue.
func ParseScore(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, ErrMissingValue
	case int:
		return fromInt64(int64(n))
	case int8:
		return fromInt64(int64(n))
	case int16:
		return fromInt64(int64(n))
	case int32:
		return fromInt64(int64(n))
	case int64:
		return fromInt64(n)
	case uint:
		return fromUint64(uint64(n))
	case uint8:
		return fromUint64(uint64(n))
	case uint16:
		return fromUint64(uint64(n))
	case uint32:
		return fromUint64(uint64(n))
	case uint64:
		return fromUint64(n)
	case float32:
		return fromFloat64(float64(n))
	case float64:
		return fromFloat64(n)
	case json.Number:
		return fromString(n.String())
	case string:
		return fromString(n)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
}

func fromInt64(n int64) (int, error) {
	if n < 0 || n > maxScore {
		return 0, fmt.Errorf("%w: %d", ErrInvalidValue, n)
	}
	return int(n), nil
}

func fromUint64(n uint64) (int, error) {
	if n > maxScore {
		return 0, fmt.Errorf("%w: %d", ErrInvalidValue, n)
	}
	return int(n), nil
}

func fromFloat64(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, f)
	}
	if f < 0 || f > maxScore {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, f)
	}
	return int(f), nil
}

func fromString(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingValue
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromInt64(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	return fromFloat64(f)
}
