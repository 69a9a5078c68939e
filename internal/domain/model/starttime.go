package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var startTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseStartTime reads a scheduled start time stored either as an ISO-8601
// string, a time.Time, epoch seconds, or a {seconds, nanoseconds} object as
// written by document stores.
func ParseStartTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, ErrMissingValue
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, ErrMissingValue
		}
		return t.UTC(), nil
	case string:
		return parseTimeString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, t.String())
		}
		return fromEpoch(f, 0)
	case float64:
		return fromEpoch(t, 0)
	case int:
		return fromEpoch(float64(t), 0)
	case int64:
		return fromEpoch(float64(t), 0)
	case map[string]any:
		secs, ok := firstPresent(t, "seconds", "_seconds")
		if !ok {
			return time.Time{}, fmt.Errorf("%w: object without seconds", ErrInvalidTime)
		}
		s, err := toFloat(secs)
		if err != nil {
			return time.Time{}, err
		}
		var ns float64
		if nanos, ok := firstPresent(t, "nanoseconds", "_nanoseconds", "nanos"); ok {
			if ns, err = toFloat(nanos); err != nil {
				return time.Time{}, err
			}
		}
		return fromEpoch(s, int64(ns))
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidTime, v)
	}
}

func parseTimeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingValue
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f, 0)
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

func fromEpoch(secs float64, nanos int64) (time.Time, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTime, secs)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))+nanos).UTC(), nil
}

func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidTime, v)
	}
}
