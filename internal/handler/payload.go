package handler

import (
	"strconv"
	"strings"

	"traycam/internal/kintone"
)

// pruneNil drops fields whose value is nil. Used by the attendance route:
// absent geolocation members disappear, but an empty map_link string is still
// sent. The photo routes use pruneEmpty instead; the two filters are
// intentionally not unified.
func pruneNil(rec kintone.Record) kintone.Record {
	out := make(kintone.Record, len(rec))
	for code, f := range rec {
		if f.Value == nil {
			continue
		}
		out[code] = f
	}
	return out
}

// pruneEmpty drops fields whose value is nil or an empty string, so optional
// form fields the user left blank never reach the record payload.
func pruneEmpty(rec kintone.Record) kintone.Record {
	out := make(kintone.Record, len(rec))
	for code, f := range rec {
		if f.Value == nil {
			continue
		}
		if s, ok := f.Value.(string); ok && s == "" {
			continue
		}
		out[code] = f
	}
	return out
}

// formatCoord renders a coordinate the way the existing attendance records
// store them: shortest decimal form, with integral values keeping a trailing
// ".0" (35.0, not 35).
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func floatValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
