package plan

import (
	"strconv"
	"strings"
)

// DefaultBlockMinutes is the fallback for malformed durations. The parser is
// total: it never fails, it falls back.
const DefaultBlockMinutes = 60

// ParseDurationMinutes parses free-form durations like "2h", "90min" or
// "1.5h" into whole minutes. The h unit wins when both tokens appear.
func ParseDurationMinutes(s string) int {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if s == "" {
		return DefaultBlockMinutes
	}
	if idx := strings.Index(s, "h"); idx > 0 {
		if v, err := strconv.ParseFloat(s[:idx], 64); err == nil && v >= 0 {
			return int(v * 60)
		}
		return DefaultBlockMinutes
	}
	if idx := strings.Index(s, "min"); idx > 0 {
		if v, err := strconv.ParseFloat(s[:idx], 64); err == nil && v >= 0 {
			return int(v)
		}
		return DefaultBlockMinutes
	}
	return DefaultBlockMinutes
}

// FormatMinutes renders whole minutes back into the duration notation used
// across plans.
func FormatMinutes(m int) string {
	return strconv.Itoa(m) + "min"
}
