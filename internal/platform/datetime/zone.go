package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	// Embedded zone database so IANA names resolve on minimal images.
	_ "time/tzdata"
)

// DefaultZone is the zone readings are recorded in unless TIMEZONE says otherwise.
const DefaultZone = "Asia/Hong_Kong"

// LoadZone resolves an IANA zone name ("Asia/Hong_Kong") or a fixed offset
// written as "UTC+8", "UTC+08:00", "GMT-5" or "+0530".
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("timezone is required")
	}
	if loc, ok := parseFixedOffset(name); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

func parseFixedOffset(name string) (*time.Location, bool) {
	s := strings.ToUpper(name)
	s = strings.TrimPrefix(s, "UTC")
	s = strings.TrimPrefix(s, "GMT")
	if s == "" {
		return time.UTC, true
	}
	if s[0] != '+' && s[0] != '-' {
		return nil, false
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	s = s[1:]
	// The sign is only allowed once, in front.
	if s == "" || strings.ContainsAny(s, "+- ") {
		return nil, false
	}

	var hours, minutes int
	var err error
	switch {
	case strings.Contains(s, ":"):
		parts := strings.SplitN(s, ":", 2)
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return nil, false
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return nil, false
		}
	case len(s) == 4:
		if hours, err = strconv.Atoi(s[:2]); err != nil {
			return nil, false
		}
		if minutes, err = strconv.Atoi(s[2:]); err != nil {
			return nil, false
		}
	default:
		if hours, err = strconv.Atoi(s); err != nil {
			return nil, false
		}
	}
	if hours > 14 || minutes > 59 {
		return nil, false
	}
	offset := sign * (hours*3600 + minutes*60)
	return time.FixedZone(name, offset), true
}
