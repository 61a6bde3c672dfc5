// Package datetime converts reading dates and times between their storage
// form (YYYY-MM-DD, HH:MM:SS) and the forms shown to and typed by users,
// with every "current moment" taken from one configured zone.
package datetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	shortDateLayout = "02/01/06"
	longDateLayout  = "02/01/2006"
	clockLayout     = "15:04"
	instantLayout   = "02/01/2006, 15:04:05"
)

var (
	canonicalDateRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T].*)?$`)
	slashDateRe     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	clockRe         = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2})(?:\.\d+)?)?$`)
)

// fallbackLayouts are tried in order once the canonical and DD/MM/YYYY
// shapes have not matched. Numeric day-month layouts are day first.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006/01/02",
	"2006/1/2",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Monday, 2 January 2006",
	"Mon, 2 Jan 2006",
	"Mon Jan 2 2006",
}

// DisplayDate holds the user-facing renderings of one calendar date.
type DisplayDate struct {
	DDMMYY   string `json:"ddmmyy"`
	DDMMYYYY string `json:"ddmmyyyy"`
	Weekday  string `json:"weekday"`
}

// Stamp is a moment split into storage date and time strings.
type Stamp struct {
	Date    string
	Time    string
	Instant time.Time
}

// Window is an inclusive range of storage dates.
type Window struct {
	From string `json:"fromDate"`
	To   string `json:"toDate"`
}

type Normalizer struct {
	loc    *time.Location
	logger zerolog.Logger
	now    func() time.Time
}

func New(loc *time.Location, logger zerolog.Logger) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		loc:    loc,
		logger: logger.With().Str("component", "datetime").Logger(),
		now:    time.Now,
	}
}

// SetClock replaces the source of the current instant.
func (n *Normalizer) SetClock(now func() time.Time) { n.now = now }

func (n *Normalizer) Location() *time.Location { return n.loc }

// Now returns the current moment in the configured zone.
func (n *Normalizer) Now() Stamp {
	t := n.now().In(n.loc)
	return Stamp{
		Date:    t.Format(DateLayout),
		Time:    t.Format(TimeLayout),
		Instant: t,
	}
}

// DefaultWindow returns [day(at) - days, day(at)] where day is taken in the
// configured zone, regardless of the zone carried by at.
func (n *Normalizer) DefaultWindow(at time.Time, days int) Window {
	local := at.In(n.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, n.loc)
	return Window{
		From: today.AddDate(0, 0, -days).Format(DateLayout),
		To:   today.Format(DateLayout),
	}
}

// FormatForDisplay renders a date for listing and editing. It never fails:
// unparseable input yields the zero DisplayDate.
func (n *Normalizer) FormatForDisplay(date string) DisplayDate {
	t, ok := n.parseDate(date)
	if !ok {
		n.logger.Warn().Str("input", date).Msg("could not parse date for display")
		return DisplayDate{}
	}
	return DisplayDate{
		DDMMYY:   t.Format(shortDateLayout),
		DDMMYYYY: t.Format(longDateLayout),
		Weekday:  t.Weekday().String(),
	}
}

// FormatTimeForDisplay renders a stored time as HH:MM. Full timestamps are
// read in the configured zone. Unparseable input yields "".
func (n *Normalizer) FormatTimeForDisplay(value string) string {
	value = strings.TrimSpace(value)
	if h, m, _, ok := parseClock(value); ok {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(n.loc).Format(clockLayout)
	}
	n.logger.Warn().Str("input", value).Msg("could not parse time for display")
	return ""
}

// FormatInstant renders a moment in the configured zone as
// "DD/MM/YYYY, HH:MM:SS".
func (n *Normalizer) FormatInstant(t time.Time) string {
	return t.In(n.loc).Format(instantLayout)
}

// ParseDisplayDate maps user-entered date text onto a storage date.
func (n *Normalizer) ParseDisplayDate(text string) (string, error) {
	t, ok := n.parseDate(text)
	if !ok {
		n.logger.Debug().Str("input", text).Msg("rejected date input")
		return "", &ValidationError{Field: "date", Input: text}
	}
	return t.Format(DateLayout), nil
}

// ParseDisplayTime maps HH:MM or HH:MM:SS onto a storage time.
func (n *Normalizer) ParseDisplayTime(text string) (string, error) {
	h, m, s, ok := parseClock(strings.TrimSpace(text))
	if !ok {
		n.logger.Debug().Str("input", text).Msg("rejected time input")
		return "", &ValidationError{Field: "time", Input: text}
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s), nil
}

func (n *Normalizer) parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if m := canonicalDateRe.FindStringSubmatch(text); m != nil {
		return calendarDate(m[1], m[2], m[3], n.loc)
	}
	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		return calendarDate(m[3], m[2], m[1], n.loc)
	}

	for _, layout := range fallbackLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		if layout == time.RFC3339Nano || layout == time.RFC1123 || layout == time.RFC1123Z {
			t = t.In(n.loc)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, n.loc), true
	}
	return time.Time{}, false
}

// calendarDate builds a date from numeric parts and rejects values that
// time.Date would silently normalize, such as 31/02.
func calendarDate(year, month, day string, loc *time.Location) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func parseClock(text string) (h, m, s int, ok bool) {
	match := clockRe.FindStringSubmatch(text)
	if match == nil {
		return 0, 0, 0, false
	}
	h, _ = strconv.Atoi(match[1])
	m, _ = strconv.Atoi(match[2])
	if match[3] != "" {
		s, _ = strconv.Atoi(match[3])
	}
	if h > 23 || m > 59 || s > 59 {
		return 0, 0, 0, false
	}
	return h, m, s, true
}
