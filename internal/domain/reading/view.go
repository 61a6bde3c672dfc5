package reading

import (
	"context"

	"github.com/bptracker/bptracker/internal/platform/datetime"
)

// Row is one reading rendered for the table and the printed report.
type Row struct {
	ID            int64    `json:"id"`
	Date          string   `json:"date"`
	EditDate      string   `json:"editDate"`
	Time          string   `json:"time"`
	Weekday       string   `json:"weekday"`
	Systolic      int      `json:"upperPressure"`
	Diastolic     int      `json:"lowerPressure"`
	Pulse         int      `json:"pulseRate"`
	BPCategory    Category `json:"bpCategory"`
	PulseCategory Category `json:"pulseCategory"`
}

// Table is the state of one rendered listing: the filter it was built
// for, its rows and the footer summary. It is built per request.
type Table struct {
	Window       *datetime.Window `json:"window,omitempty"`
	RangeCaption string           `json:"rangeCaption,omitempty"`
	Rows         []Row            `json:"rows"`
	Total        int              `json:"total"`
	PrintedAt    string           `json:"printedAt"`
}

func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// BuildTable renders readings through the normalizer and classifiers.
func BuildTable(norm *datetime.Normalizer, readings []*Reading, f Filter) *Table {
	t := &Table{
		Rows:      make([]Row, 0, len(readings)),
		Total:     len(readings),
		PrintedAt: norm.FormatInstant(norm.Now().Instant),
	}
	if f.HasRange() {
		t.Window = &datetime.Window{From: f.From, To: f.To}
		t.RangeCaption = norm.FormatForDisplay(f.From).DDMMYY + " to " + norm.FormatForDisplay(f.To).DDMMYY
	}
	for _, rd := range readings {
		d := norm.FormatForDisplay(rd.Date)
		t.Rows = append(t.Rows, Row{
			ID:            rd.ID,
			Date:          d.DDMMYY,
			EditDate:      d.DDMMYYYY,
			Time:          norm.FormatTimeForDisplay(rd.Time),
			Weekday:       d.Weekday,
			Systolic:      rd.Systolic,
			Diastolic:     rd.Diastolic,
			Pulse:         rd.Pulse,
			BPCategory:    rd.BPCategory(),
			PulseCategory: rd.PulseCategory(),
		})
	}
	return t
}

// Table lists every reading matching f and renders it.
func (s *Service) Table(ctx context.Context, f Filter) (*Table, error) {
	f, err := s.normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	f.Limit, f.Offset = 0, 0
	items, _, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return BuildTable(s.norm, items, f), nil
}
