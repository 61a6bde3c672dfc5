package reading

import "time"

// Reading is one blood-pressure and pulse measurement. Date and Time are
// stored as YYYY-MM-DD and HH:MM:SS in the configured zone.
type Reading struct {
	ID        int64     `json:"id"`
	ClientRef *int64    `json:"clientRef,omitempty"`
	Systolic  int       `json:"upperPressure"`
	Diastolic int       `json:"lowerPressure"`
	Pulse     int       `json:"pulseRate"`
	Date      string    `json:"inputDate"`
	Time      string    `json:"inputTime"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Reading) BPCategory() Category    { return ClassifyBP(r.Systolic, r.Diastolic) }
func (r *Reading) PulseCategory() Category { return ClassifyPulse(r.Pulse) }

// DateTime joins the stored date and time as YYYY-MM-DDTHH:MM:SS.
func (r *Reading) DateTime() string {
	return r.Date + "T" + r.Time
}

// Input carries a create or edit request. Date accepts any shape the
// normalizer parses; Time accepts HH:MM or HH:MM:SS. Empty Date or Time on
// create means "now"; on edit it keeps the stored value.
type Input struct {
	ID        *int64 `json:"id,omitempty"`
	ClientRef *int64 `json:"clientRef,omitempty"`
	Systolic  int    `json:"upperPressure"`
	Diastolic int    `json:"lowerPressure"`
	Pulse     int    `json:"pulseRate"`
	Date      string `json:"inputDate"`
	Time      string `json:"inputTime"`
}

// reference returns the client-supplied identifier, if any. The legacy
// "id" field is honoured when clientRef is absent.
func (in Input) reference() *int64 {
	if in.ClientRef != nil {
		return in.ClientRef
	}
	return in.ID
}

// Filter selects readings by an inclusive date range. Both bounds are empty
// or both set. A zero Limit returns every match.
type Filter struct {
	From   string
	To     string
	Limit  int
	Offset int
}

func (f Filter) HasRange() bool { return f.From != "" && f.To != "" }
