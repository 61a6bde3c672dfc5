package reading

// Severity is the badge class a category renders with.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityElevated Severity = "elevated"
	SeverityHigh     Severity = "high"
	SeverityCrisis   Severity = "crisis"
	SeverityLow      Severity = "low"
)

// Category is a classification outcome: a human label plus its severity.
type Category struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

var (
	BPNormal     = Category{Label: "Normal", Severity: SeverityNormal}
	BPElevated   = Category{Label: "Elevated", Severity: SeverityElevated}
	BPHighStage1 = Category{Label: "High Stage 1", Severity: SeverityHigh}
	BPHighStage2 = Category{Label: "High Stage 2", Severity: SeverityHigh}
	BPCrisis     = Category{Label: "Crisis", Severity: SeverityCrisis}
	PulseLow     = Category{Label: "Low", Severity: SeverityLow}
	PulseNormal  = Category{Label: "Normal", Severity: SeverityNormal}
	PulseHigh    = Category{Label: "High", Severity: SeverityHigh}
)

// ClassifyBP buckets a systolic/diastolic pair. The checks run in order and
// the first match wins, so a Stage 1 diastolic (80-89) takes precedence over
// a crisis-level systolic.
func ClassifyBP(systolic, diastolic int) Category {
	switch {
	case systolic < 120 && diastolic < 80:
		return BPNormal
	case systolic >= 120 && systolic < 130 && diastolic < 80:
		return BPElevated
	case (systolic >= 130 && systolic < 140) || (diastolic >= 80 && diastolic < 90):
		return BPHighStage1
	case systolic >= 180 || diastolic >= 120:
		return BPCrisis
	default:
		return BPHighStage2
	}
}

// ClassifyPulse buckets a resting pulse in bpm.
func ClassifyPulse(pulse int) Category {
	switch {
	case pulse < 60:
		return PulseLow
	case pulse <= 100:
		return PulseNormal
	default:
		return PulseHigh
	}
}
