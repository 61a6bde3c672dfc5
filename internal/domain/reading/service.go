package reading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bptracker/bptracker/internal/platform/datetime"
)

// DefaultWindowDays is the span of the list filter applied when the
// client asks for the default window.
const DefaultWindowDays = 14

// Recorder receives domain events for metrics.
type Recorder interface {
	ObserveMutation(op, result string)
	ObserveCategories(bp, pulse Category)
	ObserveDateRejected()
	ObserveExport(format string, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveMutation(string, string)             {}
func (nopRecorder) ObserveCategories(Category, Category)       {}
func (nopRecorder) ObserveDateRejected()                       {}
func (nopRecorder) ObserveExport(string, time.Duration, error) {}

type Service struct {
	repo       Repository
	norm       *datetime.Normalizer
	logger     zerolog.Logger
	metrics    Recorder
	windowDays int
}

func NewService(repo Repository, norm *datetime.Normalizer, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		norm:       norm,
		logger:     logger.With().Str("component", "reading").Logger(),
		metrics:    nopRecorder{},
		windowDays: DefaultWindowDays,
	}
}

func (s *Service) SetRecorder(m Recorder) {
	if m != nil {
		s.metrics = m
	}
}

func (s *Service) SetWindowDays(days int) {
	if days > 0 {
		s.windowDays = days
	}
}

// Create stores a new reading. When the input carries a client reference
// that was already stored, the existing reading is returned with created
// set to false.
func (s *Service) Create(ctx context.Context, in Input) (rd *Reading, created bool, err error) {
	defer func() { s.metrics.ObserveMutation("create", outcome(err)) }()

	ref := in.reference()
	if ref != nil {
		existing, err := s.repo.GetByClientRef(ctx, *ref)
		if err == nil {
			return s.localize(existing), false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}

	if err := ValidateMeasurements(in.Systolic, in.Diastolic, in.Pulse); err != nil {
		return nil, false, err
	}

	now := s.norm.Now()
	date, clock := now.Date, now.Time
	if in.Date != "" {
		if date, err = s.parseDate(in.Date); err != nil {
			return nil, false, err
		}
	}
	if in.Time != "" {
		if clock, err = s.norm.ParseDisplayTime(in.Time); err != nil {
			return nil, false, err
		}
	}

	if err := s.ensureFree(ctx, date, clock, 0); err != nil {
		return nil, false, err
	}

	rd = &Reading{
		ClientRef: ref,
		Systolic:  in.Systolic,
		Diastolic: in.Diastolic,
		Pulse:     in.Pulse,
		Date:      date,
		Time:      clock,
	}
	if err := s.repo.Create(ctx, rd); err != nil {
		if errors.Is(err, errDuplicateClientRef) && ref != nil {
			existing, getErr := s.repo.GetByClientRef(ctx, *ref)
			if getErr == nil {
				return s.localize(existing), false, nil
			}
		}
		return nil, false, err
	}

	s.metrics.ObserveCategories(rd.BPCategory(), rd.PulseCategory())
	s.logger.Debug().Int64("id", rd.ID).Str("date", rd.Date).Str("time", rd.Time).Msg("reading created")
	return s.localize(rd), true, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Reading, error) {
	rd, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.localize(rd), nil
}

// Update edits every mutable field of a reading. The date is required; an
// empty Time keeps the stored value. Concurrent edits are last-write-wins.
func (s *Service) Update(ctx context.Context, id int64, in Input) (rd *Reading, err error) {
	defer func() { s.metrics.ObserveMutation("update", outcome(err)) }()

	rd, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateMeasurements(in.Systolic, in.Diastolic, in.Pulse); err != nil {
		return nil, err
	}

	date, err := s.parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	clock := rd.Time
	if in.Time != "" {
		if clock, err = s.norm.ParseDisplayTime(in.Time); err != nil {
			return nil, err
		}
	}
	if err := s.ensureFree(ctx, date, clock, id); err != nil {
		return nil, err
	}

	rd.Systolic, rd.Diastolic, rd.Pulse = in.Systolic, in.Diastolic, in.Pulse
	rd.Date, rd.Time = date, clock
	if err := s.repo.Update(ctx, rd); err != nil {
		return nil, err
	}

	s.metrics.ObserveCategories(rd.BPCategory(), rd.PulseCategory())
	return s.localize(rd), nil
}

func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.ObserveMutation("delete", outcome(err)) }()
	return s.repo.Delete(ctx, id)
}

// List returns readings newest first. The filter bounds accept any date
// shape the normalizer parses and are rewritten to storage dates.
func (s *Service) List(ctx context.Context, f Filter) ([]*Reading, int, error) {
	f, err := s.normalizeFilter(f)
	if err != nil {
		return nil, 0, err
	}
	readings, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for _, rd := range readings {
		s.localize(rd)
	}
	return readings, total, nil
}

// localize reports CreatedAt in the configured zone whatever zone the
// store handed back.
func (s *Service) localize(rd *Reading) *Reading {
	if !rd.CreatedAt.IsZero() {
		rd.CreatedAt = rd.CreatedAt.In(s.norm.Location())
	}
	return rd
}

// DefaultWindow is the list filter applied when the page first loads.
func (s *Service) DefaultWindow() datetime.Window {
	return s.norm.DefaultWindow(s.norm.Now().Instant, s.windowDays)
}

// Export renders the readings matching f as a printable report.
func (s *Service) Export(ctx context.Context, f Filter, format Format) (out []byte, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveExport(string(format), time.Since(start), err) }()

	t, err := s.Table(ctx, f)
	if err != nil {
		return nil, err
	}
	if t.Empty() {
		return nil, ErrNothingToPrint
	}
	return Render(t, format)
}

func (s *Service) normalizeFilter(f Filter) (Filter, error) {
	if f.From == "" && f.To == "" {
		return f, nil
	}
	if f.From == "" || f.To == "" {
		return f, fmt.Errorf("%w: select both from and to dates", ErrInvalidRange)
	}
	from, err := s.norm.ParseDisplayDate(f.From)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	to, err := s.norm.ParseDisplayDate(f.To)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if from > to {
		return f, fmt.Errorf("%w: from date must be before or equal to to date", ErrInvalidRange)
	}
	f.From, f.To = from, to
	return f, nil
}

func (s *Service) parseDate(text string) (string, error) {
	date, err := s.norm.ParseDisplayDate(text)
	if err != nil {
		s.metrics.ObserveDateRejected()
		return "", err
	}
	return date, nil
}

func (s *Service) ensureFree(ctx context.Context, date, clock string, excludeID int64) error {
	taken, err := s.repo.ExistsAt(ctx, date, clock, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateTimestamp
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateTimestamp):
		return "conflict"
	case IsInvalidInput(err):
		return "invalid"
	default:
		return "error"
	}
}

// IsInvalidInput reports whether err was caused by the caller's input
// rather than by storage.
func IsInvalidInput(err error) bool {
	var vErr *datetime.ValidationError
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidRange) || errors.As(err, &vErr)
}
