package linelist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/tartampluch/go-dob/internal/config"
	"github.com/tartampluch/go-dob/internal/engine"
)

// ErrInvalidFilter is wrapped by every validation failure.
var ErrInvalidFilter = errors.New(config.ErrInvalidFilter)

// VisitType is an entry of the visit type dropdown.
type VisitType struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

// VisitTypeSource lists the visit types known to the backend.
type VisitTypeSource interface {
	VisitTypes(ctx context.Context) ([]VisitType, error)
}

// Patient is the subset of a queue entry the filter looks at.
type Patient struct {
	Name      string
	Gender    string
	Birthdate time.Time
	VisitType string // Visit type UUID.
}

// Filter holds the linelist filter workspace inputs.
type Filter struct {
	Gender     string // Empty, config.GenderMale or config.GenderFemale.
	AgeEnabled bool
	StartAge   *int
	EndAge     *int
	ReturnDate time.Time
	VisitType  string // Visit type UUID, empty for any.
}

// Payload is the filter as submitted to the queue service.
type Payload struct {
	Gender     string `json:"gender"`
	StartAge   *int   `json:"startAge,omitempty"`
	EndAge     *int   `json:"endAge,omitempty"`
	ReturnDate string `json:"returnDate"`
	VisitType  string `json:"visitType"`
}

// NewFilter returns a filter with the age range enabled and today's return date.
func NewFilter(clock engine.Clock) *Filter {
	f := &Filter{AgeEnabled: true}
	f.ResetReturnDate(clock)
	return f
}

// ResetReturnDate sets the return date to today.
func (f *Filter) ResetReturnDate(clock engine.Clock) {
	f.ReturnDate = clock.Now()
}

// Validate checks gender and age bounds.
func (f *Filter) Validate() error {
	switch f.Gender {
	case "", config.GenderMale, config.GenderFemale:
	default:
		return fmt.Errorf("%w: %s: %q", ErrInvalidFilter, config.ErrGender, f.Gender)
	}
	if !f.AgeEnabled {
		return nil
	}
	for _, age := range []*int{f.StartAge, f.EndAge} {
		if age != nil && (*age < config.MinFilterAge || *age > config.MaxFilterAge) {
			return fmt.Errorf("%w: %s: %d", ErrInvalidFilter, config.ErrAgeRange, *age)
		}
	}
	if f.StartAge != nil && f.EndAge != nil && *f.StartAge > *f.EndAge {
		return fmt.Errorf("%w: %s", ErrInvalidFilter, config.ErrAgeBounds)
	}
	return nil
}

// Payload validates the filter and renders it for submission. The return date is
// truncated to midnight in its own location.
func (f *Filter) Payload() (Payload, error) {
	if err := f.Validate(); err != nil {
		return Payload{}, err
	}
	y, m, d := f.ReturnDate.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, f.ReturnDate.Location())

	p := Payload{
		Gender:     f.Gender,
		ReturnDate: day.Format(config.DateFormatOmrsISO),
		VisitType:  f.VisitType,
	}
	if f.AgeEnabled {
		p.StartAge = f.StartAge
		p.EndAge = f.EndAge
	}
	return p, nil
}

// ValidateVisitType checks the selected visit type against src.
func (f *Filter) ValidateVisitType(ctx context.Context, src VisitTypeSource) error {
	if f.VisitType == "" {
		return nil
	}
	types, err := src.VisitTypes(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(types, func(v VisitType) bool { return v.UUID == f.VisitType }) {
		return fmt.Errorf("%w: %s: %q", ErrInvalidFilter, config.ErrVisitType, f.VisitType)
	}
	return nil
}

// Matches reports whether p passes the filter as of now.
func (f *Filter) Matches(p Patient, now time.Time) bool {
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if f.VisitType != "" && p.VisitType != f.VisitType {
		return false
	}
	if f.AgeEnabled && (f.StartAge != nil || f.EndAge != nil) {
		age := Age(p.Birthdate, now)
		if f.StartAge != nil && age < *f.StartAge {
			return false
		}
		if f.EndAge != nil && age > *f.EndAge {
			return false
		}
	}
	return true
}

// Apply validates the filter and returns the matching patients in input order.
func (f *Filter) Apply(patients []Patient, now time.Time) ([]Patient, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var out []Patient
	for _, p := range patients {
		if f.Matches(p, now) {
			out = append(out, p)
		}
	}
	slog.Debug(config.MsgFilterApplied,
		config.LogKeyComponent, config.CompLinelist,
		config.LogKeyGender, f.Gender,
		config.LogKeyVisitType, f.VisitType,
		config.LogKeyTotal, len(patients),
		config.LogKeyMatched, len(out),
	)
	return out, nil
}

// Age returns the completed years between birthdate and now, compared on calendar
// dates in birthdate's location. Future birthdates give 0.
func Age(birthdate, now time.Time) int {
	now = now.In(birthdate.Location())
	ny, nm, nd := now.Date()
	by, bm, bd := birthdate.Date()

	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	born := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	if today.Before(born) {
		return 0
	}

	age := ny - by
	if born.AddDate(age, 0, 0).After(today) {
		age--
	}
	return age
}
