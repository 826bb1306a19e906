package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-dob/internal/config"
)

// ErrInvalidArgument is returned for negative or non-integer age input.
var ErrInvalidArgument = errors.New(config.ErrInvalidArgument)

// AgeEstimate is an approximate age in whole years and months.
type AgeEstimate struct {
	Years  int
	Months int
}

// MonthsField returns the value the form stores for Months.
// A zero remainder is stored as the empty value so the field reads as "not estimated".
func (a AgeEstimate) MonthsField() any {
	if a.Months > 0 {
		return a.Months
	}
	return config.EmptyFieldValue
}

// TotalMonths returns the estimate expressed in months.
func (a AgeEstimate) TotalMonths() int {
	return a.Years*config.MonthsPerYear + a.Months
}

// NormalizeAgeEstimate carries whole years out of months so that Months stays in [0,11].
func NormalizeAgeEstimate(years, months int) (AgeEstimate, error) {
	if err := validateDeltas(years, months); err != nil {
		return AgeEstimate{}, err
	}
	return AgeEstimate{
		Years:  years + months/config.MonthsPerYear,
		Months: months % config.MonthsPerYear,
	}, nil
}

// ComputeEstimatedBirthdate derives a calendar date from an age estimate.
//
// The reference month is now minus yearsDelta years and monthsDelta months, taken on its
// first day. With the policy disabled that first-of-month date is returned. With the policy
// enabled only its year is kept and month/day come from the policy; days past the end of the
// month roll forward into the next one. A zero now means the system clock.
func ComputeEstimatedBirthdate(yearsDelta, monthsDelta int, policy config.DateOfBirthPolicy, now time.Time) (time.Time, error) {
	if err := validateDeltas(yearsDelta, monthsDelta); err != nil {
		return time.Time{}, err
	}
	if now.IsZero() {
		now = time.Now()
	}
	loc := now.Location()

	// time.Date normalises a negative or overflowing month, borrowing from the year.
	ref := time.Date(now.Year()-yearsDelta, now.Month()-time.Month(monthsDelta), 1, 0, 0, 0, 0, loc)
	if !policy.Enabled {
		return ref, nil
	}

	// Policy months are zero-based.
	return time.Date(ref.Year(), time.Month(policy.Month+1), policy.DayOfMonth, 0, 0, 0, 0, loc), nil
}

// ParseAgeInput converts raw text from an age input into a non-negative integer.
// Surrounding whitespace is ignored and an empty input counts as zero.
func ParseAgeInput(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q", ErrInvalidArgument, config.ErrNotInteger, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s: %d", ErrInvalidArgument, config.ErrNegativeValue, n)
	}
	return n, nil
}

func validateDeltas(years, months int) error {
	if years < 0 {
		return fmt.Errorf("%w: %s: %d", ErrInvalidArgument, config.ErrNegativeYears, years)
	}
	if months < 0 {
		return fmt.Errorf("%w: %s: %d", ErrInvalidArgument, config.ErrNegativeMonths, months)
	}
	return nil
}

// Estimator binds a policy and a clock so callers only supply the age estimate.
type Estimator struct {
	Clock  Clock
	Policy config.DateOfBirthPolicy
}

// NewEstimator returns an Estimator on the real clock.
func NewEstimator(policy config.DateOfBirthPolicy) *Estimator {
	return &Estimator{Clock: RealClock{}, Policy: policy}
}

// Estimate computes the estimated birth date for the given deltas as of the estimator's clock.
func (e *Estimator) Estimate(years, months int) (time.Time, error) {
	var now time.Time
	if e.Clock != nil {
		now = e.Clock.Now()
	}

	dob, err := ComputeEstimatedBirthdate(years, months, e.Policy, now)
	if err != nil {
		return time.Time{}, err
	}

	slog.Debug(config.MsgEstimate,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyYears, years,
		config.LogKeyMonths, months,
		config.LogKeyBirthdate, dob.Format(config.DateFormatFullDash),
	)
	return dob, nil
}
