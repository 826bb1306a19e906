package form

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tartampluch/go-dob/internal/config"
	"github.com/tartampluch/go-dob/internal/engine"
)

// Picker attaches a calendar widget in the background. The returned channel yields the
// outcome once and is then closed.
type Picker interface {
	Start(ctx context.Context, onSelect func(value string)) <-chan error
}

// DobField drives the date-of-birth fields of the registration form.
// All state goes through State; the field itself only remembers the picker run.
type DobField struct {
	Ctx       context.Context
	State     State
	Estimator *engine.Estimator
	Picker    Picker // Optional. Nil disables the calendar widget.

	mu           sync.Mutex
	pickerDone   <-chan error
	pickerCancel context.CancelFunc
}

// NewDobField wires a controller for state using the given estimator.
func NewDobField(ctx context.Context, state State, est *engine.Estimator, picker Picker) *DobField {
	return &DobField{
		Ctx:       ctx,
		State:     state,
		Estimator: est,
		Picker:    picker,
	}
}

// AgeKnown reports whether the form is in "known date" mode.
func (f *DobField) AgeKnown() bool {
	return !BoolField(f.State, config.FieldBirthdateEstimated)
}

// MonthsRequired reports whether the months input must be filled, which is the case
// while no years are estimated.
func (f *DobField) MonthsRequired() bool {
	years, err := IntField(f.State, config.FieldYearsEstimated)
	return err != nil || years == 0
}

// OnEstimatedYearsChange handles a keystroke in the years input.
// Rejected input leaves the state untouched.
func (f *DobField) OnEstimatedYearsChange(raw string) error {
	years, err := engine.ParseAgeInput(raw)
	if err == nil && years >= config.MaxEstimatedYears {
		err = fmt.Errorf("%w: %s: %d", engine.ErrInvalidArgument, config.ErrYearsRange, years)
	}
	if err != nil {
		f.logRejected(config.FieldYearsEstimated, raw, err)
		return err
	}

	months, err := IntField(f.State, config.FieldMonthsEstimated)
	if err != nil {
		return err
	}
	dob, err := f.Estimator.Estimate(years, months)
	if err != nil {
		return err
	}

	f.State.SetField(config.FieldYearsEstimated, years)
	f.State.SetField(config.FieldBirthdate, dob)
	return nil
}

// OnEstimatedMonthsChange handles a keystroke in the months input. Values above 11 are
// accepted here and folded into years on blur.
func (f *DobField) OnEstimatedMonthsChange(raw string) error {
	months, err := engine.ParseAgeInput(raw)
	if err != nil {
		f.logRejected(config.FieldMonthsEstimated, raw, err)
		return err
	}

	years, err := IntField(f.State, config.FieldYearsEstimated)
	if err != nil {
		return err
	}
	dob, err := f.Estimator.Estimate(years, months)
	if err != nil {
		return err
	}

	f.State.SetField(config.FieldMonthsEstimated, months)
	f.State.SetField(config.FieldBirthdate, dob)
	return nil
}

// OnEstimateBlur normalises the estimate when either input loses focus and writes
// years, months and the recomputed birth date back.
func (f *DobField) OnEstimateBlur() (engine.AgeEstimate, error) {
	years, err := IntField(f.State, config.FieldYearsEstimated)
	if err != nil {
		return engine.AgeEstimate{}, err
	}
	months, err := IntField(f.State, config.FieldMonthsEstimated)
	if err != nil {
		return engine.AgeEstimate{}, err
	}

	age, err := engine.NormalizeAgeEstimate(years, months)
	if err != nil {
		return engine.AgeEstimate{}, err
	}
	dob, err := f.Estimator.Estimate(age.Years, age.Months)
	if err != nil {
		return engine.AgeEstimate{}, err
	}

	f.State.SetField(config.FieldYearsEstimated, age.Years)
	f.State.SetField(config.FieldMonthsEstimated, age.MonthsField())
	f.State.SetField(config.FieldBirthdate, dob)
	return age, nil
}

// ToggleAgeKnown switches between "known date" and "estimated age" modes.
// Any running picker is stopped first; switching to the known mode starts a new one
// when a picker is configured.
func (f *DobField) ToggleAgeKnown(isKnown bool) {
	f.stopPicker()
	ResetForMode(f.State, isKnown)

	slog.Info(config.MsgModeToggled,
		config.LogKeyComponent, config.CompForm,
		config.LogKeyKnown, isKnown,
	)

	if isKnown {
		f.startPicker()
	}
}

// OnDateChange stores a date chosen in known mode.
func (f *DobField) OnDateChange(value any) {
	f.State.SetField(config.FieldBirthdate, value)
}

// ClearBirthdate empties the birth date, as the picker's clear button does.
func (f *DobField) ClearBirthdate() {
	f.State.SetField(config.FieldBirthdate, config.EmptyFieldValue)
	slog.Debug(config.MsgBirthdateCleared, config.LogKeyComponent, config.CompForm)
}

// PickerDone returns the outcome channel of the last picker start, or nil.
func (f *DobField) PickerDone() <-chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pickerDone
}

func (f *DobField) startPicker() {
	if f.Picker == nil {
		slog.Debug(config.MsgPickerSkip, config.LogKeyComponent, config.CompForm)
		return
	}
	parent := f.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	// Selections from a stopped run, or arriving while the form estimates, are dropped.
	done := f.Picker.Start(ctx, func(value string) {
		if ctx.Err() != nil || !f.AgeKnown() {
			slog.Debug(config.MsgPickerStale, config.LogKeyComponent, config.CompForm)
			return
		}
		f.OnDateChange(value)
	})

	f.mu.Lock()
	f.pickerDone = done
	f.pickerCancel = cancel
	f.mu.Unlock()
}

func (f *DobField) stopPicker() {
	f.mu.Lock()
	cancel := f.pickerCancel
	f.pickerCancel = nil
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (f *DobField) logRejected(field, raw string, err error) {
	slog.Debug(config.MsgInputRejected,
		config.LogKeyComponent, config.CompForm,
		config.LogKeyField, field,
		config.LogKeyValue, raw,
		config.LogKeyError, err,
	)
}

// ResetForMode applies the mode-switch reset: every date-of-birth field is cleared so no
// value from the previous mode survives.
func ResetForMode(s State, isKnown bool) {
	s.SetField(config.FieldBirthdateEstimated, !isKnown)
	s.SetField(config.FieldBirthdate, config.EmptyFieldValue)
	s.SetField(config.FieldYearsEstimated, 0)
	s.SetField(config.FieldMonthsEstimated, config.EmptyFieldValue)
}
