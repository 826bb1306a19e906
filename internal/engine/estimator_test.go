package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-dob/internal/config"
	"github.com/tartampluch/go-dob/internal/engine"
)

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

var disabled = config.DateOfBirthPolicy{Enabled: false}

func TestNormalizeAgeEstimate(t *testing.T) {
	tests := []struct {
		name       string
		years      int
		months     int
		wantYears  int
		wantMonths any
	}{
		{"Carry one year", 30, 14, 31, 2},
		{"Nothing estimated", 0, 0, 0, ""},
		{"Exact multiple of a year", 2, 24, 4, ""},
		{"Months only", 0, 5, 0, 5},
		{"Eleven months stay", 7, 11, 7, 11},
		{"Large carry", 1, 145, 13, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.NormalizeAgeEstimate(tt.years, tt.months)
			require.NoError(t, err)
			assert.Equal(t, tt.wantYears, got.Years)
			assert.Equal(t, tt.wantMonths, got.MonthsField())
		})
	}
}

// TestNormalizeAgeEstimate_PreservesValue checks the total is unchanged and months stay in range.
func TestNormalizeAgeEstimate_PreservesValue(t *testing.T) {
	for y := 0; y <= 30; y += 3 {
		for m := 0; m <= 60; m++ {
			got, err := engine.NormalizeAgeEstimate(y, m)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.Months, 0)
			assert.LessOrEqual(t, got.Months, 11)
			assert.Equal(t, y+m/12, got.Years)
			assert.Equal(t, y*12+m, got.TotalMonths(), "y=%d m=%d", y, m)
		}
	}
}

func TestNormalizeAgeEstimate_Negative(t *testing.T) {
	_, err := engine.NormalizeAgeEstimate(-1, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	_, err = engine.NormalizeAgeEstimate(0, -3)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

func TestComputeEstimatedBirthdate_PolicyDisabled(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		years  int
		months int
		want   time.Time
		desc   string
	}{
		{"Zero estimate", 0, 0, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "First day of the current month"},
		{"Years only", 30, 0, time.Date(1995, 6, 1, 0, 0, 0, 0, time.UTC), ""},
		{"Months without borrow", 0, 5, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), ""},
		{"Months with borrow", 2, 8, time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC), "June minus 8 months borrows a year"},
		{"Unnormalized months", 0, 14, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "14 months behaves like 1y2m"},
		{"Very old", 139, 11, time.Date(1885, 7, 1, 0, 0, 0, 0, time.UTC), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ComputeEstimatedBirthdate(tt.years, tt.months, disabled, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, tt.desc)
			assert.Equal(t, 1, got.Day())
		})
	}
}

func TestComputeEstimatedBirthdate_DayAlwaysFirst(t *testing.T) {
	for day := 1; day <= 31; day++ {
		now := time.Date(2024, 12, day, 23, 59, 0, 0, time.UTC)
		for months := 0; months < 30; months += 7 {
			got, err := engine.ComputeEstimatedBirthdate(3, months, disabled, now)
			require.NoError(t, err)
			assert.Equal(t, 1, got.Day())
		}
	}
}

func TestComputeEstimatedBirthdate_PolicyEnabled(t *testing.T) {
	now := time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		years  int
		months int
		policy config.DateOfBirthPolicy
		want   time.Time
		desc   string
	}{
		{
			name:   "January first convention",
			years:  40,
			policy: config.DateOfBirthPolicy{Enabled: true, Month: 0, DayOfMonth: 1},
			want:   time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "Mid-year convention",
			years:  10,
			months: 1,
			policy: config.DateOfBirthPolicy{Enabled: true, Month: 6, DayOfMonth: 15},
			want:   time.Date(2015, 7, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "Month borrow changes the year",
			years:  10,
			months: 4,
			policy: config.DateOfBirthPolicy{Enabled: true, Month: 6, DayOfMonth: 15},
			want:   time.Date(2014, 7, 15, 0, 0, 0, 0, time.UTC),
			desc:   "March minus 4 months lands in the previous year",
		},
		{
			name:   "Day overflow rolls forward",
			years:  5,
			policy: config.DateOfBirthPolicy{Enabled: true, Month: 3, DayOfMonth: 31},
			want:   time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
			desc:   "April 31st becomes May 1st",
		},
		{
			name:   "February 30th in a leap year",
			years:  1,
			policy: config.DateOfBirthPolicy{Enabled: true, Month: 1, DayOfMonth: 30},
			want:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ComputeEstimatedBirthdate(tt.years, tt.months, tt.policy, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, tt.desc)
		})
	}
}

// TestComputeEstimatedBirthdate_PolicyFields checks month/day come from the policy and the
// year follows the borrow rule.
func TestComputeEstimatedBirthdate_PolicyFields(t *testing.T) {
	policy := config.DateOfBirthPolicy{Enabled: true, Month: 8, DayOfMonth: 12}
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	for years := 0; years < 5; years++ {
		for months := 0; months < 12; months++ {
			got, err := engine.ComputeEstimatedBirthdate(years, months, policy, now)
			require.NoError(t, err)

			wantYear := now.Year() - years
			if int(now.Month())-1-months < 0 {
				wantYear--
			}
			assert.Equal(t, time.September, got.Month())
			assert.Equal(t, 12, got.Day())
			assert.Equal(t, wantYear, got.Year(), "years=%d months=%d", years, months)
		}
	}
}

func TestComputeEstimatedBirthdate_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("NPT", 5*3600+45*60)
	now := time.Date(2025, 1, 1, 0, 10, 0, 0, loc)

	got, err := engine.ComputeEstimatedBirthdate(0, 0, disabled, now)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, loc), got)
}

func TestComputeEstimatedBirthdate_ZeroNowUsesSystemClock(t *testing.T) {
	before := time.Now()
	got, err := engine.ComputeEstimatedBirthdate(0, 0, disabled, time.Time{})
	require.NoError(t, err)

	// Allow for the month changing between the two reads.
	after := time.Now()
	assert.Contains(t, []time.Month{before.Month(), after.Month()}, got.Month())
	assert.Equal(t, 1, got.Day())
}

func TestComputeEstimatedBirthdate_Negative(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := engine.ComputeEstimatedBirthdate(-1, 0, disabled, now)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	_, err = engine.ComputeEstimatedBirthdate(0, -1, disabled, now)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

func TestParseAgeInput(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"42", 42, false},
		{" 7 ", 7, false},
		{"0", 0, false},
		{"-3", 0, true},
		{"1.5", 0, true},
		{"abc", 0, true},
		{"12a", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := engine.ParseAgeInput(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, engine.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimator_UsesClockAndPolicy(t *testing.T) {
	est := &engine.Estimator{
		Clock:  MockClock{CurrentTime: time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC)},
		Policy: config.DateOfBirthPolicy{Enabled: true, Month: 0, DayOfMonth: 1},
	}

	got, err := est.Estimate(25, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = est.Estimate(-1, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

func TestNewEstimator_RealClock(t *testing.T) {
	est := engine.NewEstimator(config.DefaultPolicy())
	assert.IsType(t, engine.RealClock{}, est.Clock)

	fixed := time.Date(2030, 2, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, engine.FixedClock(fixed).Now())
}
