package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// DateOfBirthPolicy is the organisation convention used to turn an age estimate into a nominal
// birth date. Month is zero-based (0 = January) to match the registration configuration schema.
type DateOfBirthPolicy struct {
	Enabled    bool `json:"enabled"`
	Month      int  `json:"month"`
	DayOfMonth int  `json:"dayOfMonth"`
}

// DefaultPolicy returns the policy applied when nothing is configured.
func DefaultPolicy() DateOfBirthPolicy {
	return DateOfBirthPolicy{
		Enabled:    DefaultPolicyEnabled,
		Month:      DefaultPolicyMonth,
		DayOfMonth: DefaultPolicyDayOfMonth,
	}
}

// InRange reports whether Month and DayOfMonth fall inside their documented bounds.
// Values outside are still honoured; the calendar rolls them over.
func (p DateOfBirthPolicy) InRange() bool {
	return p.Month >= MinPolicyMonth && p.Month <= MaxPolicyMonth &&
		p.DayOfMonth >= MinPolicyDayOfMonth && p.DayOfMonth <= MaxPolicyDayOfMonth
}

// NewViper builds the settings store: defaults, DOB_* environment variables and,
// when path is not empty, a configuration file.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyPolicyEnabled, DefaultPolicyEnabled)
	v.SetDefault(KeyPolicyMonth, DefaultPolicyMonth)
	v.SetDefault(KeyPolicyDayOfMonth, DefaultPolicyDayOfMonth)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		slog.Debug(MsgPolicyNoFile, LogKeyComponent, CompConfig)
		return v, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrPolicyRead, err)
	}
	return v, nil
}

// LoadPolicy decodes the estimated date of birth policy from v.
// Type mismatches are errors; out-of-range values are only logged.
func LoadPolicy(v *viper.Viper) (DateOfBirthPolicy, error) {
	var errs []error

	enabled, err := cast.ToBoolE(v.Get(KeyPolicyEnabled))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyPolicyEnabled, err))
	}
	month, err := cast.ToIntE(v.Get(KeyPolicyMonth))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyPolicyMonth, err))
	}
	day, err := cast.ToIntE(v.Get(KeyPolicyDayOfMonth))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyPolicyDayOfMonth, err))
	}
	if len(errs) > 0 {
		return DateOfBirthPolicy{}, fmt.Errorf("%s: %w", ErrPolicyDecode, errors.Join(errs...))
	}

	p := DateOfBirthPolicy{Enabled: enabled, Month: month, DayOfMonth: day}

	log := slog.With(
		LogKeyComponent, CompConfig,
		slog.Group(LogKeyPolicy,
			slog.Bool(LogKeyEnabled, p.Enabled),
			slog.Int(LogKeyMonth, p.Month),
			slog.Int(LogKeyDayOfMonth, p.DayOfMonth),
		),
	)
	if p.Enabled && !p.InRange() {
		log.Warn(MsgPolicyRange)
	}
	log.Debug(MsgPolicyLoaded)

	return p, nil
}
