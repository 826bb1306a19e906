package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tartampluch/go-dob/internal/config"
	"github.com/tartampluch/go-dob/internal/linelist"
)

// filterResult is what the filter mode prints: the payload for the queue service and,
// when a patient file was given, the entries that pass.
type filterResult struct {
	Filter   linelist.Payload   `json:"filter"`
	Patients []linelist.Patient `json:"patients,omitempty"`
}

func newFilterFlagSet(output io.Writer) *flag.FlagSet {
	fs := newCommonFlagSet(config.AppID+" "+config.CmdFilter, output)
	fs.String(config.FlagGender, "", config.FlagDescGender)
	fs.String(config.FlagStartAge, "", config.FlagDescStartAge)
	fs.String(config.FlagEndAge, "", config.FlagDescEndAge)
	fs.Bool(config.FlagNoAge, false, config.FlagDescNoAge)
	fs.String(config.FlagReturnDate, "", config.FlagDescReturnDate)
	fs.Bool(config.FlagToday, false, config.FlagDescToday)
	fs.String(config.FlagVisitType, "", config.FlagDescVisitType)
	fs.String(config.FlagVisitTypes, "", config.FlagDescVisitTypes)
	fs.String(config.FlagPatients, "", config.FlagDescPatients)
	return fs
}

// runFilter builds the queue linelist filter from the flags, validates it and prints
// the submission payload.
func runFilter(ctx context.Context, v *viper.Viper, stdout io.Writer) error {
	clock, err := clockFromConfig(v)
	if err != nil {
		return err
	}

	f := linelist.NewFilter(clock)
	f.Gender = v.GetString(config.FlagGender)
	f.AgeEnabled = !v.GetBool(config.FlagNoAge)
	f.VisitType = v.GetString(config.FlagVisitType)
	if f.StartAge, err = optionalAge(v, config.FlagStartAge); err != nil {
		return err
	}
	if f.EndAge, err = optionalAge(v, config.FlagEndAge); err != nil {
		return err
	}
	if raw := v.GetString(config.FlagReturnDate); raw != "" {
		if f.ReturnDate, err = parseDate(raw); err != nil {
			return err
		}
	}
	// --today wins over --return-date, like the workspace's reset button.
	if v.GetBool(config.FlagToday) {
		f.ResetReturnDate(clock)
	}

	if path := v.GetString(config.FlagVisitTypes); path != "" {
		src, err := readInput(path, linelist.ReadVisitTypes)
		if err != nil {
			return err
		}
		if err := f.ValidateVisitType(ctx, src); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
	}

	payload, err := f.Payload()
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	slog.Info(config.MsgFilterReady,
		config.LogKeyComponent, config.CompLinelist,
		config.LogKeyGender, f.Gender,
		config.LogKeyVisitType, f.VisitType,
	)

	res := filterResult{Filter: payload}
	if path := v.GetString(config.FlagPatients); path != "" {
		patients, err := readInput(path, linelist.ReadPatients)
		if err != nil {
			return err
		}
		matched, err := f.Apply(patients, clock.Now())
		if err != nil {
			return err
		}
		res.Patients = matched
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", config.FormatJSONIndent)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("%s: %w", config.ErrJSONEncode, err)
	}
	return nil
}

// optionalAge reads an age bound; unset means no bound.
func optionalAge(v *viper.Viper, key string) (*int, error) {
	raw := v.GetString(key)
	if raw == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s: %s: %w", errUsage, key, config.ErrNotInteger, err)
	}
	return &age, nil
}

// readInput opens path and decodes it with decode.
func readInput[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", config.ErrInputFile, err)
	}
	defer func() {
		_ = file.Close()
	}()

	v, err := decode(file)
	if err != nil {
		return zero, err
	}
	return v, nil
}
