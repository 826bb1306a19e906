package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tartampluch/go-dob/internal/config"
	"github.com/tartampluch/go-dob/internal/datepicker"
	"github.com/tartampluch/go-dob/internal/engine"
	"github.com/tartampluch/go-dob/internal/export"
	"github.com/tartampluch/go-dob/internal/form"
)

// main delegates to runMain so deferred calls run before os.Exit.
func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

// runMain parses arguments, sets up logging and returns the process exit code.
// A leading "filter" argument selects the linelist filter mode.
func runMain(args []string, stdout, stderr io.Writer) int {
	fs, runMode := newFlagSet(stderr), run
	if len(args) > 0 && args[0] == config.CmdFilter {
		fs, runMode = newFilterFlagSet(stderr), runFilter
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return config.ExitCodeSuccess
		}
		return config.ExitCodeUsage
	}

	if ok, _ := fs.GetBool(config.FlagVersion); ok {
		printVersion(stdout)
		return config.ExitCodeSuccess
	}

	debug, _ := fs.GetBool(config.FlagDebug)
	logCloser := setupLogging(stderr, debug)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	configPath, _ := fs.GetString(config.FlagConfig)
	v, err := config.NewViper(configPath)
	if err == nil {
		err = v.BindPFlags(fs)
	}
	if err == nil {
		err = runMode(ctx, v, stdout)
	}
	if err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		fmt.Fprintln(stderr, err)
		if errors.Is(err, errUsage) {
			return config.ExitCodeUsage
		}
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

var errUsage = errors.New(config.ErrFlags)

// newCommonFlagSet declares the flags shared by both modes.
func newCommonFlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Bool(config.FlagVersion, false, config.FlagDescVersion)
	fs.Bool(config.FlagDebug, false, config.FlagDescDebug)
	fs.StringP(config.FlagConfig, "c", "", config.FlagDescConfig)
	fs.String(config.FlagNow, "", config.FlagDescNow)
	return fs
}

func newFlagSet(output io.Writer) *flag.FlagSet {
	fs := newCommonFlagSet(config.AppID, output)
	fs.StringP(config.FlagYears, "y", "", config.FlagDescYears)
	fs.StringP(config.FlagMonths, "m", "", config.FlagDescMonths)
	fs.StringP(config.FlagKnownDate, "d", "", config.FlagDescKnownDate)
	fs.StringP(config.FlagFormat, "f", config.FormatText, config.FlagDescFormat)
	fs.StringP(config.FlagName, "n", "", config.FlagDescName)
	fs.String(config.FlagPickerDir, "", config.FlagDescPickerDir)
	return fs
}

// run drives the date-of-birth controller the way the registration form does and prints
// the resulting record.
func run(ctx context.Context, v *viper.Viper, stdout io.Writer) error {
	policy, err := config.LoadPolicy(v)
	if err != nil {
		return err
	}

	clock, err := clockFromConfig(v)
	if err != nil {
		return err
	}

	var picker form.Picker
	if dir := v.GetString(config.FlagPickerDir); dir != "" {
		picker = datepicker.NewLoader(datepicker.NewHTTPFetcher(), &datepicker.DirAdapter{Dir: dir})
	}

	state := form.NewMapState(nil)
	field := form.NewDobField(ctx, state, &engine.Estimator{Clock: clock, Policy: policy}, picker)

	switch {
	case v.GetString(config.FlagKnownDate) != "":
		if err := enterKnownDate(field, v.GetString(config.FlagKnownDate)); err != nil {
			return err
		}
		waitForPicker(ctx, field)
	case v.IsSet(config.FlagYears) || v.IsSet(config.FlagMonths):
		if err := enterEstimate(field, v.GetString(config.FlagYears), v.GetString(config.FlagMonths)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", errUsage, config.ErrEstimateRequired)
	}

	rec, err := export.RecordFromState(state, v.GetString(config.FlagName))
	if err != nil {
		return err
	}
	return export.Write(stdout, v.GetString(config.FlagFormat), rec)
}

// clockFromConfig returns a clock frozen at --now, or the real clock.
func clockFromConfig(v *viper.Viper) (engine.Clock, error) {
	raw := v.GetString(config.FlagNow)
	if raw == "" {
		return engine.RealClock{}, nil
	}
	now, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return engine.FixedClock(now), nil
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(config.DateFormatFullDash, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", errUsage, config.ErrDateParse, err)
	}
	return d, nil
}

func enterKnownDate(field *form.DobField, raw string) error {
	dob, err := parseDate(raw)
	if err != nil {
		return err
	}
	field.ToggleAgeKnown(true)
	field.OnDateChange(dob)
	return nil
}

// enterEstimate replays typing into both inputs followed by a blur.
func enterEstimate(field *form.DobField, years, months string) error {
	field.ToggleAgeKnown(false)
	if err := field.OnEstimatedYearsChange(years); err != nil {
		return fmt.Errorf("%w: --%s: %w", errUsage, config.FlagYears, err)
	}
	if err := field.OnEstimatedMonthsChange(months); err != nil {
		return fmt.Errorf("%w: --%s: %w", errUsage, config.FlagMonths, err)
	}
	_, err := field.OnEstimateBlur()
	return err
}

// waitForPicker blocks until the picker bundle finishes. Its failure never fails the run.
func waitForPicker(ctx context.Context, field *form.DobField) {
	done := field.PickerDone()
	if done == nil {
		return
	}
	select {
	case err := <-done:
		if err != nil {
			slog.Warn(config.MsgPickerFailed,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
		}
	case <-ctx.Done():
	}
}

// printVersion outputs the build information.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, config.MsgVersionOutput,
		config.AppName,
		config.Version,
		config.Commit,
		config.Date,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Debug(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyDate, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger. Logs go to stderr so stdout only
// carries the rendered record; a copy goes to the user cache dir when it is writable.
func setupLogging(stderr io.Writer, debugMode bool) io.Closer {
	writers := []io.Writer{stderr}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on each run.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelWarn
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
