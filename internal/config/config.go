package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client used to fetch date-picker assets.
var UserAgent = "Go-DOB/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName     = "Go DOB"
	AppID       = "com.github.tartampluch.go-dob"
	LogFileName = "dob.log"
	EnvPrefix   = "DOB"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	ExitCodeUsage   = 2
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion   = "version"
	FlagDebug     = "debug"
	FlagConfig    = "config"
	FlagYears     = "years"
	FlagMonths    = "months"
	FlagKnownDate = "known-date"
	FlagNow       = "now"
	FlagFormat    = "format"
	FlagName      = "name"
	FlagPickerDir = "picker-dir"

	FlagDescVersion   = "Show application version and exit"
	FlagDescDebug     = "Enable debug logging to stdout"
	FlagDescConfig    = "Path to a policy configuration file (yaml, json or toml)"
	FlagDescYears     = "Estimated age in years"
	FlagDescMonths    = "Estimated age in months (may exceed 11)"
	FlagDescKnownDate = "Known date of birth (YYYY-MM-DD); disables estimation"
	FlagDescNow       = "Evaluate as if today were this date (YYYY-MM-DD)"
	FlagDescFormat    = "Output format: text, json or vcard"
	FlagDescName      = "Patient display name used in vcard output"
	FlagDescPickerDir = "With --known-date, bundle the date picker assets into this directory"

	MsgVersionOutput = "%s version %s (commit %s, built %s, %s/%s)\n"
)

// CmdFilter selects the queue linelist filter mode: dob-estimate filter [flags].
const CmdFilter = "filter"

// Flags of the filter mode.
const (
	FlagGender     = "gender"
	FlagStartAge   = "start-age"
	FlagEndAge     = "end-age"
	FlagNoAge      = "no-age"
	FlagReturnDate = "return-date"
	FlagToday      = "today"
	FlagVisitType  = "visit-type"
	FlagVisitTypes = "visit-types"
	FlagPatients   = "patients"

	FlagDescGender     = "Only keep patients of this gender (Male or Female)"
	FlagDescStartAge   = "Lowest age in completed years (0-100)"
	FlagDescEndAge     = "Highest age in completed years (0-100)"
	FlagDescNoAge      = "Disable the age range"
	FlagDescReturnDate = "Return date (YYYY-MM-DD), defaults to today"
	FlagDescToday      = "Reset the return date to today"
	FlagDescVisitType  = "Visit type UUID"
	FlagDescVisitTypes = "JSON file listing the known visit types ({uuid, display})"
	FlagDescPatients   = "JSON file of queue entries to filter ({name, gender, birthdate, visitType})"
)

// -----------------------------------------------------------------------------
// Output Formats
// -----------------------------------------------------------------------------

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatVCard = "vcard"

	FormatTextRecord = "birthdate=%s estimated=%t years=%v months=%v\n"
	FormatJSONIndent = "  "
)

// -----------------------------------------------------------------------------
// Form Fields
// -----------------------------------------------------------------------------

// Names of the registration form fields touched by the date-of-birth controller.
const (
	FieldBirthdate          = "birthdate"
	FieldBirthdateEstimated = "birthdateEstimated"
	FieldYearsEstimated     = "yearsEstimated"
	FieldMonthsEstimated    = "monthsEstimated"
)

// EmptyFieldValue is what the form stores for a cleared or "not estimated" field.
const EmptyFieldValue = ""

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	// MaxEstimatedYears is the exclusive upper bound accepted from the years input.
	MaxEstimatedYears = 140
	MonthsPerYear     = 12

	DefaultPolicyEnabled    = false
	DefaultPolicyMonth      = 0
	DefaultPolicyDayOfMonth = 1

	MinPolicyMonth      = 0
	MaxPolicyMonth      = 11
	MinPolicyDayOfMonth = 1
	MaxPolicyDayOfMonth = 31
)

// -----------------------------------------------------------------------------
// Policy Configuration Keys
// -----------------------------------------------------------------------------

// Keys follow the registration app's configuration schema.
const (
	KeyPolicyRoot       = "fieldConfigurations.dateOfBirth.useEstimatedDateOfBirth"
	KeyPolicyEnabled    = KeyPolicyRoot + ".enabled"
	KeyPolicyMonth      = KeyPolicyRoot + ".month"
	KeyPolicyDayOfMonth = KeyPolicyRoot + ".dayOfMonth"
)

// -----------------------------------------------------------------------------
// Date Picker Assets
// -----------------------------------------------------------------------------

const (
	PickerStylesheetURL = "https://unpkg.com/nepali-date-picker@2.0.2/dist/nepaliDatePicker.min.css"
	PickerJQueryURL     = "https://code.jquery.com/jquery-3.7.1.min.js"
	PickerScriptURL     = "https://unpkg.com/nepali-date-picker@2.0.2/dist/nepaliDatePicker.min.js"
	PickerSelector      = ".bod-picker"
	PickerDateFormat    = "%D, %M %d, %y"

	BundleManifestFile = "picker.json"

	AssetKindStylesheet = "stylesheet"
	AssetKindScript     = "script"

	FetchAttempts   = 3
	FetchRetryDelay = 200 * time.Millisecond
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	// DateFormatOmrsISO is the OpenMRS REST date-time layout.
	DateFormatOmrsISO   = "2006-01-02T15:04:05.000-0700"
)

// -----------------------------------------------------------------------------
// Queue Linelist Filter
// -----------------------------------------------------------------------------

const (
	GenderMale   = "Male"
	GenderFemale = "Female"

	MinFilterAge = 0
	MaxFilterAge = 100
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	MaxHTTPResponseSize = 8 * 1024 * 1024 // 8MB, the picker bundle is a few hundred KB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	HeaderUserAgent     = "User-Agent"
)

// -----------------------------------------------------------------------------
// vCard
// -----------------------------------------------------------------------------

const (
	VCardVersion        = "4.0"
	VCardXEstimated     = "X-BIRTHDATE-ESTIMATED"
	VCardXYearsEstimate = "X-AGE-YEARS-ESTIMATED"
	VCardXMonthEstimate = "X-AGE-MONTHS-ESTIMATED"
	VCardValueText      = "text"
	FallbackName        = "Unknown"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrInvalidArgument  = "invalid argument"
	ErrNegativeYears    = "estimated years must not be negative"
	ErrNegativeMonths   = "estimated months must not be negative"
	ErrNegativeValue    = "value must not be negative"
	ErrYearsRange       = "estimated years must be below 140"
	ErrNotInteger       = "value is not an integer"
	ErrPolicyRead       = "failed to read policy configuration"
	ErrPolicyDecode     = "failed to decode policy configuration"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrFetchStatus      = "server returned unexpected status"
	ErrAssetLoad        = "failed to load date picker asset"
	ErrPickerLoad       = "failed to load date picker"
	ErrPickerAttach     = "failed to attach date picker"
	ErrFetcherMissing   = "internal error: asset fetcher is not initialized"
	ErrAdapterMissing   = "internal error: date picker adapter is not initialized"
	ErrUnknownFormat    = "unsupported output format"
	ErrDateParse        = "unable to parse date"
	ErrVCardEncode      = "failed to encode vCard"
	ErrJSONEncode       = "failed to encode JSON"
	ErrGender           = "gender must be Male, Female or empty"
	ErrAgeRange         = "age bounds must be between 0 and 100"
	ErrInvalidFilter    = "invalid linelist filter"
	ErrAgeBounds        = "start age must not exceed end age"
	ErrVisitType        = "unknown visit type"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrFieldValue       = "unexpected form field value"
	ErrEstimateRequired = "either a known date or an age estimate is required"
	ErrFlags            = "invalid command line"
)

const (
	ErrResponseTooLarge = "response exceeds the maximum allowed size"
	ErrInputFile        = "failed to read input file"
	ErrPatientDecode    = "failed to decode patients"
	ErrVisitTypeDecode  = "failed to decode visit types"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting      = "Starting application"
	MsgAppStop          = "Application finished"
	MsgPolicyLoaded     = "Birth date policy loaded"
	MsgPolicyRange      = "Birth date policy value out of range, calendar rollover applies"
	MsgPolicyNoFile     = "No policy file found, using defaults"
	MsgEstimate         = "Estimated birth date computed"
	MsgInputRejected    = "Rejected age estimate input"
	MsgModeToggled      = "Date of birth mode toggled"
	MsgPickerLoading    = "Loading date picker"
	MsgPickerReady      = "Date picker attached"
	MsgPickerSkip       = "Date picker not configured, skipping"
	MsgAssetLoaded      = "Date picker asset loaded"
	MsgAssetRetry       = "Retrying date picker asset download"
	MsgFetchStatus      = "Server returned error status"
	MsgFilterApplied    = "Linelist filter applied"
	MsgFieldChanged     = "Form field changed"
	MsgLogWarning       = "Warning: %s at %s: %v\n"
	MsgBirthdateCleared = "Birth date cleared"
	MsgRender           = "Rendering record"
	MsgPickerFailed     = "Date picker bundle failed, continuing without it"
	MsgPickerStale      = "Dropped date picker selection outside known date mode"
	MsgFilterReady      = "Linelist filter payload built"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent  = "component"
	LogKeyError      = "error"
	LogKeyURL        = "url"
	LogKeyStatus     = "status_code"
	LogKeyValue      = "value"
	LogKeyField      = "field"
	LogKeyYears      = "years"
	LogKeyMonths     = "months"
	LogKeyBirthdate  = "birthdate"
	LogKeyEnabled    = "enabled"
	LogKeyMonth      = "month"
	LogKeyDayOfMonth = "day_of_month"
	LogKeyKnown      = "known"
	LogKeyKind       = "kind"
	LogKeyAttempt    = "attempt"
	LogKeySizeBytes  = "size_bytes"
	LogKeySelector   = "selector"
	LogKeyDuration   = "duration_ms"
	LogKeyGender     = "gender"
	LogKeyVisitType  = "visit_type"
	LogKeyPolicy     = "policy"
	LogKeyMatched    = "matched"
	LogKeyTotal      = "total"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "build_date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain     = "main"
	CompConfig   = "config"
	CompEngine   = "engine"
	CompForm     = "form"
	CompPicker   = "datepicker"
	CompFetcher  = "fetcher"
	CompLinelist = "linelist"
	CompExport   = "export"
)
