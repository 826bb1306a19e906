package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-dob/internal/config"
	"github.com/tartampluch/go-dob/internal/form"
)

// Record is the date-of-birth section of a registration form.
type Record struct {
	Name               string `json:"name,omitempty"`
	Birthdate          string `json:"birthdate"` // YYYY-MM-DD, or the raw picker text.
	BirthdateEstimated bool   `json:"birthdateEstimated"`
	YearsEstimated     int    `json:"yearsEstimated"`
	MonthsEstimated    any    `json:"monthsEstimated"` // int, or "" when not estimated.
}

// RecordFromState reads the date-of-birth fields out of s.
func RecordFromState(s form.State, name string) (Record, error) {
	years, err := form.IntField(s, config.FieldYearsEstimated)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		Name:               name,
		BirthdateEstimated: form.BoolField(s, config.FieldBirthdateEstimated),
		YearsEstimated:     years,
		MonthsEstimated:    config.EmptyFieldValue,
	}
	if v, ok := s.Field(config.FieldMonthsEstimated); ok && v != nil {
		rec.MonthsEstimated = v
	}

	v, _ := s.Field(config.FieldBirthdate)
	switch val := v.(type) {
	case nil:
	case time.Time:
		rec.Birthdate = val.Format(config.DateFormatFullDash)
	case string:
		rec.Birthdate = val
	default:
		return Record{}, fmt.Errorf("%s: %s=%T", config.ErrFieldValue, config.FieldBirthdate, v)
	}
	return rec, nil
}

// Write renders rec to w in the given format.
func Write(w io.Writer, format string, rec Record) error {
	slog.Debug(config.MsgRender,
		config.LogKeyComponent, config.CompExport,
		config.LogKeyValue, format,
	)
	switch format {
	case config.FormatText:
		_, err := fmt.Fprintf(w, config.FormatTextRecord,
			rec.Birthdate, rec.BirthdateEstimated, rec.YearsEstimated, rec.MonthsEstimated)
		return err
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", config.FormatJSONIndent)
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("%s: %w", config.ErrJSONEncode, err)
		}
		return nil
	case config.FormatVCard:
		if err := vcard.NewEncoder(w).Encode(Card(rec)); err != nil {
			return fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
		}
		return nil
	default:
		return fmt.Errorf("%s: %q", config.ErrUnknownFormat, format)
	}
}

// Card converts rec to a vCard 4.0. BDAY uses the basic date form when the birth date
// parses, and a text value otherwise.
func Card(rec Record) vcard.Card {
	card := make(vcard.Card)
	card.SetValue(vcard.FieldVersion, config.VCardVersion)

	name := rec.Name
	if name == "" {
		name = config.FallbackName
	}
	card.SetValue(vcard.FieldFormattedName, name)

	if rec.Birthdate != "" {
		bday := &vcard.Field{Value: rec.Birthdate, Params: vcard.Params{}}
		if d, err := time.Parse(config.DateFormatFullDash, rec.Birthdate); err == nil {
			bday.Value = d.Format(config.DateFormatFullBasic)
		} else {
			bday.Params.Set(vcard.ParamValue, config.VCardValueText)
		}
		card.Set(vcard.FieldBirthday, bday)
	}

	card.SetValue(config.VCardXEstimated, strconv.FormatBool(rec.BirthdateEstimated))
	if rec.BirthdateEstimated {
		card.SetValue(config.VCardXYearsEstimate, strconv.Itoa(rec.YearsEstimated))
		if m, ok := rec.MonthsEstimated.(int); ok {
			card.SetValue(config.VCardXMonthEstimate, strconv.Itoa(m))
		}
	}
	return card
}
