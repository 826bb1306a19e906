package linelist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tartampluch/go-dob/internal/config"
)

// patientJSON is the wire form of Patient; birth dates are plain calendar dates.
type patientJSON struct {
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Birthdate string `json:"birthdate"`
	VisitType string `json:"visitType"`
}

// MarshalJSON writes the birth date as YYYY-MM-DD.
func (p Patient) MarshalJSON() ([]byte, error) {
	return json.Marshal(patientJSON{
		Name:      p.Name,
		Gender:    p.Gender,
		Birthdate: p.Birthdate.Format(config.DateFormatFullDash),
		VisitType: p.VisitType,
	})
}

// UnmarshalJSON reads a YYYY-MM-DD birth date as local midnight.
func (p *Patient) UnmarshalJSON(data []byte) error {
	var raw patientJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	birthdate, err := time.ParseInLocation(config.DateFormatFullDash, raw.Birthdate, time.Local)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", config.ErrDateParse, raw.Name, err)
	}
	*p = Patient{
		Name:      raw.Name,
		Gender:    raw.Gender,
		Birthdate: birthdate,
		VisitType: raw.VisitType,
	}
	return nil
}

// ReadPatients decodes a JSON array of queue entries.
func ReadPatients(r io.Reader) ([]Patient, error) {
	var patients []Patient
	if err := json.NewDecoder(r).Decode(&patients); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrPatientDecode, err)
	}
	return patients, nil
}

// StaticVisitTypes is a VisitTypeSource over a fixed list.
type StaticVisitTypes []VisitType

// VisitTypes returns the list.
func (s StaticVisitTypes) VisitTypes(context.Context) ([]VisitType, error) {
	return s, nil
}

// ReadVisitTypes decodes a JSON array of visit types.
func ReadVisitTypes(r io.Reader) (StaticVisitTypes, error) {
	var types StaticVisitTypes
	if err := json.NewDecoder(r).Decode(&types); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrVisitTypeDecode, err)
	}
	return types, nil
}
