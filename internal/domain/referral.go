package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Gender enumerated values accepted on submission.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender normalizes and validates a submitted gender value.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	case GenderOther:
		return GenderOther, nil
	default:
		return "", fmt.Errorf("unrecognized gender %q", s)
	}
}

// Referral is one patient referral from a sending facility to the receiving
// hospital. Created once on submission, mutated exactly once on
// acknowledgment (ArrivalTime and the acknowledgment fields), never deleted.
type Referral struct {
	// Primary key, assigned at creation
	ReferralID string `db:"referral_id"` // UUID, PRIMARY KEY

	// Patient details, captured at submission
	PatientName string `db:"patient_name"` // VARCHAR(255), NOT NULL
	Age         int    `db:"age"`          // INTEGER, NOT NULL, >= 0
	Gender      Gender `db:"gender"`       // VARCHAR(10), NOT NULL (male/female/other)
	Phone       string `db:"phone"`        // VARCHAR(50), nullable, format unvalidated

	// Referral details, captured at submission
	Diagnosis         string    `db:"diagnosis"`          // TEXT, NOT NULL
	ReferringFacility string    `db:"referring_facility"` // VARCHAR(255), NOT NULL
	ReferralTime      time.Time `db:"referral_time"`      // TIMESTAMPTZ, NOT NULL, server clock
	ReferringDoctor   string    `db:"referring_doctor"`   // VARCHAR(255), nullable

	// Acknowledgment, set exactly once by the receiving hospital
	ArrivalTime    *time.Time `db:"arrival_time"`    // TIMESTAMPTZ, nullable, monotonic (never cleared)
	AcknowledgedBy string     `db:"acknowledged_by"` // VARCHAR(255), nullable
	Notes          string     `db:"notes"`           // TEXT, nullable
}

// Acknowledged reports whether the patient's arrival has been recorded.
// Derived from ArrivalTime; not stored independently.
func (r *Referral) Acknowledged() bool {
	return r.ArrivalTime != nil
}

// ToJSON flattens the record for API responses. acknowledged is derived,
// arrival_time is omitted while the record is pending.
func (r *Referral) ToJSON() map[string]any {
	m := map[string]any{
		"id":                 r.ReferralID,
		"patient_name":       r.PatientName,
		"age":                r.Age,
		"gender":             string(r.Gender),
		"phone":              r.Phone,
		"diagnosis":          r.Diagnosis,
		"referring_facility": r.ReferringFacility,
		"referral_time":      r.ReferralTime.UTC().Format(time.RFC3339),
		"acknowledged":       r.Acknowledged(),
		"referring_doctor":   r.ReferringDoctor,
		"acknowledged_by":    r.AcknowledgedBy,
		"notes":              r.Notes,
	}
	if r.ArrivalTime != nil {
		m["arrival_time"] = r.ArrivalTime.UTC().Format(time.RFC3339)
	}
	return m
}

// SubmitInput carries the raw submission form values. Age arrives as a
// string so that non-numeric input is reported as a validation error on the
// age field rather than a transport-level decode failure.
type SubmitInput struct {
	PatientName       string
	Age               string
	Gender            string
	Phone             string
	Diagnosis         string
	ReferringFacility string
	ReferringDoctor   string
}

// ValidationError names every offending submission field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// NewReferral validates the submission and constructs an unacknowledged
// record with ReferralTime = now. The id is left empty; the store assigns it
// on append. Returns a ValidationError listing all bad fields, in which case
// no record is produced.
func NewReferral(in SubmitInput, now time.Time) (*Referral, error) {
	fields := map[string]string{}

	if strings.TrimSpace(in.PatientName) == "" {
		fields["patient_name"] = "required"
	}
	age, ageErr := parseAge(in.Age)
	if ageErr != nil {
		fields["age"] = ageErr.Error()
	}
	gender, genderErr := ParseGender(in.Gender)
	if genderErr != nil {
		fields["gender"] = genderErr.Error()
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		fields["diagnosis"] = "required"
	}
	if strings.TrimSpace(in.ReferringFacility) == "" {
		fields["referring_facility"] = "required"
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	return &Referral{
		PatientName:       strings.TrimSpace(in.PatientName),
		Age:               age,
		Gender:            gender,
		Phone:             strings.TrimSpace(in.Phone),
		Diagnosis:         strings.TrimSpace(in.Diagnosis),
		ReferringFacility: strings.TrimSpace(in.ReferringFacility),
		ReferringDoctor:   strings.TrimSpace(in.ReferringDoctor),
		ReferralTime:      now,
	}, nil
}

func parseAge(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("required")
	}
	age, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if age < 0 {
		return 0, fmt.Errorf("must be non-negative")
	}
	return age, nil
}
