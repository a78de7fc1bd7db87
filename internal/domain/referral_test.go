package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() SubmitInput {
	return SubmitInput{
		PatientName:       "Jane Doe",
		Age:               "34",
		Gender:            "female",
		Phone:             "+234-800-000-0000",
		Diagnosis:         "sepsis",
		ReferringFacility: "PHC Ikorodu",
		ReferringDoctor:   "Dr. Adeyemi",
	}
}

func TestNewReferral_Valid(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	rec, err := NewReferral(validInput(), now)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", rec.PatientName)
	assert.Equal(t, 34, rec.Age)
	assert.Equal(t, GenderFemale, rec.Gender)
	assert.Equal(t, now, rec.ReferralTime)
	assert.Nil(t, rec.ArrivalTime)
	assert.False(t, rec.Acknowledged())
	assert.Empty(t, rec.ReferralID, "id is assigned by the store, not here")
}

func TestNewReferral_TrimsWhitespace(t *testing.T) {
	in := validInput()
	in.PatientName = "  Jane Doe  "
	in.Gender = " Female "

	rec, err := NewReferral(in, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rec.PatientName)
	assert.Equal(t, GenderFemale, rec.Gender)
}

func TestNewReferral_NegativeAge(t *testing.T) {
	in := validInput()
	in.Age = "-1"

	rec, err := NewReferral(in, time.Now())
	require.Error(t, err)
	assert.Nil(t, rec)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "age")
	assert.Contains(t, err.Error(), "age")
}

func TestNewReferral_CollectsAllBadFields(t *testing.T) {
	rec, err := NewReferral(SubmitInput{
		Age:    "not-a-number",
		Gender: "unknown",
	}, time.Now())
	require.Error(t, err)
	assert.Nil(t, rec)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	for _, field := range []string{"patient_name", "age", "gender", "diagnosis", "referring_facility"} {
		assert.Contains(t, vErr.Fields, field)
	}
}

func TestNewReferral_PhoneOptional(t *testing.T) {
	in := validInput()
	in.Phone = ""
	in.ReferringDoctor = ""

	rec, err := NewReferral(in, time.Now())
	require.NoError(t, err)
	assert.Empty(t, rec.Phone)
	assert.Empty(t, rec.ReferringDoctor)
}

func TestParseGender(t *testing.T) {
	for raw, want := range map[string]Gender{
		"male":    GenderMale,
		"FEMALE":  GenderFemale,
		" Other ": GenderOther,
	} {
		got, err := ParseGender(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseGender("select")
	assert.Error(t, err)
	_, err = ParseGender("")
	assert.Error(t, err)
}

func TestToJSON_DerivedAcknowledged(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	rec, err := NewReferral(validInput(), now)
	require.NoError(t, err)

	m := rec.ToJSON()
	assert.Equal(t, false, m["acknowledged"])
	_, hasArrival := m["arrival_time"]
	assert.False(t, hasArrival)

	arrival := now.Add(2 * time.Hour)
	rec.ArrivalTime = &arrival
	m = rec.ToJSON()
	assert.Equal(t, true, m["acknowledged"])
	assert.Equal(t, "2026-03-01T12:30:00Z", m["arrival_time"])
}
