package repository

import (
	"context"
	"testing"
	"time"

	"referral-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReferral(name string, referralTime time.Time) *domain.Referral {
	return &domain.Referral{
		PatientName:       name,
		Age:               34,
		Gender:            domain.GenderFemale,
		Diagnosis:         "sepsis",
		ReferringFacility: "PHC Ikorodu",
		ReferralTime:      referralTime,
	}
}

func TestMemoryRepo_AppendAssignsID(t *testing.T) {
	repo := NewMemoryReferralsRepo()
	ctx := context.Background()

	id, err := repo.Append(ctx, testReferral("Jane Doe", time.Now()))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	id2, err := repo.Append(ctx, testReferral("Jane Doe", time.Now()))
	require.NoError(t, err)
	assert.NotEqual(t, id, id2, "duplicate submissions get distinct ids")
}

func TestMemoryRepo_ListRoundTrip(t *testing.T) {
	repo := NewMemoryReferralsRepo()
	ctx := context.Background()
	refTime := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := testReferral("Jane Doe", refTime)
	rec.Phone = "0800"
	rec.ReferringDoctor = "Dr. Adeyemi"
	id, err := repo.Append(ctx, rec)
	require.NoError(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, id, got.ReferralID)
	assert.Equal(t, "Jane Doe", got.PatientName)
	assert.Equal(t, 34, got.Age)
	assert.Equal(t, domain.GenderFemale, got.Gender)
	assert.Equal(t, "0800", got.Phone)
	assert.Equal(t, "sepsis", got.Diagnosis)
	assert.Equal(t, "PHC Ikorodu", got.ReferringFacility)
	assert.Equal(t, "Dr. Adeyemi", got.ReferringDoctor)
	assert.Equal(t, refTime, got.ReferralTime)
	assert.Nil(t, got.ArrivalTime)
}

func TestMemoryRepo_ListReturnsCopies(t *testing.T) {
	repo := NewMemoryReferralsRepo()
	ctx := context.Background()

	_, err := repo.Append(ctx, testReferral("Jane Doe", time.Now()))
	require.NoError(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	records[0].PatientName = "mutated"

	again, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", again[0].PatientName)
}

func TestMemoryRepo_AcknowledgeLifecycle(t *testing.T) {
	repo := NewMemoryReferralsRepo()
	ctx := context.Background()

	id, err := repo.Append(ctx, testReferral("Jane Doe", time.Now()))
	require.NoError(t, err)

	arrival := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	err = repo.Acknowledge(ctx, id, Acknowledgment{
		ArrivalTime:    arrival,
		AcknowledgedBy: "Nurse Okafor",
		Notes:          "stable on arrival",
	})
	require.NoError(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	got := records[0]
	require.NotNil(t, got.ArrivalTime)
	assert.Equal(t, arrival, *got.ArrivalTime)
	assert.Equal(t, "Nurse Okafor", got.AcknowledgedBy)
	assert.Equal(t, "stable on arrival", got.Notes)
	assert.True(t, got.Acknowledged())

	// One-way transition: the second acknowledge is rejected.
	err = repo.Acknowledge(ctx, id, Acknowledgment{ArrivalTime: arrival.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrAlreadyAcknowledged)

	again, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, arrival, *again[0].ArrivalTime, "arrival_time never reset")
}

func TestMemoryRepo_AcknowledgeUnknownID(t *testing.T) {
	repo := NewMemoryReferralsRepo()
	ctx := context.Background()

	err := repo.Acknowledge(ctx, "no-such-id", Acknowledgment{ArrivalTime: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 0; i < 5; i++ {
		_, err := repo.Append(ctx, testReferral("Jane Doe", time.Now()))
		require.NoError(t, err)
	}
	err = repo.Acknowledge(ctx, "no-such-id", Acknowledgment{ArrivalTime: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound, "not found regardless of store size")
}
