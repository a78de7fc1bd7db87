package repository

import (
	"context"
	"database/sql"
	"fmt"

	"referral-backend/internal/domain"

	"github.com/google/uuid"
)

// PostgresReferralsRepo stores referrals in the referrals table.
type PostgresReferralsRepo struct {
	db *sql.DB
}

func NewPostgresReferralsRepo(db *sql.DB) *PostgresReferralsRepo {
	return &PostgresReferralsRepo{db: db}
}

var _ ReferralsRepository = (*PostgresReferralsRepo)(nil)

func (r *PostgresReferralsRepo) Append(ctx context.Context, rec *domain.Referral) (string, error) {
	id := rec.ReferralID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO referrals (
			referral_id, patient_name, age, gender, phone,
			diagnosis, referring_facility, referral_time, referring_doctor
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id,
		rec.PatientName,
		rec.Age,
		string(rec.Gender),
		nullString(rec.Phone),
		rec.Diagnosis,
		rec.ReferringFacility,
		rec.ReferralTime,
		nullString(rec.ReferringDoctor),
	)
	if err != nil {
		return "", &StoreUnavailableError{Err: fmt.Errorf("failed to append referral: %w", err)}
	}
	return id, nil
}

func (r *PostgresReferralsRepo) List(ctx context.Context) ([]*domain.Referral, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			referral_id::text,
			patient_name,
			age,
			gender,
			COALESCE(phone, '') AS phone,
			diagnosis,
			referring_facility,
			referral_time,
			arrival_time,
			COALESCE(referring_doctor, '') AS referring_doctor,
			COALESCE(acknowledged_by, '') AS acknowledged_by,
			COALESCE(notes, '') AS notes
		FROM referrals
		ORDER BY referral_time ASC, referral_id ASC`)
	if err != nil {
		return nil, &StoreUnavailableError{Err: fmt.Errorf("failed to list referrals: %w", err)}
	}
	defer rows.Close()

	var out []*domain.Referral
	for rows.Next() {
		var rec domain.Referral
		var gender string
		var arrivalTime sql.NullTime
		if err := rows.Scan(
			&rec.ReferralID,
			&rec.PatientName,
			&rec.Age,
			&gender,
			&rec.Phone,
			&rec.Diagnosis,
			&rec.ReferringFacility,
			&rec.ReferralTime,
			&arrivalTime,
			&rec.ReferringDoctor,
			&rec.AcknowledgedBy,
			&rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		rec.Gender = domain.Gender(gender)
		if arrivalTime.Valid {
			t := arrivalTime.Time
			rec.ArrivalTime = &t
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreUnavailableError{Err: fmt.Errorf("failed to read referrals: %w", err)}
	}
	return out, nil
}

// Acknowledge is a conditional update: the WHERE clause on arrival_time makes
// the second of two racing acknowledgments lose with zero rows affected.
func (r *PostgresReferralsRepo) Acknowledge(ctx context.Context, id string, ack Acknowledgment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE referrals
		SET arrival_time = $2,
		    acknowledged_by = $3,
		    notes = $4
		WHERE referral_id = $1 AND arrival_time IS NULL`,
		id,
		ack.ArrivalTime,
		nullString(ack.AcknowledgedBy),
		nullString(ack.Notes),
	)
	if err != nil {
		return &StoreUnavailableError{Err: fmt.Errorf("failed to acknowledge referral: %w", err)}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Zero rows: either the id is unknown or the record was already
	// acknowledged. One more read to tell the two apart.
	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM referrals WHERE referral_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return &StoreUnavailableError{Err: fmt.Errorf("failed to check referral: %w", err)}
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyAcknowledged
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
