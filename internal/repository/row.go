package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"referral-backend/internal/domain"
)

// RecordRow flattens a record into one sheet row, columns per Header.
// Pending records get an empty arrival_time cell and acknowledged = "no".
func RecordRow(r *domain.Referral) []string {
	arrival := ""
	acked := "no"
	if r.ArrivalTime != nil {
		arrival = r.ArrivalTime.UTC().Format(TimeLayout)
		acked = "yes"
	}
	return []string{
		r.ReferralID,
		r.PatientName,
		strconv.Itoa(r.Age),
		string(r.Gender),
		r.Phone,
		r.Diagnosis,
		r.ReferringFacility,
		r.ReferralTime.UTC().Format(TimeLayout),
		arrival,
		acked,
		r.ReferringDoctor,
		r.AcknowledgedBy,
		r.Notes,
	}
}

// recordFromRow parses one sheet row back into a record. Short rows are
// padded: trailing empty cells are dropped by both sheet APIs.
func recordFromRow(row []string) (*domain.Referral, error) {
	cells := make([]string, len(Header))
	copy(cells, row)

	if strings.TrimSpace(cells[0]) == "" {
		return nil, fmt.Errorf("row has no id")
	}

	age, err := strconv.Atoi(strings.TrimSpace(cells[2]))
	if err != nil {
		return nil, fmt.Errorf("row %s: bad age %q", cells[0], cells[2])
	}

	referralTime, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(cells[7]), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("row %s: bad referral_time %q", cells[0], cells[7])
	}

	r := &domain.Referral{
		ReferralID:        cells[0],
		PatientName:       cells[1],
		Age:               age,
		Gender:            domain.Gender(cells[3]),
		Phone:             cells[4],
		Diagnosis:         cells[5],
		ReferringFacility: cells[6],
		ReferralTime:      referralTime,
		ReferringDoctor:   cells[10],
		AcknowledgedBy:    cells[11],
		Notes:             cells[12],
	}

	if arrivalCell := strings.TrimSpace(cells[8]); arrivalCell != "" {
		arrival, err := time.ParseInLocation(TimeLayout, arrivalCell, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %s: bad arrival_time %q", cells[0], arrivalCell)
		}
		r.ArrivalTime = &arrival
	}
	return r, nil
}
