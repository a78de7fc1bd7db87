package repository

import (
	"context"
	"fmt"
	"os"
	"sync"

	"referral-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const workbookSheet = "Referrals"

// WorkbookReferralsRepo persists referrals to a local .xlsx workbook, for
// single-host deployments with no reachable remote sheet. Same row layout as
// the sheets backend. One process owns the file; a mutex serializes access
// within it.
type WorkbookReferralsRepo struct {
	mu   sync.Mutex
	path string
}

func NewWorkbookReferralsRepo(path string) (*WorkbookReferralsRepo, error) {
	r := &WorkbookReferralsRepo{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := r.create(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var _ ReferralsRepository = (*WorkbookReferralsRepo)(nil)

// create writes a fresh workbook holding only the header row.
func (r *WorkbookReferralsRepo) create() error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(workbookSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	for col, name := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(workbookSheet, cell, name); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(workbookSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SaveAs(r.path); err != nil {
		return &StoreUnavailableError{Err: fmt.Errorf("failed to save workbook: %w", err)}
	}
	return nil
}

func (r *WorkbookReferralsRepo) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, &StoreUnavailableError{Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	return f, nil
}

func (r *WorkbookReferralsRepo) Append(_ context.Context, rec *domain.Referral) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	if err != nil {
		return "", fmt.Errorf("failed to read workbook rows: %w", err)
	}

	id := rec.ReferralID
	if id == "" {
		id = uuid.NewString()
	}
	stored := *rec
	stored.ReferralID = id

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return "", fmt.Errorf("failed to convert coordinates: %w", err)
	}
	row := RecordRow(&stored)
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	if err := f.SetSheetRow(workbookSheet, cell, &cells); err != nil {
		return "", fmt.Errorf("failed to append row: %w", err)
	}
	if err := f.Save(); err != nil {
		return "", &StoreUnavailableError{Err: fmt.Errorf("failed to save workbook: %w", err)}
	}
	return id, nil
}

func (r *WorkbookReferralsRepo) List(_ context.Context) ([]*domain.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	out := make([]*domain.Referral, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *WorkbookReferralsRepo) Acknowledge(_ context.Context, id string, ack Acknowledgment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	if err != nil {
		return fmt.Errorf("failed to read workbook rows: %w", err)
	}

	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] != id {
			continue
		}
		rec, err := recordFromRow(row)
		if err != nil {
			return fmt.Errorf("referral %s: %w", id, err)
		}
		if rec.ArrivalTime != nil {
			return ErrAlreadyAcknowledged
		}

		t := ack.ArrivalTime
		rec.ArrivalTime = &t
		rec.AcknowledgedBy = ack.AcknowledgedBy
		rec.Notes = ack.Notes

		updated := RecordRow(rec)
		cell, err := excelize.CoordinatesToCellName(9, i+1) // column I, arrival_time
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		tail := make([]interface{}, len(updated)-8)
		for j, v := range updated[8:] {
			tail[j] = v
		}
		if err := f.SetSheetRow(workbookSheet, cell, &tail); err != nil {
			return fmt.Errorf("failed to update row: %w", err)
		}
		if err := f.Save(); err != nil {
			return &StoreUnavailableError{Err: fmt.Errorf("failed to save workbook: %w", err)}
		}
		return nil
	}
	return ErrNotFound
}
