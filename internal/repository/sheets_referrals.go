package repository

import (
	"context"
	"fmt"
	"time"

	"referral-backend/internal/domain"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SheetsConfig points the store at one worksheet of one spreadsheet.
type SheetsConfig struct {
	BaseURL       string // e.g. "https://sheets.googleapis.com"
	SpreadsheetID string
	Worksheet     string // e.g. "Sheet1"
	Token         string // bearer token for the values API
}

// SheetsReferralsRepo persists referrals to a Google Sheets worksheet via the
// values API: one row per record, row 1 = Header. The values API has no
// conditional write, so Acknowledge is read-check-then-update; two viewers
// acknowledging the same record at the same instant can still both pass the
// check. Accepted limitation for the expected clinic-scale usage.
type SheetsReferralsRepo struct {
	client *resty.Client
	cfg    SheetsConfig
	logger *zap.Logger
}

func NewSheetsReferralsRepo(cfg SheetsConfig, logger *zap.Logger) *SheetsReferralsRepo {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &SheetsReferralsRepo{client: client, cfg: cfg, logger: logger}
}

var _ ReferralsRepository = (*SheetsReferralsRepo)(nil)

// valueRange mirrors the values API payload.
type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

func (r *SheetsReferralsRepo) valuesPath(rng string) string {
	return fmt.Sprintf("/v4/spreadsheets/%s/values/%s", r.cfg.SpreadsheetID, rng)
}

func (r *SheetsReferralsRepo) Append(ctx context.Context, rec *domain.Referral) (string, error) {
	rows, err := r.readAll(ctx)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		// Fresh worksheet: write the header row first.
		if err := r.appendRows(ctx, [][]string{Header}); err != nil {
			return "", err
		}
	}

	id := rec.ReferralID
	if id == "" {
		id = uuid.NewString()
	}
	stored := *rec
	stored.ReferralID = id

	if err := r.appendRows(ctx, [][]string{RecordRow(&stored)}); err != nil {
		return "", err
	}
	r.logger.Info("referral appended to sheet",
		zap.String("referral_id", id),
		zap.String("worksheet", r.cfg.Worksheet))
	return id, nil
}

func (r *SheetsReferralsRepo) List(ctx context.Context) ([]*domain.Referral, error) {
	rows, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	out := make([]*domain.Referral, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := recordFromRow(row)
		if err != nil {
			// A malformed row should not hide the rest of the sheet.
			r.logger.Warn("skipping malformed sheet row",
				zap.Int("row", i+2), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *SheetsReferralsRepo) Acknowledge(ctx context.Context, id string, ack Acknowledgment) error {
	rows, err := r.readAll(ctx)
	if err != nil {
		return err
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

		// Rewrite the arrival columns (I..M) of this row in one update.
		updated := RecordRow(rec)
		rng := fmt.Sprintf("%s!I%d:M%d", r.cfg.Worksheet, i+1, i+1)
		resp, err := r.client.R().
			SetContext(ctx).
			SetQueryParam("valueInputOption", "RAW").
			SetBody(valueRange{Values: [][]string{updated[8:]}}).
			Put(r.valuesPath(rng))
		if err != nil {
			return &StoreUnavailableError{Err: err}
		}
		if resp.IsError() {
			return &StoreUnavailableError{Err: fmt.Errorf("values update: %s", resp.Status())}
		}
		return nil
	}
	return ErrNotFound
}

func (r *SheetsReferralsRepo) readAll(ctx context.Context) ([][]string, error) {
	var vr valueRange
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&vr).
		Get(r.valuesPath(r.cfg.Worksheet))
	if err != nil {
		return nil, &StoreUnavailableError{Err: err}
	}
	if resp.IsError() {
		return nil, &StoreUnavailableError{Err: fmt.Errorf("values get: %s", resp.Status())}
	}
	return vr.Values, nil
}

func (r *SheetsReferralsRepo) appendRows(ctx context.Context, rows [][]string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", "RAW").
		SetBody(valueRange{Values: rows}).
		Post(r.valuesPath(r.cfg.Worksheet) + ":append")
	if err != nil {
		return &StoreUnavailableError{Err: err}
	}
	if resp.IsError() {
		return &StoreUnavailableError{Err: fmt.Errorf("values append: %s", resp.Status())}
	}
	return nil
}
