package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSheet emulates the slice of the values API the store uses: get,
// append, and a ranged update.
type fakeSheet struct {
	mu   sync.Mutex
	rows [][]string
	fail bool // force 500s to exercise StoreUnavailableError
}

func (s *fakeSheet) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		if s.fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			var vr struct {
				Values [][]string `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&vr)
			s.rows = append(s.rows, vr.Values...)
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{}`)

		case r.Method == http.MethodPut:
			// range like "Sheet1!I3:M3"
			var vr struct {
				Values [][]string `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&vr)
			rng := r.URL.Path[strings.LastIndex(r.URL.Path, "!")+1:]
			var rowNum int
			_, err := fmt.Sscanf(rng, "I%d:", &rowNum)
			if err != nil || rowNum < 1 || rowNum > len(s.rows) || len(vr.Values) != 1 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			row := s.rows[rowNum-1]
			for len(row) < len(Header) {
				row = append(row, "")
			}
			copy(row[8:], vr.Values[0])
			s.rows[rowNum-1] = row
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{}`)

		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"values": s.rows})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func setupSheetsRepo(t *testing.T) (*fakeSheet, *SheetsReferralsRepo) {
	sheet := &fakeSheet{}
	srv := httptest.NewServer(sheet.handler())
	t.Cleanup(srv.Close)

	repo := NewSheetsReferralsRepo(SheetsConfig{
		BaseURL:       srv.URL,
		SpreadsheetID: "test-spreadsheet",
		Worksheet:     "Sheet1",
	}, zap.NewNop())
	return sheet, repo
}

func TestSheetsRepo_AppendWritesHeaderOnce(t *testing.T) {
	sheet, repo := setupSheetsRepo(t)
	ctx := context.Background()

	id, err := repo.Append(ctx, testReferral("Jane Doe", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = repo.Append(ctx, testReferral("John Doe", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.Len(t, sheet.rows, 3, "header + two records")
	assert.Equal(t, Header, sheet.rows[0])
	assert.Equal(t, id, sheet.rows[1][0])
}

func TestSheetsRepo_ListRoundTrip(t *testing.T) {
	_, repo := setupSheetsRepo(t)
	ctx := context.Background()
	refTime := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := testReferral("Jane Doe", refTime)
	rec.Phone = "0800"
	id, err := repo.Append(ctx, rec)
	require.NoError(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, id, got.ReferralID)
	assert.Equal(t, "Jane Doe", got.PatientName)
	assert.Equal(t, 34, got.Age)
	assert.Equal(t, "0800", got.Phone)
	assert.Equal(t, refTime, got.ReferralTime)
	assert.False(t, got.Acknowledged())
}

func TestSheetsRepo_AcknowledgeLifecycle(t *testing.T) {
	_, repo := setupSheetsRepo(t)
	ctx := context.Background()

	id, err := repo.Append(ctx, testReferral("Jane Doe", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
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
	require.Len(t, records, 1)
	require.NotNil(t, records[0].ArrivalTime)
	assert.Equal(t, arrival, *records[0].ArrivalTime)
	assert.Equal(t, "Nurse Okafor", records[0].AcknowledgedBy)
	assert.Equal(t, "stable on arrival", records[0].Notes)

	err = repo.Acknowledge(ctx, id, Acknowledgment{ArrivalTime: arrival.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrAlreadyAcknowledged)
}

func TestSheetsRepo_AcknowledgeUnknownID(t *testing.T) {
	_, repo := setupSheetsRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, testReferral("Jane Doe", time.Now().UTC().Truncate(time.Second)))
	require.NoError(t, err)

	err = repo.Acknowledge(ctx, "no-such-id", Acknowledgment{ArrivalTime: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSheetsRepo_StoreUnavailable(t *testing.T) {
	sheet, repo := setupSheetsRepo(t)
	sheet.fail = true

	_, err := repo.List(context.Background())
	require.Error(t, err)

	var storeErr *StoreUnavailableError
	assert.ErrorAs(t, err, &storeErr)
}
