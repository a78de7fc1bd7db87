package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/internal/repository"
	"referral-backend/internal/service"

	"go.uber.org/zap"
)

// ReferralHandler exposes the referral lifecycle over HTTP.
type ReferralHandler struct {
	svc    service.ReferralService
	logger *zap.Logger
}

func NewReferralHandler(svc service.ReferralService, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{svc: svc, logger: logger}
}

// Submit handles POST /referral/api/v1/referrals.
func (h *ReferralHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	rec, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(rec.ToJSON()))
}

// List handles GET /referral/api/v1/referrals with an optional
// ?status=pending|acknowledged filter.
func (h *ReferralHandler) List(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("status") {
	case "pending":
		h.ListPending(w, r)
	case "acknowledged":
		h.ListAcknowledged(w, r)
	case "":
		records, err := h.svc.ListAll(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(recordsJSON(records)))
	default:
		writeJSON(w, http.StatusBadRequest, Fail("unknown status filter"))
	}
}

func (h *ReferralHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListPending(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(recordsJSON(records)))
}

func (h *ReferralHandler) ListAcknowledged(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListAcknowledged(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(recordsJSON(records)))
}

// Acknowledge handles POST /referral/api/v1/referrals/{id}/acknowledge.
func (h *ReferralHandler) Acknowledge(w http.ResponseWriter, r *http.Request, id string) {
	var req service.AcknowledgeRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	rec, err := h.svc.Acknowledge(r.Context(), id, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(rec.ToJSON()))
}

// Export handles GET /referral/api/v1/referrals/export?format=csv|xlsx.
func (h *ReferralHandler) Export(w http.ResponseWriter, r *http.Request) {
	stamp := time.Now().UTC().Format("20060102")
	switch r.URL.Query().Get("format") {
	case "xlsx":
		data, err := service.ExportXLSX(r.Context(), h.svc)
		if err != nil {
			h.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="referrals_%s.xlsx"`, stamp))
		_, _ = w.Write(data)
	case "csv", "":
		// Render into a buffer first so a store failure still gets the
		// error envelope instead of a 200 with a truncated body.
		var buf bytes.Buffer
		if err := service.ExportCSV(r.Context(), h.svc, &buf); err != nil {
			h.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="referrals_%s.csv"`, stamp))
		_, _ = w.Write(buf.Bytes())
	default:
		writeJSON(w, http.StatusBadRequest, Fail("unknown export format"))
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Every error is
// surfaced to the acting user; nothing is retried here.
func (h *ReferralHandler) writeError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var storeErr *repository.StoreUnavailableError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, FailFields(vErr.Error(), vErr.Fields))
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("referral not found"))
	case errors.Is(err, repository.ErrAlreadyAcknowledged):
		writeJSON(w, http.StatusConflict, Fail("referral already acknowledged"))
	case errors.As(err, &storeErr):
		h.logger.Error("record store unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, Fail("record store unavailable, please try again"))
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}

func recordsJSON(records []*domain.Referral) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToJSON())
	}
	return out
}
