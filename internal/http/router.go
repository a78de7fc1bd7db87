package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux; the API surface is small
// enough that a third-party router buys nothing.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterReferralRoutes wires the two-party workflow: submission for the
// sending facility, pending queue + acknowledgment for the receiving
// hospital, full-list export for either.
func (r *Router) RegisterReferralRoutes(h *ReferralHandler) {
	// submit + full list
	r.Handle("/referral/api/v1/referrals", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			h.Submit(w, req)
		case http.MethodGet:
			h.List(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// pending queue
	r.Handle("/referral/api/v1/referrals/pending", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListPending(w, req)
	})

	// acknowledged history
	r.Handle("/referral/api/v1/referrals/acknowledged", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListAcknowledged(w, req)
	})

	// export download
	r.Handle("/referral/api/v1/referrals/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	})

	// referrals/{id}/acknowledge
	r.Handle("/referral/api/v1/referrals/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/referral/api/v1/referrals/")
		id, action, ok := strings.Cut(rest, "/")
		if !ok || id == "" || action != "acknowledge" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Acknowledge(w, req, id)
	})

	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
