package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/internal/repository"
	"referral-backend/internal/store"

	"go.uber.org/zap"
)

// listCacheKey and listCacheTTL mirror the read pattern of the workflow:
// the pending dashboard polls List far more often than anybody writes, and a
// 60 second staleness window is acceptable. Writes invalidate the key.
const (
	listCacheKey = "referrals:list"
	listCacheTTL = 60 * time.Second
)

// ReferralService is the referral lifecycle: submission by the sending
// facility, pending queue and acknowledgment for the receiving hospital.
type ReferralService interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.Referral, error)
	ListAll(ctx context.Context) ([]*domain.Referral, error)
	ListPending(ctx context.Context) ([]*domain.Referral, error)
	ListAcknowledged(ctx context.Context) ([]*domain.Referral, error)
	Acknowledge(ctx context.Context, id string, req AcknowledgeRequest) (*domain.Referral, error)
}

// SubmitRequest carries the submission form fields. Phone and
// referring_doctor are optional.
type SubmitRequest struct {
	PatientName       string `json:"patient_name"`
	Age               string `json:"age"`
	Gender            string `json:"gender"`
	Phone             string `json:"phone"`
	Diagnosis         string `json:"diagnosis"`
	ReferringFacility string `json:"referring_facility"`
	ReferringDoctor   string `json:"referring_doctor"`
}

// AcknowledgeRequest carries the arrival form fields. ArrivalTime defaults
// to the server clock when the caller leaves it empty.
type AcknowledgeRequest struct {
	ArrivalTime    *time.Time `json:"arrival_time,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by"`
	Notes          string     `json:"notes"`
}

type referralService struct {
	repo   repository.ReferralsRepository
	cache  store.KV // nil disables the read cache
	logger *zap.Logger
	now    func() time.Time
}

// NewReferralService creates the service. cache may be nil.
func NewReferralService(repo repository.ReferralsRepository, cache store.KV, logger *zap.Logger) ReferralService {
	return &referralService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

func (s *referralService) Submit(ctx context.Context, req SubmitRequest) (*domain.Referral, error) {
	rec, err := domain.NewReferral(domain.SubmitInput{
		PatientName:       req.PatientName,
		Age:               req.Age,
		Gender:            req.Gender,
		Phone:             req.Phone,
		Diagnosis:         req.Diagnosis,
		ReferringFacility: req.ReferringFacility,
		ReferringDoctor:   req.ReferringDoctor,
	}, s.now())
	if err != nil {
		// No write happened; the caller corrects the form and re-submits.
		return nil, err
	}

	id, err := s.repo.Append(ctx, rec)
	if err != nil {
		s.logger.Error("failed to append referral", zap.Error(err))
		return nil, err
	}
	rec.ReferralID = id
	s.invalidateListCache(ctx)

	s.logger.Info("referral submitted",
		zap.String("referral_id", id),
		zap.String("referring_facility", rec.ReferringFacility))
	return rec, nil
}

func (s *referralService) ListAll(ctx context.Context) ([]*domain.Referral, error) {
	if cached, ok := s.readListCache(ctx); ok {
		return cached, nil
	}

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.writeListCache(ctx, records)
	return records, nil
}

// ListPending returns unacknowledged records, earliest referral first, so
// the longest-waiting patient surfaces at the top of the queue.
func (s *referralService) ListPending(ctx context.Context) ([]*domain.Referral, error) {
	records, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*domain.Referral, 0, len(records))
	for _, r := range records {
		if !r.Acknowledged() {
			pending = append(pending, r)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].ReferralTime.Before(pending[j].ReferralTime)
	})
	return pending, nil
}

// ListAcknowledged returns acknowledged records, most recent arrival first.
func (s *referralService) ListAcknowledged(ctx context.Context) ([]*domain.Referral, error) {
	records, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	acked := make([]*domain.Referral, 0, len(records))
	for _, r := range records {
		if r.Acknowledged() {
			acked = append(acked, r)
		}
	}
	sort.SliceStable(acked, func(i, j int) bool {
		return acked[i].ArrivalTime.After(*acked[j].ArrivalTime)
	})
	return acked, nil
}

func (s *referralService) Acknowledge(ctx context.Context, id string, req AcknowledgeRequest) (*domain.Referral, error) {
	arrival := s.now()
	if req.ArrivalTime != nil {
		arrival = *req.ArrivalTime
	}

	err := s.repo.Acknowledge(ctx, id, repository.Acknowledgment{
		ArrivalTime:    arrival,
		AcknowledgedBy: req.AcknowledgedBy,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)

	s.logger.Info("referral acknowledged",
		zap.String("referral_id", id),
		zap.String("acknowledged_by", req.AcknowledgedBy))

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ReferralID == id {
			return r, nil
		}
	}
	// Acknowledged but gone from the list read: eventually-visible store.
	return nil, repository.ErrNotFound
}

// --- list read cache ---

func (s *referralService) readListCache(ctx context.Context) ([]*domain.Referral, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, listCacheKey)
	if err != nil {
		if err != store.ErrMiss {
			s.logger.Warn("list cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var records []*domain.Referral
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Warn("list cache decode failed", zap.Error(err))
		return nil, false
	}
	return records, true
}

func (s *referralService) writeListCache(ctx context.Context, records []*domain.Referral) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, listCacheKey, string(raw), listCacheTTL); err != nil {
		s.logger.Warn("list cache write failed", zap.Error(err))
	}
}

func (s *referralService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, listCacheKey); err != nil {
		s.logger.Warn("list cache invalidation failed", zap.Error(err))
	}
}
