package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"referral-backend/internal/domain"
)

// MemoryReferralsRepo backs the service when no external store is
// configured (dev, unit tests). Append order is preserved so List behaves
// like a sheet scan.
type MemoryReferralsRepo struct {
	mu      sync.RWMutex
	order   []string
	records map[string]domain.Referral // id -> record (stored by value)
}

func NewMemoryReferralsRepo() *MemoryReferralsRepo {
	return &MemoryReferralsRepo{
		records: map[string]domain.Referral{},
	}
}

var _ ReferralsRepository = (*MemoryReferralsRepo)(nil)

func (r *MemoryReferralsRepo) Append(_ context.Context, rec *domain.Referral) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := rec.ReferralID
	if id == "" {
		id = uuid.NewString()
	}

	stored := *rec
	stored.ReferralID = id
	if rec.ArrivalTime != nil {
		t := *rec.ArrivalTime
		stored.ArrivalTime = &t
	}
	r.records[id] = stored
	r.order = append(r.order, id)
	return id, nil
}

func (r *MemoryReferralsRepo) List(_ context.Context) ([]*domain.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Referral, 0, len(r.order))
	for _, id := range r.order {
		rec := r.records[id]
		if rec.ArrivalTime != nil {
			t := *rec.ArrivalTime
			rec.ArrivalTime = &t
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (r *MemoryReferralsRepo) Acknowledge(_ context.Context, id string, ack Acknowledgment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.ArrivalTime != nil {
		return ErrAlreadyAcknowledged
	}

	t := ack.ArrivalTime
	rec.ArrivalTime = &t
	rec.AcknowledgedBy = ack.AcknowledgedBy
	rec.Notes = ack.Notes
	r.records[id] = rec
	return nil
}
