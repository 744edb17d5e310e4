package discover

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/storage"
)

// DefaultDailyLimit is the number of discoveries an owner may run per UTC day.
const DefaultDailyLimit = 10

// AdmissionCheck decides whether owner may run a discovery now.
// A non-nil error rejects the request before any search is made.
type AdmissionCheck interface {
	Admit(ctx context.Context, owner core.Owner) error
}

// AllowAll admits every request.
type AllowAll struct{}

func (AllowAll) Admit(context.Context, core.Owner) error { return nil }

// DailyQuota caps discoveries per owner per UTC day.
type DailyQuota struct {
	quotas storage.QuotaRepository
	limit  int
	now    func() time.Time
}

var _ AdmissionCheck = (*DailyQuota)(nil)

// NewDailyQuota creates a quota admitting limit discoveries per owner per day.
func NewDailyQuota(quotas storage.QuotaRepository, limit int) (*DailyQuota, error) {
	if quotas == nil {
		return nil, ErrQuotaRequired
	}
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	return &DailyQuota{quotas: quotas, limit: limit, now: time.Now}, nil
}

// Admit counts the request against the owner's quota. Requests over the
// limit return ErrQuotaExceeded and are not counted.
func (q *DailyQuota) Admit(ctx context.Context, owner core.Owner) error {
	key := quotaKey(owner)
	now := q.now()

	used, err := q.quotas.Count(ctx, key, now)
	if err != nil {
		return fmt.Errorf("read quota: %w", err)
	}
	if used >= q.limit {
		return fmt.Errorf("%w: %d of %d used", ErrQuotaExceeded, used, q.limit)
	}

	used, err = q.quotas.Increment(ctx, key, now, 1)
	if err != nil {
		return fmt.Errorf("update quota: %w", err)
	}
	if used > q.limit {
		// Lost a race with a concurrent request; give the slot back.
		if _, err := q.quotas.Increment(ctx, key, now, -1); err != nil {
			return fmt.Errorf("update quota: %w", err)
		}
		return fmt.Errorf("%w: %d of %d used", ErrQuotaExceeded, q.limit, q.limit)
	}
	return nil
}

// Remaining returns how many discoveries owner has left today.
func (q *DailyQuota) Remaining(ctx context.Context, owner core.Owner) (int, error) {
	used, err := q.quotas.Count(ctx, quotaKey(owner), q.now())
	if err != nil {
		return 0, err
	}
	return max(q.limit-used, 0), nil
}

func quotaKey(owner core.Owner) string {
	return "discover:" + owner.UserID
}
