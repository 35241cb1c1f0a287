package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/metrics"
)

// ItemBookingService annotates items with their last and next approved bookings.
type ItemBookingService struct {
	repo   bookingDomain.Repository
	users  userDomain.Directory
	items  itemDomain.Catalog
	now    func() time.Time
	logger *zap.Logger
}

// NewItemBookingService creates a new ItemBookingService. A nil now uses the system clock.
func NewItemBookingService(
	repo bookingDomain.Repository,
	users userDomain.Directory,
	items itemDomain.Catalog,
	now func() time.Time,
	logger *zap.Logger,
) *ItemBookingService {
	if now == nil {
		now = systemNow
	}
	return &ItemBookingService{
		repo:   repo,
		users:  users,
		items:  items,
		now:    now,
		logger: logger,
	}
}

// ListOwnerItems returns every item of ownerID in catalog order, each with
// its last and next approved booking. It issues one batch query per
// direction regardless of the number of items.
func (s *ItemBookingService) ListOwnerItems(ctx context.Context, ownerID int64) ([]ItemWithBookingsDTO, error) {
	started := time.Now()
	defer func() { metrics.ObserveOwnerItems(time.Since(started)) }()

	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, err
	}

	items, err := s.items.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []ItemWithBookingsDTO{}, nil
	}

	now := s.now()
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	lastRows, err := s.repo.FindLatestApprovedBatch(ctx, ids, now)
	if err != nil {
		return nil, err
	}
	nextRows, err := s.repo.FindNextApprovedBatch(ctx, ids, now)
	if err != nil {
		return nil, err
	}

	last := firstPerItem(lastRows)
	next := firstPerItem(nextRows)

	result := make([]ItemWithBookingsDTO, len(items))
	for i, it := range items {
		result[i] = toItemWithBookingsDTO(it, last[it.ID], next[it.ID])
	}

	s.logger.Debug("owner items annotated",
		zap.Int64("owner_id", ownerID),
		zap.Int("items", len(items)),
	)
	return result, nil
}

// GetItem returns a single item. Last and next bookings are only filled in
// for the item's owner.
func (s *ItemBookingService) GetItem(ctx context.Context, actorID, itemID int64) (*ItemWithBookingsDTO, error) {
	if _, err := s.users.FindByID(ctx, actorID); err != nil {
		return nil, err
	}

	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if !it.IsOwnedBy(actorID) {
		result := toItemWithBookingsDTO(it, nil, nil)
		return &result, nil
	}

	now := s.now()
	last, err := s.repo.FindLatestApproved(ctx, it.ID, now)
	if err != nil {
		return nil, err
	}
	next, err := s.repo.FindNextApproved(ctx, it.ID, now)
	if err != nil {
		return nil, err
	}

	result := toItemWithBookingsDTO(it, last, next)
	return &result, nil
}

// firstPerItem keeps the first booking seen for each item. Batch rows come
// ordered so that the first one per item is the wanted one.
func firstPerItem(rows []*bookingDomain.Booking) map[int64]*bookingDomain.Booking {
	byItem := make(map[int64]*bookingDomain.Booking, len(rows))
	for _, bk := range rows {
		if _, ok := byItem[bk.ItemID()]; !ok {
			byItem[bk.ItemID()] = bk
		}
	}
	return byItem
}
