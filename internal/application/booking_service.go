package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shareit/service-booking/internal/common/domain"
	"github.com/shareit/service-booking/internal/config"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/metrics"
)

// BookingEvents receives booking lifecycle notifications for downstream
// consumers. Implementations must not fail the caller.
type BookingEvents interface {
	BookingCreated(ctx context.Context, bk *bookingDomain.Booking, ownerID int64)
	BookingDecided(ctx context.Context, bk *bookingDomain.Booking, ownerID int64)
}

// BookingService is the application service orchestrating booking use cases.
// It holds no booking state; every call reads the store of record.
type BookingService struct {
	repo   bookingDomain.Repository
	users  userDomain.Directory
	items  itemDomain.Catalog
	events BookingEvents
	policy config.BookingPolicy
	now    func() time.Time
	logger *zap.Logger
}

// NewBookingService creates a new BookingService. A nil now uses the system clock.
func NewBookingService(
	repo bookingDomain.Repository,
	users userDomain.Directory,
	items itemDomain.Catalog,
	events BookingEvents,
	policy config.BookingPolicy,
	now func() time.Time,
	logger *zap.Logger,
) *BookingService {
	if now == nil {
		now = systemNow
	}
	return &BookingService{
		repo:   repo,
		users:  users,
		items:  items,
		events: events,
		policy: policy,
		now:    now,
		logger: logger,
	}
}

// CreateBooking creates a WAITING booking of an item for the requester.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID int64, req CreateBookingRequest) (*BookingDTO, error) {
	now := s.now()

	if _, err := s.users.FindByID(ctx, requesterID); err != nil {
		return nil, err
	}

	var start, end time.Time
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}
	if err := bookingDomain.ValidatePeriod(start, end); err != nil {
		return nil, err
	}

	item, err := s.items.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, domain.NewValidationError("item not available")
	}

	if item.IsOwnedBy(requesterID) && !s.policy.AllowOwnerBooking {
		return nil, domain.NewForbiddenError("owner cannot book their own item")
	}

	if s.policy.RejectOverlapping {
		overlapping, err := s.repo.HasOverlapping(ctx, item.ID, start, end)
		if err != nil {
			return nil, err
		}
		if overlapping {
			return nil, domain.NewValidationError("item already booked for this period")
		}
	}

	bk, err := bookingDomain.NewBooking(item.ID, requesterID, start, end, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.events.BookingCreated(ctx, bk, item.OwnerID)
	s.logger.Info("booking created",
		zap.Int64("booking_id", bk.ID()),
		zap.Int64("item_id", item.ID),
		zap.Int64("booker_id", requesterID),
	)

	result := toBookingDTO(bk, item)
	return &result, nil
}

// ApproveBooking records the item owner's decision on a WAITING booking.
// Exactly one decision can succeed; later or concurrent ones get a
// validation error.
func (s *BookingService) ApproveBooking(ctx context.Context, actorID, bookingID int64, approved bool) (*BookingDTO, error) {
	now := s.now()

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, actorID); err != nil {
		return nil, err
	}

	item, err := s.items.FindByID(ctx, bk.ItemID())
	if err != nil {
		return nil, err
	}
	if !item.IsOwnedBy(actorID) {
		return nil, domain.NewForbiddenError("only the item owner can approve or reject a booking")
	}

	from := bk.Status()
	if err := bk.Decide(approved, now); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, bk, from); err != nil {
		if errors.Is(err, bookingDomain.ErrStatusChanged) {
			metrics.IncApproveConflict()
			s.logger.Warn("booking decided concurrently",
				zap.Int64("booking_id", bookingID),
				zap.Int64("actor_id", actorID),
			)
			return nil, domain.NewValidationError("booking already decided")
		}
		return nil, err
	}

	metrics.IncBookingDecision(bk.Status().String())
	s.events.BookingDecided(ctx, bk, item.OwnerID)
	s.logger.Info("booking decided",
		zap.Int64("booking_id", bk.ID()),
		zap.String("status", bk.Status().String()),
		zap.Int64("owner_id", actorID),
	)

	result := toBookingDTO(bk, item)
	return &result, nil
}

// GetBooking returns a booking visible to its booker or the item owner.
func (s *BookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*BookingDTO, error) {
	if _, err := s.users.FindByID(ctx, actorID); err != nil {
		return nil, err
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	item, err := s.items.FindByID(ctx, bk.ItemID())
	if err != nil {
		return nil, err
	}
	if !bk.IsBookedBy(actorID) && !item.IsOwnedBy(actorID) {
		return nil, domain.NewForbiddenError("only the booker or the item owner can view a booking")
	}

	result := toBookingDTO(bk, item)
	return &result, nil
}

// ListBookerBookings returns the actor's own bookings matching state.
func (s *BookingService) ListBookerBookings(ctx context.Context, actorID int64, state string, offset, limit int) ([]BookingDTO, error) {
	q, err := s.buildQuery(ctx, actorID, state, offset, limit)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListByBooker(ctx, actorID, q)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return []BookingDTO{}, nil
	}

	ids := uniqueItemIDs(bookings)
	items, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings, indexItems(items)), nil
}

// ListOwnerBookings returns bookings of the actor's items matching state.
func (s *BookingService) ListOwnerBookings(ctx context.Context, actorID int64, state string, offset, limit int) ([]BookingDTO, error) {
	q, err := s.buildQuery(ctx, actorID, state, offset, limit)
	if err != nil {
		return nil, err
	}

	items, err := s.items.FindByOwnerID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []BookingDTO{}, nil
	}

	bookings, err := s.repo.ListByItemOwner(ctx, actorID, q)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings, indexItems(items)), nil
}

// BookingStats returns booking counts per status.
func (s *BookingService) BookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &BookingStatsDTO{ByStatus: make(map[string]int64, len(counts))}
	for status, c := range counts {
		stats.ByStatus[status.String()] = c
		stats.TotalBookings += c
	}
	return stats, nil
}

func (s *BookingService) buildQuery(ctx context.Context, actorID int64, state string, offset, limit int) (bookingDomain.Query, error) {
	if _, err := s.users.FindByID(ctx, actorID); err != nil {
		return bookingDomain.Query{}, err
	}

	filter, err := bookingDomain.ParseFilter(state)
	if err != nil {
		return bookingDomain.Query{}, err
	}
	if offset < 0 || limit < 0 {
		return bookingDomain.Query{}, domain.NewValidationError("from and size must not be negative")
	}

	return bookingDomain.Query{
		Filter: filter,
		Now:    s.now(),
		Offset: offset,
		Limit:  limit,
	}, nil
}

func uniqueItemIDs(bookings []*bookingDomain.Booking) []int64 {
	seen := make(map[int64]struct{}, len(bookings))
	ids := make([]int64, 0, len(bookings))
	for _, bk := range bookings {
		if _, ok := seen[bk.ItemID()]; ok {
			continue
		}
		seen[bk.ItemID()] = struct{}{}
		ids = append(ids, bk.ItemID())
	}
	return ids
}

func indexItems(items []*itemDomain.Item) map[int64]*itemDomain.Item {
	byID := make(map[int64]*itemDomain.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID
}

func toBookingDTOs(bookings []*bookingDomain.Booking, items map[int64]*itemDomain.Item) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, items[bk.ItemID()])
	}
	return dtos
}
