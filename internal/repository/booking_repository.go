package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shareit/service-booking/internal/common/domain"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ItemID    int64     `gorm:"not null;index:idx_bookings_item_status_start,priority:1"`
	BookerID  int64     `gorm:"not null;index:idx_bookings_booker_start,priority:1"`
	StartAt   time.Time `gorm:"not null;index:idx_bookings_item_status_start,priority:3;index:idx_bookings_booker_start,priority:2"`
	EndAt     time.Time `gorm:"not null"`
	Status    string    `gorm:"not null;size:20;index:idx_bookings_item_status_start,priority:2"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of booking.Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// Save persists a new booking and assigns its id from the table sequence.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.NewStorageError("save booking", err)
	}
	bk.AssignID(model.ID)
	return nil
}

// FindByID retrieves a booking by its identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id)
		}
		return nil, domain.NewStorageError("find booking by id", err)
	}
	return toDomainBooking(&model)
}

// ListByBooker returns the booker's bookings matching q, newest start first.
func (r *GormBookingRepository) ListByBooker(ctx context.Context, bookerID int64, q bookingDomain.Query) ([]*bookingDomain.Booking, error) {
	tx := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("bookings.booker_id = ?", bookerID).
		Scopes(filterScope(q), pageScope(q)).
		Order("bookings.start_at DESC").
		Order("bookings.id DESC")

	return r.findAll(tx, "list bookings by booker")
}

// ListByItemOwner returns bookings of the owner's items matching q, newest start first.
func (r *GormBookingRepository) ListByItemOwner(ctx context.Context, ownerID int64, q bookingDomain.Query) ([]*bookingDomain.Booking, error) {
	tx := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Joins("JOIN items ON items.id = bookings.item_id").
		Where("items.owner_id = ?", ownerID).
		Scopes(filterScope(q), pageScope(q)).
		Order("bookings.start_at DESC").
		Order("bookings.id DESC")

	return r.findAll(tx, "list bookings by item owner")
}

// FindLatestApproved returns the most recent approved booking that has started by now.
func (r *GormBookingRepository) FindLatestApproved(ctx context.Context, itemID int64, now time.Time) (*bookingDomain.Booking, error) {
	tx := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ? AND start_at <= ?", itemID, string(bookingDomain.StatusApproved), now.UTC()).
		Order("start_at DESC").
		Order("id DESC")

	return r.findFirst(tx, "find latest approved booking")
}

// FindNextApproved returns the earliest approved booking starting after now.
func (r *GormBookingRepository) FindNextApproved(ctx context.Context, itemID int64, now time.Time) (*bookingDomain.Booking, error) {
	tx := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ? AND start_at > ?", itemID, string(bookingDomain.StatusApproved), now.UTC()).
		Order("start_at ASC").
		Order("id ASC")

	return r.findFirst(tx, "find next approved booking")
}

// FindLatestApprovedBatch loads last-booking candidates for all items in one query.
func (r *GormBookingRepository) FindLatestApprovedBatch(ctx context.Context, itemIDs []int64, now time.Time) ([]*bookingDomain.Booking, error) {
	if len(itemIDs) == 0 {
		return []*bookingDomain.Booking{}, nil
	}
	tx := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("item_id IN ? AND status = ? AND start_at <= ?", itemIDs, string(bookingDomain.StatusApproved), now.UTC()).
		Order("item_id ASC").
		Order("start_at DESC").
		Order("id DESC")

	return r.findAll(tx, "find latest approved bookings for items")
}

// FindNextApprovedBatch loads next-booking candidates for all items in one query.
func (r *GormBookingRepository) FindNextApprovedBatch(ctx context.Context, itemIDs []int64, now time.Time) ([]*bookingDomain.Booking, error) {
	if len(itemIDs) == 0 {
		return []*bookingDomain.Booking{}, nil
	}
	tx := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("item_id IN ? AND status = ? AND start_at > ?", itemIDs, string(bookingDomain.StatusApproved), now.UTC()).
		Order("item_id ASC").
		Order("start_at ASC").
		Order("id ASC")

	return r.findAll(tx, "find next approved bookings for items")
}

// HasCompletedApproved reports whether the user finished an approved booking of the item.
func (r *GormBookingRepository) HasCompletedApproved(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("booker_id = ? AND item_id = ? AND status = ? AND end_at < ?",
			userID, itemID, string(bookingDomain.StatusApproved), now.UTC()).
		Count(&count).Error; err != nil {
		return false, domain.NewStorageError("check completed booking", err)
	}
	return count > 0, nil
}

// HasOverlapping reports whether a live booking of the item intersects [start, end).
func (r *GormBookingRepository) HasOverlapping(ctx context.Context, itemID int64, start, end time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("item_id = ? AND status IN ? AND start_at < ? AND end_at > ?",
			itemID,
			[]string{string(bookingDomain.StatusWaiting), string(bookingDomain.StatusApproved)},
			end.UTC(), start.UTC()).
		Count(&count).Error; err != nil {
		return false, domain.NewStorageError("check overlapping bookings", err)
	}
	return count > 0, nil
}

// UpdateStatus writes the new status only if the row is still at the
// previous version and status. The caller has already applied Decide, which
// bumped the in-memory version.
func (r *GormBookingRepository) UpdateStatus(ctx context.Context, bk *bookingDomain.Booking, from bookingDomain.Status) error {
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ? AND version = ?", bk.ID(), string(from), expectedVersion).
		Updates(map[string]interface{}{
			"status":     string(bk.Status()),
			"version":    bk.Version(),
			"updated_at": bk.UpdatedAt(),
		})

	if result.Error != nil {
		return domain.NewStorageError("update booking status", result.Error)
	}
	if result.RowsAffected == 0 {
		return bookingDomain.ErrStatusChanged
	}
	return nil
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[bookingDomain.Status]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, domain.NewStorageError("count bookings by status", err)
	}

	counts := make(map[bookingDomain.Status]int64, len(results))
	for _, sc := range results {
		counts[bookingDomain.Status(sc.Status)] = sc.Count
	}
	return counts, nil
}

// --- Query helpers ---

// filterScope translates a listing filter into a WHERE clause on bookings.
func filterScope(q bookingDomain.Query) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		now := q.Now.UTC()
		switch q.Filter {
		case bookingDomain.FilterCurrent:
			return db.Where("bookings.start_at <= ? AND bookings.end_at >= ?", now, now)
		case bookingDomain.FilterPast:
			return db.Where("bookings.end_at < ?", now)
		case bookingDomain.FilterFuture:
			return db.Where("bookings.start_at > ?", now)
		}
		if status, ok := q.Filter.Status(); ok {
			return db.Where("bookings.status = ?", string(status))
		}
		return db
	}
}

func pageScope(q bookingDomain.Query) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.Offset > 0 {
			db = db.Offset(q.Offset)
		}
		if q.Limit > 0 {
			db = db.Limit(q.Limit)
		}
		return db
	}
}

func (r *GormBookingRepository) findAll(tx *gorm.DB, op string) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := tx.Select("bookings.*").Find(&models).Error; err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

func (r *GormBookingRepository) findFirst(tx *gorm.DB, op string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := tx.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domain.NewStorageError(op, err)
	}
	return toDomainBooking(&model)
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:        bk.ID(),
		ItemID:    bk.ItemID(),
		BookerID:  bk.BookerID(),
		StartAt:   bk.Start(),
		EndAt:     bk.End(),
		Status:    string(bk.Status()),
		Version:   bk.Version(),
		CreatedAt: bk.CreatedAt(),
		UpdatedAt: bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", m.ID, err)
	}

	return bookingDomain.Reconstruct(
		m.ID,
		m.ItemID,
		m.BookerID,
		m.StartAt,
		m.EndAt,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
