package booking

import (
	"errors"
	"time"

	"github.com/shareit/service-booking/internal/common/domain"
)

// ErrStatusChanged is returned by the store when a conditional status update
// finds the booking no longer in the expected state.
var ErrStatusChanged = errors.New("booking status changed concurrently")

// Booking is the aggregate root for a time-bounded borrowing request.
type Booking struct {
	id        int64
	itemID    int64
	bookerID  int64
	start     time.Time
	end       time.Time
	status    Status
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a WAITING booking. The id is assigned by the store on save.
func NewBooking(itemID, bookerID int64, start, end time.Time, now time.Time) (*Booking, error) {
	if itemID <= 0 {
		return nil, domain.NewValidationError("item ID is required")
	}
	if bookerID <= 0 {
		return nil, domain.NewValidationError("booker ID is required")
	}
	if err := ValidatePeriod(start, end); err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Booking{
		itemID:    itemID,
		bookerID:  bookerID,
		start:     start.UTC(),
		end:       end.UTC(),
		status:    StatusWaiting,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ValidatePeriod checks that both bounds are present and start is strictly before end.
func ValidatePeriod(start, end time.Time) error {
	if start.IsZero() {
		return domain.NewValidationError("start date is required")
	}
	if end.IsZero() {
		return domain.NewValidationError("end date is required")
	}
	if !start.Before(end) {
		return domain.NewValidationError("start date must be before end date")
	}
	return nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id, itemID, bookerID int64,
	start, end time.Time,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:        id,
		itemID:    itemID,
		bookerID:  bookerID,
		start:     start.UTC(),
		end:       end.UTC(),
		status:    status,
		version:   version,
		createdAt: createdAt.UTC(),
		updatedAt: updatedAt.UTC(),
	}
}

// --- Getters ---

func (b *Booking) ID() int64            { return b.id }
func (b *Booking) ItemID() int64        { return b.itemID }
func (b *Booking) BookerID() int64      { return b.bookerID }
func (b *Booking) Start() time.Time     { return b.start }
func (b *Booking) End() time.Time       { return b.end }
func (b *Booking) Status() Status       { return b.status }
func (b *Booking) Version() int64       { return b.version }
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// AssignID is called by the store once the sequence value is known.
func (b *Booking) AssignID(id int64) { b.id = id }

// --- Behavior ---

// IsBookedBy reports whether userID is the booker.
func (b *Booking) IsBookedBy(userID int64) bool {
	return b.bookerID == userID
}

// Decide applies the owner's decision: approved moves WAITING to APPROVED,
// otherwise to REJECTED. A booking that has already been decided is rejected.
func (b *Booking) Decide(approved bool, now time.Time) error {
	target := StatusRejected
	if approved {
		target = StatusApproved
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewValidationError("booking already decided")
	}
	b.status = target
	b.version++
	b.updatedAt = now.UTC()
	return nil
}

// OverlapsWith reports whether the half-open period [start, end) intersects this booking.
func (b *Booking) OverlapsWith(start, end time.Time) bool {
	return b.start.Before(end) && b.end.After(start)
}
