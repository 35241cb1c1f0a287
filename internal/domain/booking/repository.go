package booking

import (
	"context"
	"time"
)

// Repository defines the persistence contract for bookings. Listings are
// ordered by start descending unless a method says otherwise.
type Repository interface {
	// Save persists a new booking and assigns its id.
	Save(ctx context.Context, booking *Booking) error

	// FindByID retrieves a booking by its identifier.
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// ListByBooker returns the booker's bookings matching q.
	ListByBooker(ctx context.Context, bookerID int64, q Query) ([]*Booking, error)

	// ListByItemOwner returns bookings of items owned by ownerID matching q.
	ListByItemOwner(ctx context.Context, ownerID int64, q Query) ([]*Booking, error)

	// FindLatestApproved returns the APPROVED booking with the greatest start <= now, or nil.
	FindLatestApproved(ctx context.Context, itemID int64, now time.Time) (*Booking, error)

	// FindNextApproved returns the APPROVED booking with the least start > now, or nil.
	FindNextApproved(ctx context.Context, itemID int64, now time.Time) (*Booking, error)

	// FindLatestApprovedBatch applies FindLatestApproved's predicate to every
	// item in one query, ordered by item then start descending.
	FindLatestApprovedBatch(ctx context.Context, itemIDs []int64, now time.Time) ([]*Booking, error)

	// FindNextApprovedBatch applies FindNextApproved's predicate to every
	// item in one query, ordered by item then start ascending.
	FindNextApprovedBatch(ctx context.Context, itemIDs []int64, now time.Time) ([]*Booking, error)

	// HasCompletedApproved reports whether userID holds an APPROVED booking
	// of itemID that ended before now.
	HasCompletedApproved(ctx context.Context, userID, itemID int64, now time.Time) (bool, error)

	// HasOverlapping reports whether a WAITING or APPROVED booking of itemID
	// intersects [start, end).
	HasOverlapping(ctx context.Context, itemID int64, start, end time.Time) (bool, error)

	// UpdateStatus persists a status change only if the stored booking is
	// still in status from at the previous version. Returns ErrStatusChanged
	// when another writer got there first.
	UpdateStatus(ctx context.Context, booking *Booking, from Status) error

	// CountByStatus returns booking counts grouped by status.
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
