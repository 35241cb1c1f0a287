package application

import (
	"time"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ItemID int64      `json:"itemId" binding:"required"`
	Start  *time.Time `json:"start"`
	End    *time.Time `json:"end"`
}

// BookerDTO identifies the booker in a booking response.
type BookerDTO struct {
	ID int64 `json:"id"`
}

// BookingItemDTO identifies the booked item in a booking response.
type BookingItemDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID     int64          `json:"id"`
	Start  time.Time      `json:"start"`
	End    time.Time      `json:"end"`
	Status string         `json:"status"`
	Booker BookerDTO      `json:"booker"`
	Item   BookingItemDTO `json:"item"`
}

// ShortBookingDTO is the compact booking shown on an item.
type ShortBookingDTO struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// ItemWithBookingsDTO is an item annotated with its last and next approved bookings.
type ItemWithBookingsDTO struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Available   bool             `json:"available"`
	RequestID   *int64           `json:"requestId,omitempty"`
	LastBooking *ShortBookingDTO `json:"lastBooking"`
	NextBooking *ShortBookingDTO `json:"nextBooking"`
}

// BookingStatsDTO holds booking counts per status.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"totalBookings"`
	ByStatus      map[string]int64 `json:"byStatus"`
}

// EligibilityDTO answers whether a user may comment on an item.
type EligibilityDTO struct {
	UserID   int64 `json:"userId"`
	ItemID   int64 `json:"itemId"`
	Eligible bool  `json:"eligible"`
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking, item *itemDomain.Item) BookingDTO {
	dto := BookingDTO{
		ID:     bk.ID(),
		Start:  bk.Start(),
		End:    bk.End(),
		Status: bk.Status().String(),
		Booker: BookerDTO{ID: bk.BookerID()},
		Item:   BookingItemDTO{ID: bk.ItemID()},
	}
	if item != nil {
		dto.Item.Name = item.Name
	}
	return dto
}

func toShortBookingDTO(bk *bookingDomain.Booking) *ShortBookingDTO {
	if bk == nil {
		return nil
	}
	return &ShortBookingDTO{
		ID:       bk.ID(),
		BookerID: bk.BookerID(),
		Start:    bk.Start(),
		End:      bk.End(),
	}
}

func toItemWithBookingsDTO(it *itemDomain.Item, last, next *bookingDomain.Booking) ItemWithBookingsDTO {
	return ItemWithBookingsDTO{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
		RequestID:   it.RequestID,
		LastBooking: toShortBookingDTO(last),
		NextBooking: toShortBookingDTO(next),
	}
}

func systemNow() time.Time {
	return time.Now().UTC()
}
