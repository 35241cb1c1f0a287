package events

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/shareit/service-booking/internal/common/kafka"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
)

const (
	// TopicBookingEvents carries every booking lifecycle event.
	TopicBookingEvents = "booking.events"

	BookingCreated  = "booking.created"
	BookingApproved = "booking.approved"
	BookingRejected = "booking.rejected"

	source = "service-booking"
)

// BookingEvent is the payload of every booking lifecycle event.
type BookingEvent struct {
	BookingID  int64     `json:"booking_id"`
	ItemID     int64     `json:"item_id"`
	BookerID   int64     `json:"booker_id"`
	OwnerID    int64     `json:"owner_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventWriter is the subset of kafka.Producer used here.
type EventWriter interface {
	PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// BookingPublisher emits booking lifecycle events. Publish failures are
// logged and never fail the calling operation.
type BookingPublisher struct {
	writer EventWriter
	logger *zap.Logger
}

// NewBookingPublisher creates a publisher. A nil writer disables publishing.
func NewBookingPublisher(writer EventWriter, logger *zap.Logger) *BookingPublisher {
	return &BookingPublisher{writer: writer, logger: logger}
}

// BookingCreated publishes booking.created.
func (p *BookingPublisher) BookingCreated(ctx context.Context, bk *bookingDomain.Booking, ownerID int64) {
	p.publish(ctx, BookingCreated, bk, ownerID)
}

// BookingDecided publishes booking.approved or booking.rejected by the booking's status.
func (p *BookingPublisher) BookingDecided(ctx context.Context, bk *bookingDomain.Booking, ownerID int64) {
	eventType := BookingRejected
	if bk.Status() == bookingDomain.StatusApproved {
		eventType = BookingApproved
	}
	p.publish(ctx, eventType, bk, ownerID)
}

func (p *BookingPublisher) publish(ctx context.Context, eventType string, bk *bookingDomain.Booking, ownerID int64) {
	if p.writer == nil {
		return
	}

	evt := BookingEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		BookerID:   bk.BookerID(),
		OwnerID:    ownerID,
		Start:      bk.Start(),
		End:        bk.End(),
		Status:     bk.Status().String(),
		OccurredAt: time.Now().UTC(),
	}

	cloudEvent, err := kafka.NewCloudEvent(source, eventType, evt)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	key := strconv.FormatInt(bk.ID(), 10)
	if err := p.writer.PublishEvent(ctx, TopicBookingEvents, key, cloudEvent); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Int64("booking_id", bk.ID()),
			zap.Error(err),
		)
	}
}
