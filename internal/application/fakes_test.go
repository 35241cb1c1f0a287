package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shareit/service-booking/internal/common/domain"
	"github.com/shareit/service-booking/internal/config"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
)

// memStore is an in-memory booking store. Stored bookings are copied on
// every read and write so callers never share state with the store.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*bookingDomain.Booking
	items    map[int64]*itemDomain.Item

	latestBatchCalls int
	nextBatchCalls   int
	singleCalls      int
}

func newMemStore(items *memCatalog) *memStore {
	return &memStore{bookings: map[int64]*bookingDomain.Booking{}, items: items.items}
}

func clone(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.Reconstruct(b.ID(), b.ItemID(), b.BookerID(), b.Start(), b.End(),
		b.Status(), b.Version(), b.CreatedAt(), b.UpdatedAt())
}

func (s *memStore) Save(_ context.Context, bk *bookingDomain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	bk.AssignID(s.nextID)
	s.bookings[bk.ID()] = clone(bk)
	return nil
}

// put stores a booking as is, for seeding.
func (s *memStore) put(bk *bookingDomain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bk.ID() > s.nextID {
		s.nextID = bk.ID()
	}
	s.bookings[bk.ID()] = clone(bk)
}

func (s *memStore) FindByID(_ context.Context, id int64) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bk, ok := s.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id)
	}
	return clone(bk), nil
}

func (s *memStore) list(match func(*bookingDomain.Booking) bool, q bookingDomain.Query) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, bk := range s.bookings {
		if match(bk) && q.Filter.Matches(bk, q.Now) {
			out = append(out, clone(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start().Equal(out[j].Start()) {
			return out[i].Start().After(out[j].Start())
		}
		return out[i].ID() > out[j].ID()
	})
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out
}

func (s *memStore) ListByBooker(_ context.Context, bookerID int64, q bookingDomain.Query) ([]*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(b *bookingDomain.Booking) bool { return b.BookerID() == bookerID }, q), nil
}

func (s *memStore) ListByItemOwner(_ context.Context, ownerID int64, q bookingDomain.Query) ([]*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(b *bookingDomain.Booking) bool {
		it, ok := s.items[b.ItemID()]
		return ok && it.OwnerID == ownerID
	}, q), nil
}

func (s *memStore) approvedFor(itemIDs []int64, keep func(*bookingDomain.Booking) bool, asc bool) []*bookingDomain.Booking {
	wanted := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	var out []*bookingDomain.Booking
	for _, bk := range s.bookings {
		if wanted[bk.ItemID()] && bk.Status() == bookingDomain.StatusApproved && keep(bk) {
			out = append(out, clone(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID() != out[j].ItemID() {
			return out[i].ItemID() < out[j].ItemID()
		}
		if asc {
			return out[i].Start().Before(out[j].Start())
		}
		return out[i].Start().After(out[j].Start())
	})
	return out
}

func (s *memStore) latest(ids []int64, now time.Time) []*bookingDomain.Booking {
	return s.approvedFor(ids, func(b *bookingDomain.Booking) bool { return !b.Start().After(now) }, false)
}

func (s *memStore) next(ids []int64, now time.Time) []*bookingDomain.Booking {
	return s.approvedFor(ids, func(b *bookingDomain.Booking) bool { return b.Start().After(now) }, true)
}

func (s *memStore) FindLatestApproved(_ context.Context, itemID int64, now time.Time) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.singleCalls++
	if rows := s.latest([]int64{itemID}, now); len(rows) > 0 {
		return rows[0], nil
	}
	return nil, nil
}

func (s *memStore) FindNextApproved(_ context.Context, itemID int64, now time.Time) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.singleCalls++
	if rows := s.next([]int64{itemID}, now); len(rows) > 0 {
		return rows[0], nil
	}
	return nil, nil
}

func (s *memStore) FindLatestApprovedBatch(_ context.Context, itemIDs []int64, now time.Time) ([]*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestBatchCalls++
	return s.latest(itemIDs, now), nil
}

func (s *memStore) FindNextApprovedBatch(_ context.Context, itemIDs []int64, now time.Time) ([]*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBatchCalls++
	return s.next(itemIDs, now), nil
}

func (s *memStore) HasCompletedApproved(_ context.Context, userID, itemID int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bk := range s.bookings {
		if bk.BookerID() == userID && bk.ItemID() == itemID &&
			bk.Status() == bookingDomain.StatusApproved && bk.End().Before(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) HasOverlapping(_ context.Context, itemID int64, start, end time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bk := range s.bookings {
		if bk.ItemID() != itemID {
			continue
		}
		if bk.Status() != bookingDomain.StatusWaiting && bk.Status() != bookingDomain.StatusApproved {
			continue
		}
		if bk.OverlapsWith(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateStatus(_ context.Context, bk *bookingDomain.Booking, from bookingDomain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.bookings[bk.ID()]
	if !ok || stored.Status() != from || stored.Version() != bk.Version()-1 {
		return bookingDomain.ErrStatusChanged
	}
	s.bookings[bk.ID()] = clone(bk)
	return nil
}

func (s *memStore) CountByStatus(_ context.Context) (map[bookingDomain.Status]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[bookingDomain.Status]int64{}
	for _, bk := range s.bookings {
		counts[bk.Status()]++
	}
	return counts, nil
}

type memCatalog struct {
	items map[int64]*itemDomain.Item
}

func newMemCatalog(items ...*itemDomain.Item) *memCatalog {
	c := &memCatalog{items: map[int64]*itemDomain.Item{}}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

func (c *memCatalog) FindByID(_ context.Context, id int64) (*itemDomain.Item, error) {
	it, ok := c.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("Item", id)
	}
	return it, nil
}

func (c *memCatalog) FindByIDs(_ context.Context, ids []int64) ([]*itemDomain.Item, error) {
	var out []*itemDomain.Item
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memCatalog) FindByOwnerID(_ context.Context, ownerID int64) ([]*itemDomain.Item, error) {
	var out []*itemDomain.Item
	for _, it := range c.items {
		if it.OwnerID == ownerID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memDirectory map[int64]*userDomain.User

func (d memDirectory) FindByID(_ context.Context, id int64) (*userDomain.User, error) {
	u, ok := d[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id)
	}
	return u, nil
}

type recordedEvent struct {
	kind      string
	bookingID int64
	status    bookingDomain.Status
	ownerID   int64
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) BookingCreated(_ context.Context, bk *bookingDomain.Booking, ownerID int64) {
	r.record("created", bk, ownerID)
}

func (r *recordingEvents) BookingDecided(_ context.Context, bk *bookingDomain.Booking, ownerID int64) {
	r.record("decided", bk, ownerID)
}

func (r *recordingEvents) record(kind string, bk *bookingDomain.Booking, ownerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: kind, bookingID: bk.ID(), status: bk.Status(), ownerID: ownerID})
}

func (r *recordingEvents) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

// Fixture users and items: owner A (1) owns items 10 and 11, booker B (2),
// stranger C (3). Item 12 belongs to C and is unavailable.
const (
	ownerA   int64 = 1
	bookerB  int64 = 2
	userC    int64 = 3
	itemX    int64 = 10
	itemY    int64 = 11
	itemGone int64 = 12
)

var t0 = time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memStore
	catalog *memCatalog
	users   memDirectory
	events  *recordingEvents
	clock   *clock
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newFixture() *fixture {
	catalog := newMemCatalog(
		&itemDomain.Item{ID: itemX, OwnerID: ownerA, Name: "drill", Description: "cordless drill", Available: true},
		&itemDomain.Item{ID: itemY, OwnerID: ownerA, Name: "ladder", Available: true},
		&itemDomain.Item{ID: itemGone, OwnerID: userC, Name: "tent", Available: false},
	)
	return &fixture{
		store:   newMemStore(catalog),
		catalog: catalog,
		users: memDirectory{
			ownerA:  {ID: ownerA, Name: "A"},
			bookerB: {ID: bookerB, Name: "B"},
			userC:   {ID: userC, Name: "C"},
		},
		events: &recordingEvents{},
		clock:  &clock{now: t0.Add(-24 * time.Hour)},
	}
}

func (f *fixture) bookingService(policy config.BookingPolicy) *BookingService {
	return NewBookingService(f.store, f.users, f.catalog, f.events, policy, f.clock.Now, zap.NewNop())
}

func (f *fixture) itemService() *ItemBookingService {
	return NewItemBookingService(f.store, f.users, f.catalog, f.clock.Now, zap.NewNop())
}

func (f *fixture) commentGate() *CommentGate {
	return NewCommentGate(f.store, f.users, f.catalog, f.clock.Now)
}

func (f *fixture) seed(id, itemID, bookerID int64, start, end time.Time, status bookingDomain.Status) {
	version := int64(1)
	if status != bookingDomain.StatusWaiting {
		version = 2
	}
	f.store.put(bookingDomain.Reconstruct(id, itemID, bookerID, start, end, status, version, start, start))
}

func ptr(t time.Time) *time.Time { return &t }
