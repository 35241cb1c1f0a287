package booking

import (
	"fmt"
	"time"

	"github.com/shareit/service-booking/internal/common/domain"
)

// Filter names a predicate applied to a booking listing.
type Filter string

const (
	FilterAll      Filter = "ALL"
	FilterCurrent  Filter = "CURRENT"
	FilterPast     Filter = "PAST"
	FilterFuture   Filter = "FUTURE"
	FilterWaiting  Filter = Filter(StatusWaiting)
	FilterApproved Filter = Filter(StatusApproved)
	FilterRejected Filter = Filter(StatusRejected)
	FilterCanceled Filter = Filter(StatusCanceled)
)

var knownFilters = map[Filter]struct{}{
	FilterAll: {}, FilterCurrent: {}, FilterPast: {}, FilterFuture: {},
	FilterWaiting: {}, FilterApproved: {}, FilterRejected: {}, FilterCanceled: {},
}

// ParseFilter accepts exactly the literal filter names. An empty string means ALL.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(s)
	if _, ok := knownFilters[f]; !ok {
		return "", domain.NewValidationError(fmt.Sprintf("Unknown state: %s", s))
	}
	return f, nil
}

// Status returns the booking status this filter selects on, if it is a status filter.
func (f Filter) Status() (Status, bool) {
	s := Status(f)
	if s.IsValid() {
		return s, true
	}
	return "", false
}

// Matches evaluates the filter against a booking at the instant now. The
// store implements the same predicates in SQL; this is the reference form.
func (f Filter) Matches(b *Booking, now time.Time) bool {
	switch f {
	case FilterAll:
		return true
	case FilterCurrent:
		return !b.Start().After(now) && !b.End().Before(now)
	case FilterPast:
		return b.End().Before(now)
	case FilterFuture:
		return b.Start().After(now)
	}
	if s, ok := f.Status(); ok {
		return b.Status() == s
	}
	return false
}

// String returns the filter literal.
func (f Filter) String() string {
	return string(f)
}

// Query describes a listing request. Now is captured once per request.
// A zero Limit means no limit.
type Query struct {
	Filter Filter
	Now    time.Time
	Offset int
	Limit  int
}
