package application

import (
	"context"
	"time"

	"github.com/shareit/service-booking/internal/common/domain"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
)

// CommentGate decides whether a user may leave a comment on an item.
type CommentGate struct {
	repo  bookingDomain.Repository
	users userDomain.Directory
	items itemDomain.Catalog
	now   func() time.Time
}

// NewCommentGate creates a new CommentGate. A nil now uses the system clock.
func NewCommentGate(
	repo bookingDomain.Repository,
	users userDomain.Directory,
	items itemDomain.Catalog,
	now func() time.Time,
) *CommentGate {
	if now == nil {
		now = systemNow
	}
	return &CommentGate{repo: repo, users: users, items: items, now: now}
}

// CanComment reports whether userID has an APPROVED booking of itemID that
// ended strictly before now.
func (g *CommentGate) CanComment(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	return g.repo.HasCompletedApproved(ctx, userID, itemID, now)
}

// Eligibility resolves the user and item, then evaluates CanComment at the
// current time.
func (g *CommentGate) Eligibility(ctx context.Context, userID, itemID int64) (*EligibilityDTO, error) {
	if _, err := g.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := g.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	ok, err := g.CanComment(ctx, userID, itemID, g.now())
	if err != nil {
		return nil, err
	}
	return &EligibilityDTO{UserID: userID, ItemID: itemID, Eligible: ok}, nil
}

// RequireEligible fails with a validation error unless the user may comment.
func (g *CommentGate) RequireEligible(ctx context.Context, userID, itemID int64) error {
	ok, err := g.CanComment(ctx, userID, itemID, g.now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewValidationError("user must complete booking before commenting")
	}
	return nil
}
