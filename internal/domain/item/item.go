package item

import (
	"context"
)

// Item is the read-only view of a catalog entry owned by the item service.
type Item struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	Available   bool
	RequestID   *int64
}

// IsOwnedBy reports whether userID owns the item.
func (i *Item) IsOwnedBy(userID int64) bool {
	return i.OwnerID == userID
}

// Catalog resolves items. FindByID returns a NotFound domain error when the
// item does not exist. FindByIDs silently skips unknown ids. Both list
// methods return items ordered by id.
type Catalog interface {
	FindByID(ctx context.Context, id int64) (*Item, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*Item, error)
	FindByOwnerID(ctx context.Context, ownerID int64) ([]*Item, error)
}
