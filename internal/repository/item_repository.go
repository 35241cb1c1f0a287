package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shareit/service-booking/internal/common/domain"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
)

// ItemModel is the GORM model for the items table. The table belongs to the
// item service; this service only reads it.
type ItemModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	OwnerID     int64     `gorm:"not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:varchar(1000);not null"`
	Available   bool      `gorm:"not null"`
	RequestID   *int64    `gorm:""`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (ItemModel) TableName() string { return "items" }

// GormItemCatalog implements item.Catalog using GORM.
type GormItemCatalog struct {
	db *gorm.DB
}

func NewGormItemCatalog(db *gorm.DB) *GormItemCatalog {
	return &GormItemCatalog{db: db}
}

func (r *GormItemCatalog) FindByID(ctx context.Context, id int64) (*itemDomain.Item, error) {
	var model ItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Item", id)
		}
		return nil, domain.NewStorageError("find item by id", err)
	}
	return toItemDomain(&model), nil
}

func (r *GormItemCatalog) FindByIDs(ctx context.Context, ids []int64) ([]*itemDomain.Item, error) {
	if len(ids) == 0 {
		return []*itemDomain.Item{}, nil
	}
	var models []ItemModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewStorageError("find items by ids", err)
	}
	return toItemDomains(models), nil
}

func (r *GormItemCatalog) FindByOwnerID(ctx context.Context, ownerID int64) ([]*itemDomain.Item, error) {
	var models []ItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewStorageError("find items by owner", err)
	}
	return toItemDomains(models), nil
}

func toItemDomains(models []ItemModel) []*itemDomain.Item {
	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		items[i] = toItemDomain(&models[i])
	}
	return items
}

func toItemDomain(m *ItemModel) *itemDomain.Item {
	return &itemDomain.Item{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		Available:   m.Available,
		RequestID:   m.RequestID,
	}
}
