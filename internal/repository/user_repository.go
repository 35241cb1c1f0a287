package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shareit/service-booking/internal/common/domain"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
)

// UserModel is the GORM model for the users table, read only here.
type UserModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(512);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

// GormUserDirectory implements user.Directory using GORM.
type GormUserDirectory struct {
	db *gorm.DB
}

func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

func (r *GormUserDirectory) FindByID(ctx context.Context, id int64) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id)
		}
		return nil, domain.NewStorageError("find user by id", err)
	}
	return &userDomain.User{ID: model.ID, Name: model.Name, Email: model.Email}, nil
}
