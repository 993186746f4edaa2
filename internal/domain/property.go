package domain

import (
	"context"
	"time"
)

type PropertyStatus string

const (
	PropertyDraft     PropertyStatus = "draft"
	PropertyPublished PropertyStatus = "published"
	PropertyArchived  PropertyStatus = "archived"
)

type Property struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"index;not null" json:"ownerId"`
	Title       string         `gorm:"size:255;not null" json:"title" binding:"required,max=255"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Address     string         `gorm:"size:255;not null" json:"address" binding:"required,max=255"`
	Price       int64          `gorm:"not null" json:"price" binding:"required,min=0"` // minor currency units
	Rooms       int            `json:"rooms" binding:"min=0"`
	Area        float64        `json:"area" binding:"min=0"` // square meters
	Status      PropertyStatus `gorm:"size:16;not null;default:draft" json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (Property) TableName() string { return "properties" }

func (p *Property) GetID() uint        { return p.ID }
func (p *Property) SetID(id uint)      { p.ID = id }
func (p *Property) GetOwnerID() uint   { return p.OwnerID }
func (p *Property) SetOwnerID(id uint) { p.OwnerID = id }

type PropertyRepository interface {
	ListPublished(ctx context.Context, offset, limit int) ([]Property, int64, error)
	FindByID(ctx context.Context, id uint) (*Property, error)
	Update(ctx context.Context, p *Property) error
}
