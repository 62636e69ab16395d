package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a storefront item. OwnerID is set once, at creation, to the
// creating user and never changes afterwards.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"nome"`
	Brand       string    `gorm:"size:255;not null;index" json:"marca"`
	Category    string    `gorm:"size:255;not null;index" json:"categoria"`
	Quantity    int       `gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0" json:"quantidade"`
	Price       float64   `gorm:"type:decimal(12,2);not null;default:0;check:chk_products_price,price >= 0" json:"preco"`
	Photo       *string   `gorm:"type:text" json:"foto"`
	Description string    `gorm:"type:text" json:"descricao"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"usuario,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) InStock() bool {
	return p.Quantity > 0
}
