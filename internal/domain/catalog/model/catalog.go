package model

import (
	"encoding/json"

	baseModel "nepeats/pkg/model"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Location 餐厅地址
type Location struct {
	Street string   `json:"street"`
	City   string   `json:"city"`
	Area   string   `json:"area"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
}

// Restaurant 餐厅，每个运营账号对应一家
type Restaurant struct {
	baseModel.BaseModel
	UserID       string          `gorm:"type:uuid;uniqueIndex" json:"userId"`
	Name         string          `gorm:"size:150" json:"restaurantName"`
	Description  string          `json:"description"`
	Logo         string          `json:"logo"`
	CoverImage   string          `json:"coverImage"`
	Cuisine      pq.StringArray  `gorm:"type:text[]" json:"cuisine"`
	Address      Location        `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Phone        string          `gorm:"size:20" json:"phone"`
	Email        string          `json:"email"`
	OpeningHours json.RawMessage `gorm:"type:jsonb" json:"openingHours"` // [{day, open, close, isClosed}]
	Rating       float64         `json:"rating"`
	TotalReviews int             `json:"totalReviews"`
	IsActive     bool            `json:"isActive"`
	IsApproved   bool            `json:"isApproved"`
}

// Product 菜品
// InStock 始终等于 Stock > 0
type Product struct {
	baseModel.BaseModel
	RestaurantID string          `gorm:"type:uuid;index" json:"restaurantId"`
	Name         string          `gorm:"size:150" json:"name"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Categories   pq.StringArray  `gorm:"type:text[]" json:"categories"`
	Tags         pq.StringArray  `gorm:"type:text[]" json:"tags"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Stock        int             `json:"stock"`
	InStock      bool            `json:"inStock"`
	IsAvailable  bool            `json:"isAvailable"`
	TotalOrders  int             `json:"totalOrders"`
}

// BeforeSave 钩子：同步 in_stock
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.InStock = p.Stock > 0
	return nil
}

// Orderable 是否可下单 qty 份
func (p *Product) Orderable(qty int) bool {
	return p.IsAvailable && p.InStock && p.Stock >= qty
}
