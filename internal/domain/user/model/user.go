package model

import (
	baseModel "nepeats/pkg/model"

	"github.com/lib/pq"
)

// User 用户，由外部认证服务签发令牌，本服务只保存资料和订单历史
type User struct {
	baseModel.BaseModel
	Name         string         `gorm:"size:100" json:"name"`
	Email        string         `gorm:"size:255" json:"email"`
	Phone        string         `gorm:"size:20" json:"phone"`
	ProfileImage string         `json:"profileImage"`
	Role         string         `gorm:"size:20;default:customer" json:"role"`
	OrderIDs     pq.StringArray `gorm:"type:text[];default:'{}'" json:"orders"`
}

// Address 收货地址
// 同一用户最多一个默认地址，由部分唯一索引保证
type Address struct {
	baseModel.BaseModel
	UserID    string   `gorm:"type:uuid;index" json:"userId"`
	Label     string   `gorm:"size:50" json:"label"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	Area      string   `json:"area"`
	Landmark  *string  `json:"landmark,omitempty"`
	Phone     string   `gorm:"size:20" json:"phone"`
	IsDefault bool     `json:"isDefault"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}

// HasCoordinates 是否已有经纬度
func (a *Address) HasCoordinates() bool {
	return a.Lat != nil && a.Lng != nil
}
