package handler

import (
	"encoding/json"
	"strings"

	"nepeats/internal/domain/catalog/model"
	"nepeats/internal/domain/catalog/service"

	"github.com/shopspring/decimal"
)

// StringList 接受 JSON 数组或逗号分隔字符串
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}

// ProductInput 菜品输入
type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Categories  *StringList      `json:"categories"`
	Tags        *StringList      `json:"tags"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	IsAvailable *bool            `json:"isAvailable"`
}

func (in ProductInput) toService() service.ProductInput {
	out := service.ProductInput{
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		Price:       in.Price,
		Stock:       in.Stock,
		IsAvailable: in.IsAvailable,
	}
	if in.Categories != nil {
		out.Categories = []string(*in.Categories)
	}
	if in.Tags != nil {
		out.Tags = []string(*in.Tags)
	}
	return out
}

// RestaurantDetails 餐厅资料
type RestaurantDetails struct {
	RestaurantName *string         `json:"restaurantName"`
	Description    *string         `json:"description"`
	Phone          *string         `json:"phone"`
	Email          *string         `json:"email"`
	Logo           *string         `json:"logo"`
	CoverImage     *string         `json:"coverImage"`
	Cuisine        *StringList     `json:"cuisine"`
	Address        *model.Location `json:"address"`
	OpeningHours   json.RawMessage `json:"openingHours"`
}

// ProfileInput 兼容前端的 {restaurantDetails: {...}} 包装
type ProfileInput struct {
	RestaurantDetails RestaurantDetails `json:"restaurantDetails"`
}

func (in ProfileInput) toService() service.ProfileInput {
	d := in.RestaurantDetails
	out := service.ProfileInput{
		Name:         d.RestaurantName,
		Description:  d.Description,
		Phone:        d.Phone,
		Email:        d.Email,
		Logo:         d.Logo,
		CoverImage:   d.CoverImage,
		Address:      d.Address,
		OpeningHours: d.OpeningHours,
	}
	if d.Cuisine != nil {
		out.Cuisine = []string(*d.Cuisine)
	}
	return out
}

// ApprovalInput 审核输入
type ApprovalInput struct {
	Approved *bool `json:"approved" binding:"required"`
}
