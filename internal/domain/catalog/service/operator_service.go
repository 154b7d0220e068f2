package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nepeats/internal/domain/catalog/model"
	"nepeats/internal/domain/catalog/repository"
	"nepeats/internal/pkg/geocode"
	"nepeats/pkg/errs"

	"github.com/shopspring/decimal"
)

// ProfileInput 餐厅资料，nil 字段保持原值
type ProfileInput struct {
	Name         *string
	Description  *string
	Phone        *string
	Email        *string
	Logo         *string
	CoverImage   *string
	Cuisine      []string
	Address      *model.Location
	OpeningHours json.RawMessage
}

// ProductInput 菜品新增/修改，nil 字段保持原值
type ProductInput struct {
	Name        *string
	Description *string
	Image       *string
	Categories  []string
	Tags        []string
	Price       *decimal.Decimal
	Stock       *int
	IsAvailable *bool
}

// OperatorService 餐厅运营：资料与菜品管理
type OperatorService interface {
	// Restaurant 当前运营账号的餐厅，不存在时以 defaultName 建档（待审核）
	Restaurant(ctx context.Context, userID, defaultName string) (*model.Restaurant, error)
	UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*model.Restaurant, error)

	ListProducts(ctx context.Context, userID string) ([]model.Product, error)
	CreateProduct(ctx context.Context, userID string, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, userID, productID string, input ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, userID, productID string) error
}

type operatorService struct {
	restaurants repository.RestaurantRepository
	products    repository.ProductRepository
	catalog     CatalogService
}

func NewOperatorService(restaurants repository.RestaurantRepository, products repository.ProductRepository, catalog CatalogService) OperatorService {
	return &operatorService{restaurants: restaurants, products: products, catalog: catalog}
}

func newRestaurant(userID, name string) *model.Restaurant {
	if name == "" {
		name = "New Restaurant"
	}
	center := geocode.DefaultCityCoordinates("kathmandu")
	return &model.Restaurant{
		UserID:       userID,
		Name:         name,
		Cuisine:      []string{},
		Address:      model.Location{Lat: &center.Lat, Lng: &center.Lng},
		OpeningHours: json.RawMessage("[]"),
		IsActive:     true,
		IsApproved:   false,
	}
}

func (s *operatorService) Restaurant(ctx context.Context, userID, defaultName string) (*model.Restaurant, error) {
	rest, err := s.restaurants.GetByUserID(ctx, userID)
	if err == nil || !errors.Is(err, errs.ErrNotFound) {
		return rest, err
	}

	rest = newRestaurant(userID, defaultName)
	if err := s.restaurants.Create(ctx, rest); err != nil {
		// 并发首访，另一请求已建档
		if errors.Is(err, errs.ErrConflict) {
			return s.restaurants.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return rest, nil
}

func (s *operatorService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*model.Restaurant, error) {
	name := ""
	if input.Name != nil {
		name = *input.Name
	}
	rest, err := s.Restaurant(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != "" {
		rest.Name = *input.Name
	}
	if input.Description != nil {
		rest.Description = *input.Description
	}
	if input.Phone != nil {
		rest.Phone = *input.Phone
	}
	if input.Email != nil {
		rest.Email = *input.Email
	}
	if input.Logo != nil {
		rest.Logo = *input.Logo
	}
	if input.CoverImage != nil {
		rest.CoverImage = *input.CoverImage
	}
	if input.Cuisine != nil {
		rest.Cuisine = input.Cuisine
	}
	if input.Address != nil {
		rest.Address = *input.Address
	}
	if len(input.OpeningHours) > 0 {
		rest.OpeningHours = input.OpeningHours
	}

	if err := s.restaurants.Save(ctx, rest); err != nil {
		return nil, err
	}
	return rest, nil
}

func (s *operatorService) ListProducts(ctx context.Context, userID string) ([]model.Product, error) {
	rest, err := s.restaurants.GetByUserID(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return []model.Product{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.products.ListByRestaurant(ctx, rest.ID, false)
}

func (s *operatorService) CreateProduct(ctx context.Context, userID string, input ProductInput) (*model.Product, error) {
	rest, err := s.restaurants.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" || input.Price == nil {
		return nil, fmt.Errorf("%w: name and price are required", errs.ErrInvalidInput)
	}

	p := &model.Product{
		RestaurantID: rest.ID,
		Categories:   []string{},
		Tags:         []string{},
		IsAvailable:  true,
	}
	if err := applyProduct(p, input); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}

	s.catalog.InvalidateMenu(ctx, rest.ID)
	return p, nil
}

func (s *operatorService) UpdateProduct(ctx context.Context, userID, productID string, input ProductInput) (*model.Product, error) {
	rest, err := s.restaurants.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	// 其他餐厅的菜品按不存在处理
	if p.RestaurantID != rest.ID {
		return nil, fmt.Errorf("%w: product %s", errs.ErrNotFound, productID)
	}

	if err := applyProduct(p, input); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}

	s.catalog.InvalidateMenu(ctx, rest.ID)
	return p, nil
}

func (s *operatorService) DeleteProduct(ctx context.Context, userID, productID string) error {
	rest, err := s.restaurants.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, rest.ID, productID); err != nil {
		return err
	}

	s.catalog.InvalidateMenu(ctx, rest.ID)
	return nil
}

func applyProduct(p *model.Product, in ProductInput) error {
	if in.Price != nil && in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", errs.ErrInvalidInput)
	}
	if in.Stock != nil && *in.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", errs.ErrInvalidInput)
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Categories != nil {
		p.Categories = in.Categories
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	p.InStock = p.Stock > 0
	return nil
}
