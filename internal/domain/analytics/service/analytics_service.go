package service

import (
	"context"
	"errors"
	"time"

	"nepeats/internal/domain/analytics/repository"
	catalogModel "nepeats/internal/domain/catalog/model"
	userModel "nepeats/internal/domain/user/model"
	"nepeats/pkg/errs"

	"github.com/shopspring/decimal"
)

const topProductsLimit = 10

// RestaurantProvider 当前运营账号的餐厅
type RestaurantProvider interface {
	// Restaurant 不存在时以 defaultName 建档
	Restaurant(ctx context.Context, userID, defaultName string) (*catalogModel.Restaurant, error)
}

// RestaurantFinder 只查不建
type RestaurantFinder interface {
	GetByUserID(ctx context.Context, userID string) (*catalogModel.Restaurant, error)
}

// UserFinder 取运营账号名称作为默认店名
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*userModel.User, error)
}

// Dashboard 餐厅首页概览
type Dashboard struct {
	TotalProducts      int64                    `json:"totalProducts"`
	TodayOrders        int64                    `json:"todayOrders"`
	PendingOrders      int64                    `json:"pendingOrders"`
	TotalRevenue       decimal.Decimal          `json:"totalRevenue"`
	RestaurantEarnings decimal.Decimal          `json:"restaurantEarnings"`
	Commission         float64                  `json:"commission"`
	RestaurantInfo     *catalogModel.Restaurant `json:"restaurantInfo"`
}

// Analytics 营收与热销菜品
type Analytics struct {
	RevenueByMonth []repository.MonthlyRevenue `json:"revenueByMonth"`
	TopProducts    []repository.ProductSales   `json:"topProducts"`
}

type AnalyticsService interface {
	Dashboard(ctx context.Context, userID string) (*Dashboard, error)
	Analytics(ctx context.Context, userID string) (*Analytics, error)
}

type analyticsService struct {
	repo        repository.AnalyticsRepository
	provider    RestaurantProvider
	restaurants RestaurantFinder
	users       UserFinder
	commission  float64
	now         func() time.Time
}

func NewAnalyticsService(repo repository.AnalyticsRepository, provider RestaurantProvider, restaurants RestaurantFinder, users UserFinder, commissionPercent float64) AnalyticsService {
	return &analyticsService{
		repo:        repo,
		provider:    provider,
		restaurants: restaurants,
		users:       users,
		commission:  commissionPercent,
		now:         time.Now,
	}
}

func (s *analyticsService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	// 1. 首次访问时建档，店名默认取账号名
	name := ""
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		name = u.Name
	}
	rest, err := s.provider.Restaurant(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	// 2. 聚合统计
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	stats, err := s.repo.Stats(ctx, rest.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalProducts:      stats.TotalProducts,
		TodayOrders:        stats.TodayOrders,
		PendingOrders:      stats.PendingOrders,
		TotalRevenue:       stats.TotalRevenue,
		RestaurantEarnings: Earnings(stats.TotalRevenue, s.commission),
		Commission:         s.commission,
		RestaurantInfo:     rest,
	}, nil
}

func (s *analyticsService) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	empty := &Analytics{RevenueByMonth: []repository.MonthlyRevenue{}, TopProducts: []repository.ProductSales{}}

	rest, err := s.restaurants.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return empty, nil
		}
		return nil, err
	}

	months, err := s.repo.RevenueByMonth(ctx, rest.ID)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, rest.ID, topProductsLimit)
	if err != nil {
		return nil, err
	}
	return &Analytics{RevenueByMonth: months, TopProducts: top}, nil
}

// Earnings 扣除平台佣金后的餐厅收入
func Earnings(revenue decimal.Decimal, commissionPercent float64) decimal.Decimal {
	share := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(commissionPercent).Div(decimal.NewFromInt(100)))
	return revenue.Mul(share).Round(2)
}
