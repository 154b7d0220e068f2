package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// 统计只计入已完成支付的订单
const paymentCompleted = "completed"

// Stats 餐厅概览
type Stats struct {
	TotalProducts int64           `db:"total_products"`
	TodayOrders   int64           `db:"today_orders"`
	PendingOrders int64           `db:"pending_orders"`
	TotalRevenue  decimal.Decimal `db:"total_revenue"`
}

// MonthlyRevenue 按月营收
type MonthlyRevenue struct {
	Month   string          `db:"month" json:"month"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Orders  int64           `db:"orders" json:"orders"`
}

// ProductSales 菜品销量
type ProductSales struct {
	ProductID string          `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Image     string          `db:"image" json:"image"`
	TotalSold int64           `db:"total_sold" json:"totalSold"`
	Revenue   decimal.Decimal `db:"revenue" json:"revenue"`
}

// AnalyticsRepository 餐厅聚合查询
type AnalyticsRepository interface {
	// Stats [dayStart, dayEnd) 为"今日"区间
	Stats(ctx context.Context, restaurantID string, dayStart, dayEnd time.Time) (*Stats, error)
	RevenueByMonth(ctx context.Context, restaurantID string) ([]MonthlyRevenue, error)
	TopProducts(ctx context.Context, restaurantID string, limit int) ([]ProductSales, error)
}

type analyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

const statsQuery = `
	SELECT
		(SELECT COUNT(*) FROM products WHERE restaurant_id = $1) AS total_products,
		(SELECT COUNT(*) FROM orders WHERE restaurant_id = $1 AND created_at >= $2 AND created_at < $3) AS today_orders,
		(SELECT COUNT(*) FROM orders WHERE restaurant_id = $1 AND restaurant_status = $4) AS pending_orders,
		(SELECT COALESCE(SUM(total), 0) FROM orders WHERE restaurant_id = $1 AND payment_status = $5) AS total_revenue
`

func (r *analyticsRepository) Stats(ctx context.Context, restaurantID string, dayStart, dayEnd time.Time) (*Stats, error) {
	var stats Stats
	err := r.db.GetContext(ctx, &stats, statsQuery, restaurantID, dayStart, dayEnd, "pending", paymentCompleted)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

const revenueByMonthQuery = `
	SELECT
		to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
		SUM(total) AS revenue,
		COUNT(*) AS orders
	FROM orders
	WHERE restaurant_id = $1 AND payment_status = $2
	GROUP BY 1
	ORDER BY 1
`

func (r *analyticsRepository) RevenueByMonth(ctx context.Context, restaurantID string) ([]MonthlyRevenue, error) {
	list := []MonthlyRevenue{}
	if err := r.db.SelectContext(ctx, &list, revenueByMonthQuery, restaurantID, paymentCompleted); err != nil {
		return nil, err
	}
	return list, nil
}

// 名称取下单时的快照，菜品删除后仍可统计
const topProductsQuery = `
	SELECT
		oi.product_id,
		MAX(oi.name) AS name,
		COALESCE(MAX(p.image), '') AS image,
		SUM(oi.qty) AS total_sold,
		SUM(oi.qty * oi.price) AS revenue
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	LEFT JOIN products p ON p.id = oi.product_id
	WHERE o.restaurant_id = $1 AND o.payment_status = $2
	GROUP BY oi.product_id
	ORDER BY total_sold DESC, oi.product_id
	LIMIT $3
`

func (r *analyticsRepository) TopProducts(ctx context.Context, restaurantID string, limit int) ([]ProductSales, error) {
	list := []ProductSales{}
	if err := r.db.SelectContext(ctx, &list, topProductsQuery, restaurantID, paymentCompleted, limit); err != nil {
		return nil, err
	}
	return list, nil
}
