package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (AnalyticsRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return NewAnalyticsRepository(sqlx.NewDb(sqlDB, "postgres")), mock
}

func TestStats(t *testing.T) {
	repo, mock := newRepo(t)
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	mock.ExpectQuery(`(?s)SELECT .*total_products.*today_orders.*pending_orders.*total_revenue`).
		WithArgs("r1", start, end, "pending", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"total_products", "today_orders", "pending_orders", "total_revenue"}).
			AddRow(12, 3, 2, "790.00"))

	stats, err := repo.Stats(context.Background(), "r1", start, end)

	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalProducts)
	assert.Equal(t, int64(3), stats.TodayOrders)
	assert.Equal(t, int64(2), stats.PendingOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(790)))
}

func TestRevenueByMonth(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM orders\s+WHERE restaurant_id = \$1 AND payment_status = \$2\s+GROUP BY 1`).
		WithArgs("r1", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"month", "revenue", "orders"}).
			AddRow("2026-05", "410.00", 1).
			AddRow("2026-06", "760.50", 2))

	list, err := repo.RevenueByMonth(context.Background(), "r1")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2026-05", list[0].Month)
	assert.True(t, list[1].Revenue.Equal(decimal.RequireFromString("760.5")))
	assert.Equal(t, int64(2), list[1].Orders)
}

func TestTopProducts(t *testing.T) {
	t.Run("Ranked by quantity", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectQuery(`ORDER BY total_sold DESC, oi.product_id\s+LIMIT \$3`).
			WithArgs("r1", "completed", 10).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "image", "total_sold", "revenue"}).
				AddRow("p1", "Momo", "momo.jpg", 7, "1260.00").
				AddRow("p2", "Thukpa", "", 2, "400.00"))

		list, err := repo.TopProducts(context.Background(), "r1", 10)

		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Momo", list[0].Name)
		assert.Equal(t, int64(7), list[0].TotalSold)
	})

	t.Run("No sales yields empty list", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectQuery(`FROM order_items oi`).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "image", "total_sold", "revenue"}))

		list, err := repo.TopProducts(context.Background(), "r1", 10)

		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})
}
