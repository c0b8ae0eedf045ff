package services

import (
	"context"

	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// revenueStatuses are the states in which an order counts as sold
var revenueStatuses = []models.OrderStatus{
	models.StatusConfirmed,
	models.StatusShipped,
	models.StatusDelivered,
}

// DashboardStats summarises the store for the admin home page
type DashboardStats struct {
	TotalOrders     int64                        `json:"total_orders"`
	OrdersByStatus  map[models.OrderStatus]int64 `json:"orders_by_status"`
	TotalRevenue    decimal.Decimal              `json:"total_revenue"`
	TotalProducts   int64                        `json:"total_products"`
	TotalCustomers  int64                        `json:"total_customers"`
	TotalCategories int64                        `json:"total_categories"`
}

type statusCount struct {
	Status string
	Count  int64
}

type revenueRow struct {
	Revenue decimal.NullDecimal
}

// DashboardService computes admin dashboard figures
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a DashboardService
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats runs the dashboard queries concurrently
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		counts                          []statusCount
		revenue                         revenueRow
		products, customers, categories int64
	)

	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Order{}).
			Select("status, COUNT(*) AS count").
			Group("status").
			Scan(&counts).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Order{}).
			Select("SUM(total) AS revenue").
			Where("status IN ?", revenueStatuses).
			Scan(&revenue).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Product{}).Where("active = ?", true).Count(&products).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Customer{}).Count(&customers).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Category{}).Where("active = ?", true).Count(&categories).Error
	})

	if err := g.Wait(); err != nil {
		return nil, persistenceErr("dashboard stats", err)
	}

	stats := &DashboardStats{
		OrdersByStatus:  make(map[models.OrderStatus]int64, len(models.WritableStatuses)),
		TotalRevenue:    decimal.Zero,
		TotalProducts:   products,
		TotalCustomers:  customers,
		TotalCategories: categories,
	}
	for _, st := range models.WritableStatuses {
		stats.OrdersByStatus[st] = 0
	}
	for _, c := range counts {
		key := models.OrderStatus(c.Status).Canonical()
		stats.OrdersByStatus[key] += c.Count
		stats.TotalOrders += c.Count
	}
	if revenue.Revenue.Valid {
		stats.TotalRevenue = revenue.Revenue.Decimal.Round(2)
	}
	return stats, nil
}

// Recent returns the latest orders with their customer's name and email
func (s *DashboardService) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, persistenceErr("recent orders", err)
	}
	return orders, nil
}
