package analytics

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/logger"
	"github.com/wichananm65/marketplace-backend/internal/money"
	"github.com/wichananm65/marketplace-backend/internal/order"
	"github.com/wichananm65/marketplace-backend/internal/product"
)

const dayLayout = "2006-01-02"

// Catalog resolves the products a vendor currently owns.
type Catalog interface {
	Catalog(ctx context.Context, vendor ids.VendorID) (product.VendorCatalog, error)
}

// Engine computes read-only sales figures from orders. Attribution goes by
// the vendor's current product set, so a product moved to another vendor
// takes its history with it.
type Engine struct {
	products Catalog
	orders   order.Repository
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewEngine(products Catalog, orders order.Repository, loc *time.Location, log *zap.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		products: products,
		orders:   orders,
		log:      log,
		loc:      loc,
		now:      time.Now,
	}
}

// since returns the inclusive lower bound of p. Month and year start on the
// calendar boundary in the engine's location.
func (e *Engine) since(p Period, now time.Time) time.Time {
	now = now.In(e.loc)
	switch p {
	case PeriodHour:
		return now.Add(-time.Hour)
	case PeriodDay:
		return now.Add(-24 * time.Hour)
	case PeriodYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, e.loc)
	default:
		return monthStart(now, e.loc)
	}
}

func monthStart(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
}

// ComputeAnalytics reports the vendor's sales for period.
func (e *Engine) ComputeAnalytics(ctx context.Context, vendor ids.VendorID, period string) (Report, error) {
	p, ok := ParsePeriod(period)
	if !ok {
		return Report{}, apperr.Validation("invalid period %q, expected hour, day, month or year", period)
	}

	catalog, err := e.products.Catalog(ctx, vendor)
	if err != nil {
		return Report{}, err
	}
	if len(catalog.IDs) == 0 {
		return emptyReport(p), nil
	}

	orders, err := e.orders.ListContainingProducts(ctx, catalog.IDs.Slice(), e.since(p, e.now()))
	if err != nil {
		logger.Error(ctx, e.log, "analytics order scan failed", zap.Int64("vendor_id", int64(vendor)), zap.Error(err))
		return Report{}, apperr.Internal(err, "computing analytics")
	}

	r := e.aggregate(p, catalog.IDs, orders)
	logger.Debug(ctx, e.log, "analytics computed",
		zap.Int64("vendor_id", int64(vendor)),
		zap.String("period", string(p)),
		zap.Int("orders", r.TotalOrders),
	)
	return r, nil
}

func (e *Engine) aggregate(p Period, owned ids.ProductSet, orders []order.Order) Report {
	r := emptyReport(p)
	byName := make(map[string]*ProductSales)
	byDay := make(map[string]money.Cents)

	for _, o := range orders {
		matched := false
		day := o.CreatedAt.In(e.loc).Format(dayLayout)
		for _, it := range o.Items {
			if !owned.Has(it.ProductID) {
				continue
			}
			matched = true
			r.TotalSales += it.LineTotal
			r.TotalItems += it.Quantity

			ps, ok := byName[it.ProductName]
			if !ok {
				ps = &ProductSales{Name: it.ProductName}
				byName[it.ProductName] = ps
			}
			ps.Quantity += it.Quantity
			ps.Revenue += it.LineTotal
			byDay[day] += it.LineTotal
		}
		if matched {
			r.TotalOrders++
		}
	}

	for _, ps := range byName {
		r.ProductSales = append(r.ProductSales, *ps)
	}
	sort.Slice(r.ProductSales, func(i, j int) bool {
		a, b := r.ProductSales[i], r.ProductSales[j]
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Name < b.Name
	})

	for day, sales := range byDay {
		r.SalesTrend = append(r.SalesTrend, TrendPoint{Date: day, Sales: sales})
	}
	sort.Slice(r.SalesTrend, func(i, j int) bool { return r.SalesTrend[i].Date < r.SalesTrend[j].Date })

	r.AverageOrderValue = money.Average(r.TotalSales, int64(r.TotalOrders))
	if ratio, ok := money.Ratio(int64(r.TotalItems), int64(r.TotalOrders)); ok {
		v := ratio.Round(2).InexactFloat64()
		r.ItemsPerOrder = &v
	}
	return r
}

// Dashboard returns all-time and current-month counters for the vendor.
func (e *Engine) Dashboard(ctx context.Context, vendor ids.VendorID) (DashboardStats, error) {
	catalog, err := e.products.Catalog(ctx, vendor)
	if err != nil {
		return DashboardStats{}, err
	}
	start := monthStart(e.now(), e.loc)
	stats := DashboardStats{
		TotalProducts:     len(catalog.Products),
		ProductsThisMonth: catalog.CreatedSince(start),
	}
	if len(catalog.IDs) == 0 {
		return stats, nil
	}

	orders, err := e.orders.ListContainingProducts(ctx, catalog.IDs.Slice(), time.Time{})
	if err != nil {
		logger.Error(ctx, e.log, "dashboard order scan failed", zap.Int64("vendor_id", int64(vendor)), zap.Error(err))
		return DashboardStats{}, apperr.Internal(err, "computing dashboard stats")
	}

	for _, o := range orders {
		var sales money.Cents
		matched := false
		for _, it := range o.Items {
			if catalog.IDs.Has(it.ProductID) {
				matched = true
				sales += it.LineTotal
			}
		}
		if !matched {
			continue
		}
		stats.TotalOrders++
		stats.TotalSales += sales
		if !o.CreatedAt.Before(start) {
			stats.OrdersThisMonth++
			stats.SalesThisMonth += sales
		}
	}
	return stats, nil
}
