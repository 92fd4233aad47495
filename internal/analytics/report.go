package analytics

import "github.com/wichananm65/marketplace-backend/internal/money"

type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod accepts the four known periods. An empty value means month.
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(s); p {
	case "":
		return PeriodMonth, true
	case PeriodHour, PeriodDay, PeriodMonth, PeriodYear:
		return p, true
	}
	return "", false
}

type ProductSales struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Revenue  money.Cents `json:"revenue"`
}

type TrendPoint struct {
	Date  string      `json:"date"`
	Sales money.Cents `json:"sales"`
}

// Report summarizes a vendor's sales over a period. AverageOrderValue and
// ItemsPerOrder are nil when there are no orders. ItemsPerOrder is rounded to
// two decimals.
type Report struct {
	Period            Period         `json:"period"`
	TotalSales        money.Cents    `json:"totalSales"`
	TotalOrders       int            `json:"totalOrders"`
	TotalItems        int            `json:"totalItems"`
	AverageOrderValue *money.Cents   `json:"averageOrderValue"`
	ItemsPerOrder     *float64       `json:"itemsPerOrder"`
	ProductSales      []ProductSales `json:"productSales"`
	SalesTrend        []TrendPoint   `json:"salesTrend"`
}

func emptyReport(p Period) Report {
	return Report{Period: p, ProductSales: []ProductSales{}, SalesTrend: []TrendPoint{}}
}

// DashboardStats are the headline counters of the vendor dashboard.
type DashboardStats struct {
	TotalProducts     int         `json:"totalProducts"`
	ProductsThisMonth int         `json:"productsThisMonth"`
	TotalOrders       int         `json:"totalOrders"`
	OrdersThisMonth   int         `json:"ordersThisMonth"`
	TotalSales        money.Cents `json:"totalSales"`
	SalesThisMonth    money.Cents `json:"salesThisMonth"`
}
