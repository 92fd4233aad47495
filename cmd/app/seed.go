package main

import (
	"time"

	"github.com/wichananm65/marketplace-backend/internal/product"
)

// seedProducts is the catalog served in memory mode: two vendors, ids 10 and
// 20, so multi-vendor checkouts can be tried locally.
func seedProducts() []product.Product {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []product.Product{
		{ID: 1, VendorID: 10, Name: "Cat Sweater", Category: "Clothes and accessories", Price: 26000, Stock: 12, CreatedAt: created},
		{ID: 2, VendorID: 10, Name: "Cat Snack Sticks", Category: "Cat snacks", Price: 8900, Stock: 40, CreatedAt: created},
		{ID: 3, VendorID: 20, Name: "Double Bowl", Category: "Pet supplies", Price: 42000, Stock: 7, CreatedAt: created},
		{ID: 4, VendorID: 20, Name: "Clumping Litter 10L", Category: "Sand and bathroom", Price: 31500, Stock: 20, CreatedAt: created},
	}
}
