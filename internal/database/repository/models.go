package repository

import "time"

// OrderItem is one row of the demo explore.
type OrderItem struct {
	ID                string
	OrderID           string
	UserID            string
	CreatedAt         time.Time
	Status            string
	SalePrice         float64
	Country           string
	State             string
	City              *string
	Gender            string
	TrafficSource     string
	ProductDepartment string
	ProductCategory   string
	ProductBrand      string
}
