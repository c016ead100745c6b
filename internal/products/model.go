package products

import (
	"errors"
	"time"
)

// ErrNotFound indicates the product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInvalidInput indicates a malformed product payload.
var ErrInvalidInput = errors.New("invalid product input")

// MaxList caps list responses.
const MaxList = 50

// Product is a catalog row saved by the dashboard.
type Product struct {
	ID          int64     `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
