package domain

import (
	"fmt"
	"time"
)

type Product struct {
	ID          string    `json:"id"`
	FarmerID    string    `json:"farmerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       float64   `json:"price"`
	MinQuantity int       `json:"minQuantity"`
	MaxQuantity int       `json:"maxQuantity"`
	Stock       int       `json:"stock"`
	InStock     bool      `json:"inStock"`
	ImageURLs   []string  `json:"imageUrls,omitempty"`
	CreatedOn   time.Time `json:"createdOn"`
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if p.MinQuantity < 1 {
		return fmt.Errorf("minQuantity must be at least 1")
	}
	if p.MaxQuantity < p.MinQuantity {
		return fmt.Errorf("maxQuantity must not be below minQuantity")
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	return nil
}
