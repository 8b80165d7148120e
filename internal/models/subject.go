package models

import "time"

// Product is an inventory item under observation.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	SubCategory  string `json:"sub_category"`
	CurrentStock int    `json:"current_stock"`
	ReorderLevel int    `json:"reorder_level"`
	ImageURL     string `json:"image_url,omitempty"`
}

// Batch is a dated lot of a product.
type Batch struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	BatchNumber string    `json:"batch_number"`
	ExpiryDate  time.Time `json:"expiry_date"`
}

// RiskRecord is a derived risk score keyed by product id.
type RiskRecord struct {
	ProductID string  `json:"product_id"`
	Level     string  `json:"level"` // High, Medium, Low, or empty
	Score     float64 `json:"score"` // 0-100
}
