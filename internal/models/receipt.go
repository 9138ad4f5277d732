package models

import (
	"time"

	"github.com/google/uuid"
)

// Receipt.TotalAmount is caller-supplied and stored verbatim; it is not
// reconciled against the sum of item total prices.
type Receipt struct {
	ID              uuid.UUID     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	VendorName      string        `json:"vendor_name" example:"Target"`
	TotalAmount     float64       `json:"total_amount" example:"45.67"`
	Currency        string        `json:"currency" example:"USD"`
	PurchaseDate    time.Time     `json:"purchase_date" example:"2024-01-15T10:30:00Z"`
	Items           []ReceiptItem `json:"items"`
	ReceiptImageURL *string       `json:"receipt_image_url,omitempty" example:"https://example.com/receipt.jpg"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ReceiptItem.TotalPrice is computed once at write time as quantity times
// unit price and read back from storage as-is.
type ReceiptItem struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name" example:"Milk"`
	Quantity   int32     `json:"quantity" example:"2"`
	UnitPrice  float64   `json:"unit_price" example:"4.99"`
	TotalPrice float64   `json:"total_price" example:"9.98"`
}
