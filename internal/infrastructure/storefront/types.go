package storefront

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Storefront API Wire Types
// ---------------------------------------------------------------------------

// OrdersResponse is the body of the paginated order list endpoint
type OrdersResponse struct {
	Orders []Order `json:"orders"`
}

// CountResponse is the body of the lightweight order count endpoint
type CountResponse struct {
	Count int `json:"count"`
}

// Order is a storefront order as the provider serializes it
type Order struct {
	ID              int64          `json:"id"`
	OrderNumber     string         `json:"order_number"`
	FinancialStatus string         `json:"financial_status"`
	Currency        string         `json:"currency"`
	TotalPrice      string         `json:"total_price"`
	SubtotalPrice   string         `json:"subtotal_price"`
	TotalTax        string         `json:"total_tax"`
	TotalDiscounts  string         `json:"total_discounts"`
	Customer        *Customer      `json:"customer"`
	Email           string         `json:"email"`
	LineItems       []LineItem     `json:"line_items"`
	ShippingAddress *Address       `json:"shipping_address"`
	BillingAddress  *Address       `json:"billing_address"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

// Customer is the buyer reference embedded in an order
type Customer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// LineItem is one order line as the provider serializes it
type LineItem struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// Address is a postal address block as the provider serializes it
type Address struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
	Zip      string `json:"zip"`
}

// ---------------------------------------------------------------------------
// Parsing Helpers
// ---------------------------------------------------------------------------

// ParseDecimal converts a provider money string to decimal.
// Missing or malformed input degrades to zero instead of failing the page.
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseTime converts a provider RFC 3339 timestamp.
// Malformed input degrades to the zero time.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
