package ordersync

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Order Status
// ---------------------------------------------------------------------------

// OrderStatus represents the normalized financial status of a storefront order
type OrderStatus string

const (
	// OrderStatusPending indicates payment has not been captured yet
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPaid indicates payment was captured
	OrderStatusPaid OrderStatus = "PAID"
	// OrderStatusPartiallyRefunded indicates part of the payment was returned
	OrderStatusPartiallyRefunded OrderStatus = "PARTIALLY_REFUNDED"
	// OrderStatusRefunded indicates the full payment was returned
	OrderStatusRefunded OrderStatus = "REFUNDED"
	// OrderStatusVoided indicates the order was cancelled before capture
	OrderStatusVoided OrderStatus = "VOIDED"
	// OrderStatusUnknown is used when the provider sends an unmapped status
	OrderStatusUnknown OrderStatus = "UNKNOWN"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPartiallyRefunded,
		OrderStatusRefunded, OrderStatusVoided, OrderStatusUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Normalized Order Value Objects
// ---------------------------------------------------------------------------

// OrderPayload is the normalized shape of one storefront order.
// All monetary fields are decimals; malformed provider input degrades to
// zero values rather than failing the page.
type OrderPayload struct {
	// OrderNumber is the human-facing order number on the storefront
	OrderNumber string `json:"order_number"`
	// Status is the normalized financial status
	Status OrderStatus `json:"status"`
	// Currency is the presentment currency code
	Currency string `json:"currency"`
	// TotalAmount is what the buyer paid
	TotalAmount decimal.Decimal `json:"total_amount"`
	// SubtotalAmount is the product total before shipping and tax
	SubtotalAmount decimal.Decimal `json:"subtotal_amount"`
	// TaxAmount is the total tax charged
	TaxAmount decimal.Decimal `json:"tax_amount"`
	// DiscountAmount is the total discount applied
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	// CustomerRef identifies the buyer on the storefront
	CustomerRef string `json:"customer_ref"`
	// CustomerEmail is the buyer's email, when shared by the provider
	CustomerEmail string `json:"customer_email"`
	// Items contains the order line items
	Items []OrderLineItem `json:"items"`
	// ShippingAddress is the delivery address block
	ShippingAddress OrderAddress `json:"shipping_address"`
	// BillingAddress is the billing address block
	BillingAddress OrderAddress `json:"billing_address"`
	// CreatedAt is when the order was created on the storefront
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the order was last modified on the storefront
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderLineItem is one normalized line of a storefront order
type OrderLineItem struct {
	// ItemRef is the line item identifier on the storefront
	ItemRef string `json:"item_ref"`
	// ProductRef is the product identifier on the storefront
	ProductRef string `json:"product_ref"`
	// SKU is the merchant SKU code
	SKU string `json:"sku"`
	// Title is the product title
	Title string `json:"title"`
	// Quantity is the ordered quantity
	Quantity int `json:"quantity"`
	// UnitPrice is the per-unit price
	UnitPrice decimal.Decimal `json:"unit_price"`
	// TotalPrice is the extended line price
	TotalPrice decimal.Decimal `json:"total_price"`
}

// OrderAddress is a normalized address block
type OrderAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// ---------------------------------------------------------------------------
// OrderRecord
// ---------------------------------------------------------------------------

// OrderRecord is a normalized order ready for idempotent persistence.
// The idempotency key is (TenantID, RecordID); replaying the same record
// overwrites Payload and SyncedAt (last-write-wins).
type OrderRecord struct {
	// TenantID is the tenant this record belongs to
	TenantID uuid.UUID
	// RecordID is the order's identifier on the storefront
	RecordID string
	// SourceTimestamp is the order's last modification time at the source
	SourceTimestamp time.Time
	// Payload is the normalized order body
	Payload OrderPayload
	// SyncedAt is when this record was written by the sync engine
	SyncedAt time.Time
}
