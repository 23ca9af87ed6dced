package storefront

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"19.99", "19.99"},
		{"0", "0"},
		{"", "0"},
		{"not-a-number", "0"},
		{"-5.50", "-5.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDecimal(tt.input).String())
		})
	}
}

func TestTransformOrder(t *testing.T) {
	tenantID := uuid.New()
	order := &Order{
		ID:              450789469,
		OrderNumber:     "#1001",
		FinancialStatus: "paid",
		Currency:        "USD",
		TotalPrice:      "254.98",
		SubtotalPrice:   "229.98",
		TotalTax:        "25.00",
		TotalDiscounts:  "5.00",
		Email:           "bob@example.com",
		Customer:        &Customer{ID: 207119551, Email: "bob@example.com"},
		LineItems: []LineItem{
			{ID: 1, ProductID: 632910392, SKU: "IPOD-342", Title: "IPod Nano", Quantity: 2, Price: "114.99"},
		},
		ShippingAddress: &Address{
			Name: "Bob Norman", Address1: "Chestnut Street 92", City: "Louisville",
			Province: "Kentucky", Country: "United States", Zip: "40202",
		},
		CreatedAt: "2026-08-01T10:00:00Z",
		UpdatedAt: "2026-08-05T12:30:00Z",
	}

	record := TransformOrder(tenantID, order)

	assert.Equal(t, tenantID, record.TenantID)
	assert.Equal(t, "450789469", record.RecordID)
	assert.Equal(t, "2026-08-05T12:30:00Z", record.SourceTimestamp.Format("2006-01-02T15:04:05Z"))
	assert.False(t, record.SyncedAt.IsZero())

	p := record.Payload
	assert.Equal(t, "#1001", p.OrderNumber)
	assert.Equal(t, ordersync.OrderStatusPaid, p.Status)
	assert.True(t, p.TotalAmount.Equal(decimal.RequireFromString("254.98")))
	assert.True(t, p.TaxAmount.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, "207119551", p.CustomerRef)
	assert.Equal(t, "bob@example.com", p.CustomerEmail)
	assert.Equal(t, "Louisville", p.ShippingAddress.City)
	assert.Empty(t, p.BillingAddress.City)

	require.Len(t, p.Items, 1)
	item := p.Items[0]
	assert.Equal(t, "632910392", item.ProductRef)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("114.99")))
	assert.True(t, item.TotalPrice.Equal(decimal.RequireFromString("229.98")))
}

func TestTransformOrder_MalformedFieldsDegrade(t *testing.T) {
	// Malformed optional fields must produce zero values, never an error.
	order := &Order{
		ID:              1,
		FinancialStatus: "something_new",
		TotalPrice:      "N/A",
		SubtotalPrice:   "",
		CreatedAt:       "yesterday",
		UpdatedAt:       "",
		LineItems: []LineItem{
			{ID: 9, Quantity: 3, Price: "bad"},
		},
	}

	record := TransformOrder(uuid.New(), order)

	p := record.Payload
	assert.Equal(t, ordersync.OrderStatusUnknown, p.Status)
	assert.True(t, p.TotalAmount.IsZero())
	assert.True(t, p.SubtotalAmount.IsZero())
	assert.True(t, p.CreatedAt.IsZero())
	assert.Empty(t, p.CustomerRef)
	require.Len(t, p.Items, 1)
	assert.True(t, p.Items[0].UnitPrice.IsZero())
	assert.True(t, p.Items[0].TotalPrice.IsZero())
}

func TestMapFinancialStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     ordersync.OrderStatus
	}{
		{"pending", ordersync.OrderStatusPending},
		{"authorized", ordersync.OrderStatusPending},
		{"paid", ordersync.OrderStatusPaid},
		{"partially_paid", ordersync.OrderStatusPaid},
		{"partially_refunded", ordersync.OrderStatusPartiallyRefunded},
		{"refunded", ordersync.OrderStatusRefunded},
		{"voided", ordersync.OrderStatusVoided},
		{"", ordersync.OrderStatusUnknown},
		{"delivered", ordersync.OrderStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			assert.Equal(t, tt.want, mapFinancialStatus(tt.provider))
		})
	}
}
