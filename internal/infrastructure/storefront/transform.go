package storefront

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// TransformOrder maps a storefront order to the normalized record shape.
// It is pure and total: malformed optional fields degrade to empty or zero
// values, so a bad order never aborts its page.
func TransformOrder(tenantID uuid.UUID, o *Order) ordersync.OrderRecord {
	createdAt := ParseTime(o.CreatedAt)
	updatedAt := ParseTime(o.UpdatedAt)
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	payload := ordersync.OrderPayload{
		OrderNumber:     o.OrderNumber,
		Status:          mapFinancialStatus(o.FinancialStatus),
		Currency:        o.Currency,
		TotalAmount:     ParseDecimal(o.TotalPrice),
		SubtotalAmount:  ParseDecimal(o.SubtotalPrice),
		TaxAmount:       ParseDecimal(o.TotalTax),
		DiscountAmount:  ParseDecimal(o.TotalDiscounts),
		CustomerEmail:   o.Email,
		Items:           make([]ordersync.OrderLineItem, 0, len(o.LineItems)),
		ShippingAddress: transformAddress(o.ShippingAddress),
		BillingAddress:  transformAddress(o.BillingAddress),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}

	if o.Customer != nil {
		payload.CustomerRef = strconv.FormatInt(o.Customer.ID, 10)
		if payload.CustomerEmail == "" {
			payload.CustomerEmail = o.Customer.Email
		}
	}

	for _, li := range o.LineItems {
		unit := ParseDecimal(li.Price)
		payload.Items = append(payload.Items, ordersync.OrderLineItem{
			ItemRef:    strconv.FormatInt(li.ID, 10),
			ProductRef: strconv.FormatInt(li.ProductID, 10),
			SKU:        li.SKU,
			Title:      li.Title,
			Quantity:   li.Quantity,
			UnitPrice:  unit,
			TotalPrice: unit.Mul(decimal.NewFromInt(int64(li.Quantity))),
		})
	}

	return ordersync.OrderRecord{
		TenantID:        tenantID,
		RecordID:        strconv.FormatInt(o.ID, 10),
		SourceTimestamp: updatedAt,
		Payload:         payload,
		SyncedAt:        time.Now().UTC(),
	}
}

// mapFinancialStatus maps provider financial statuses to normalized ones
func mapFinancialStatus(status string) ordersync.OrderStatus {
	switch status {
	case "pending", "authorized":
		return ordersync.OrderStatusPending
	case "paid", "partially_paid":
		return ordersync.OrderStatusPaid
	case "partially_refunded":
		return ordersync.OrderStatusPartiallyRefunded
	case "refunded":
		return ordersync.OrderStatusRefunded
	case "voided":
		return ordersync.OrderStatusVoided
	default:
		return ordersync.OrderStatusUnknown
	}
}

// transformAddress maps an optional provider address block
func transformAddress(a *Address) ordersync.OrderAddress {
	if a == nil {
		return ordersync.OrderAddress{}
	}
	return ordersync.OrderAddress{
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Address1,
		Line2:      a.Address2,
		City:       a.City,
		Province:   a.Province,
		Country:    a.Country,
		PostalCode: a.Zip,
	}
}
