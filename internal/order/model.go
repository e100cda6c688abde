// Package order implements the order placement and fulfillment
// workflow: cart validation, stock accounting, the status lifecycle
// and the atomic multi-table writes behind them.
package order

import (
	"time"

	"github.com/gasflowhq/gasflow-api/internal/catalog"
	"github.com/gasflowhq/gasflow-api/internal/user"
)

// Status lifecycle: pending -> confirmed -> assigned -> in_transit ->
// delivered; cancelled is reachable from pending/confirmed via the
// cancel path and from any state via a status update.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusAssigned  = "assigned"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Statuses lists the valid order statuses, in lifecycle order.
var Statuses = []string{
	StatusPending, StatusConfirmed, StatusAssigned,
	StatusInTransit, StatusDelivered, StatusCancelled,
}

// PaymentStatuses lists the valid payment statuses.
var PaymentStatuses = []string{
	PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded,
}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	for _, v := range PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Order struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"orderNumber"`
	CustomerID    string  `json:"customerId"`
	DriverID      *string `json:"driverId,omitempty"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"paymentStatus"`
	// NUMERIC -> string
	TotalAmount           string     `json:"totalAmount"`
	DeliveryFee           string     `json:"deliveryFee"`
	DeliveryAddress       string     `json:"deliveryAddress"`
	DeliveryLatitude      *float64   `json:"deliveryLatitude,omitempty"`
	DeliveryLongitude     *float64   `json:"deliveryLongitude,omitempty"`
	SpecialInstructions   *string    `json:"specialInstructions,omitempty"`
	EstimatedDeliveryTime *time.Time `json:"estimatedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time `json:"actualDeliveryTime,omitempty"`
	Customer              *user.User `json:"customer,omitempty"`
	Driver                *user.User `json:"driver,omitempty"`
	Items                 []Item     `json:"items"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

type Item struct {
	ID            string `json:"id"`
	OrderID       string `json:"orderId"`
	GasCylinderID string `json:"gasCylinderId"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unitPrice"`
	TotalPrice    string `json:"totalPrice"`

	GasCylinder *catalog.GasCylinder `json:"gasCylinder,omitempty"`
}
