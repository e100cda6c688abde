package order

// CreateOrderItem line item of an order creation request.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	CylinderID string `json:"cylinderId" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity   int    `json:"quantity"   example:"2"`
}

// CreateOrderRequest payload of order creation.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	CustomerID          string            `json:"customerId" example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	Items               []CreateOrderItem `json:"items"`
	DeliveryAddress     string            `json:"deliveryAddress"`
	DeliveryLatitude    *float64          `json:"deliveryLatitude"`
	DeliveryLongitude   *float64          `json:"deliveryLongitude"`
	SpecialInstructions *string           `json:"specialInstructions"`
}

// UpdateStatusRequest payload of a status transition.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status   string  `json:"status" example:"assigned"`
	DriverID *string `json:"driverId"`
	// RFC3339
	EstimatedDeliveryTime *string `json:"estimatedDeliveryTime"`
}

// UpdatePaymentRequest payload of a payment status change.
// swagger:model UpdatePaymentRequest
type UpdatePaymentRequest struct {
	PaymentStatus string `json:"paymentStatus" example:"paid"`
}

// CancelRequest payload of a cancellation.
// swagger:model CancelRequest
type CancelRequest struct {
	Reason string `json:"reason"`
}

// Pagination block of a paginated listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResponse paginated order listing.
// swagger:model OrderListResponse
type ListResponse struct {
	Data       []Order    `json:"data"`
	Pagination Pagination `json:"pagination"`
}
