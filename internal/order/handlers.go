package order

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gasflowhq/gasflow-api/internal/catalog"
	"github.com/gasflowhq/gasflow-api/internal/httpx"
	"github.com/gasflowhq/gasflow-api/internal/user"
)

// attempts at inserting a fresh order number before giving up
const maxNumberRetries = 5

type Handlers struct {
	repo      Repository
	users     user.Repository
	cylinders catalog.CylinderRepository
	baseFee   decimal.Decimal
	verbose   bool
}

func NewHandlers(repo Repository, users user.Repository, cylinders catalog.CylinderRepository, baseFee decimal.Decimal, verbose bool) *Handlers {
	return &Handlers{
		repo:      repo,
		users:     users,
		cylinders: cylinders,
		baseFee:   baseFee,
		verbose:   verbose,
	}
}

// deliveryFee is the pricing hook: flat for now, the coordinates are
// here for distance-based pricing later.
func (h *Handlers) deliveryFee(lat, lng float64) decimal.Decimal {
	return h.baseFee.Round(2)
}

// Create godoc
// @Summary Place an order
// @Description Validates the cart, prices it, and writes order, items
// @Description and stock decrements atomically.
// @Tags orders
// @Accept json
// @Produce json
// @Param order body order.CreateOrderRequest true "Order"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} httpx.HTTPError
// @Failure 404 {object} httpx.HTTPError
// @Router /orders [post]
func (h *Handlers) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CustomerID == "" {
		httpx.Error(c, http.StatusBadRequest, "Customer ID is required.")
		return
	}
	if len(req.Items) == 0 {
		httpx.Error(c, http.StatusBadRequest, "Items are required and must be a non-empty array.")
		return
	}
	if req.DeliveryAddress == "" || req.DeliveryLatitude == nil || req.DeliveryLongitude == nil {
		httpx.Error(c, http.StatusBadRequest, "Delivery address, latitude, and longitude are required.")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "Customer not found.")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to create order.", err)
		return
	}

	subtotal := decimal.Zero
	items := make([]Item, 0, len(req.Items))
	for _, line := range req.Items {
		if line.CylinderID == "" || line.Quantity <= 0 {
			httpx.Error(c, http.StatusBadRequest,
				"Each item must have a valid cylinderId and a positive numeric quantity.")
			return
		}

		cyl, err := h.cylinders.GetByID(ctx, line.CylinderID)
		if err != nil {
			if errors.Is(err, catalog.ErrCylinderNotFound) {
				httpx.Error(c, http.StatusNotFound,
					fmt.Sprintf("Gas cylinder with ID '%s' not found.", line.CylinderID))
				return
			}
			httpx.Internal(c, h.verbose, "Failed to create order.", err)
			return
		}
		if !cyl.IsAvailable {
			httpx.Error(c, http.StatusBadRequest,
				fmt.Sprintf("Gas cylinder '%s' is not available.", cyl.Name))
			return
		}
		if cyl.StockQuantity < line.Quantity {
			httpx.Error(c, http.StatusBadRequest,
				fmt.Sprintf("Insufficient stock for '%s'. Available: %d, Requested: %d.",
					cyl.Name, cyl.StockQuantity, line.Quantity))
			return
		}

		unitPrice, err := decimal.NewFromString(cyl.Price)
		if err != nil {
			httpx.Internal(c, h.verbose, "Failed to create order.", err)
			return
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)

		items = append(items, Item{
			ID:            uuid.NewString(),
			GasCylinderID: cyl.ID,
			Quantity:      line.Quantity,
			UnitPrice:     unitPrice.StringFixed(2),
			TotalPrice:    lineTotal.StringFixed(2),
		})
	}

	fee := h.deliveryFee(*req.DeliveryLatitude, *req.DeliveryLongitude)
	total := subtotal.Add(fee).Round(2)

	o := &Order{
		ID:                  uuid.NewString(),
		CustomerID:          req.CustomerID,
		Status:              StatusPending,
		PaymentStatus:       PaymentPending,
		TotalAmount:         total.StringFixed(2),
		DeliveryFee:         fee.StringFixed(2),
		DeliveryAddress:     req.DeliveryAddress,
		DeliveryLatitude:    req.DeliveryLatitude,
		DeliveryLongitude:   req.DeliveryLongitude,
		SpecialInstructions: req.SpecialInstructions,
	}

	var err error
	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		o.OrderNumber = NewOrderNumber()
		err = h.repo.Create(ctx, o, items)
		if !errors.Is(err, ErrOrderNumberTaken) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			// lost a race against a concurrent order for the same cylinder
			httpx.Error(c, http.StatusBadRequest, "Insufficient stock.")
			return
		}
		if errors.Is(err, ErrOrderNumberTaken) {
			httpx.Error(c, http.StatusConflict, "Duplicate order number or conflict detected.")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to create order.", err)
		return
	}

	created, err := h.repo.GetByID(ctx, o.ID)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to create order.", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Order created successfully",
		"order":       created,
		"orderNumber": created.OrderNumber,
		"totalAmount": created.TotalAmount,
	})
}

// List godoc
// @Summary List orders
// @Tags orders
// @Produce json
// @Param status query string false "Filter by status"
// @Param customerId query string false "Filter by customer"
// @Param driverId query string false "Filter by driver"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param sortBy query string false "createdAt | updatedAt | totalAmount | orderNumber | status"
// @Param sortOrder query string false "asc | desc"
// @Success 200 {object} order.ListResponse
// @Router /orders [get]
func (h *Handlers) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	q := Query{
		Status:     c.Query("status"),
		CustomerID: c.Query("customerId"),
		DriverID:   c.Query("driverId"),
		Page:       page,
		Limit:      limit,
		SortBy:     c.DefaultQuery("sortBy", "createdAt"),
		SortOrder:  c.DefaultQuery("sortOrder", "desc"),
	}
	if q.Status != "" && !ValidStatus(q.Status) {
		httpx.Error(c, http.StatusBadRequest, "Invalid status filter.")
		return
	}

	orders, total, err := h.repo.List(c.Request.Context(), q)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to fetch orders.", err)
		return
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 10
	}
	totalPages := (total + q.Limit - 1) / q.Limit

	c.JSON(http.StatusOK, ListResponse{
		Data: orders,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Get godoc
// @Summary Get an order with its full graph
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} httpx.HTTPError
// @Router /orders/{id} [get]
func (h *Handlers) Get(c *gin.Context) {
	o, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "Order not found.")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to fetch order.", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// UpdateStatus godoc
// @Summary Transition an order's status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body order.UpdateStatusRequest true "Transition"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} httpx.HTTPError
// @Failure 404 {object} httpx.HTTPError
// @Router /orders/{id}/status [put]
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status == "" {
		httpx.Error(c, http.StatusBadRequest, "Status is required.")
		return
	}
	if !ValidStatus(req.Status) {
		httpx.Error(c, http.StatusBadRequest,
			"Invalid status provided. Valid statuses: "+strings.Join(Statuses, ", "))
		return
	}

	ctx := c.Request.Context()
	o, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "Order not found.")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to fetch order.", err)
		return
	}

	upd := StatusUpdate{Status: req.Status}

	// A driver supplied with any transition is validated and attached.
	if req.DriverID != nil && *req.DriverID != "" {
		if _, err := h.users.GetByID(ctx, *req.DriverID); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httpx.Error(c, http.StatusNotFound, "Driver not found.")
				return
			}
			httpx.Internal(c, h.verbose, "Failed to update order status.", err)
			return
		}
		upd.DriverID = req.DriverID
	}

	switch req.Status {
	case StatusAssigned:
		if upd.DriverID == nil && o.DriverID == nil {
			httpx.Error(c, http.StatusBadRequest,
				"Driver ID is required when assigning order if not already assigned.")
			return
		}
	case StatusInTransit:
		if o.DriverID == nil {
			httpx.Error(c, http.StatusBadRequest,
				"Order must be assigned to a driver before marking as in transit.")
			return
		}
	case StatusDelivered:
		upd.Delivered = true
	}

	if req.EstimatedDeliveryTime != nil {
		t, err := time.Parse(time.RFC3339, *req.EstimatedDeliveryTime)
		if err != nil {
			httpx.Error(c, http.StatusBadRequest, "Invalid estimated delivery time format.")
			return
		}
		upd.EstimatedDeliveryTime = &t
	}

	if err := h.repo.UpdateStatus(ctx, o.ID, upd); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "Order not found.")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to update order status.", err)
		return
	}

	updated, err := h.repo.GetByID(ctx, o.ID)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to update order status.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully.",
		"order":   updated,
	})
}

// UpdatePayment godoc
// @Summary Update an order's payment status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body order.UpdatePaymentRequest true "Payment status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} httpx.HTTPError
// @Failure 404 {object} httpx.HTTPError
// @Router /orders/{id}/payment [put]
func (h *Handlers) UpdatePayment(c *gin.Context) {
	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || !ValidPaymentStatus(req.PaymentStatus) {
		httpx.Error(c, http.StatusBadRequest,
			"Valid payment status is required. Valid statuses: "+strings.Join(PaymentStatuses, ", "))
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.UpdatePayment(ctx, c.Param("id"), req.PaymentStatus); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "Order not found.")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to update payment status.", err)
		return
	}

	updated, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to update payment status.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment status updated successfully.",
		"order":   updated,
	})
}

// Cancel godoc
// @Summary Cancel an order
// @Description Allowed while pending or confirmed; restores stock.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body order.CancelRequest false "Reason"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} httpx.HTTPError
// @Failure 404 {object} httpx.HTTPError
// @Router /orders/{id}/cancel [put]
func (h *Handlers) Cancel(c *gin.Context) {
	var req CancelRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	ctx := c.Request.Context()
	o, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "Order not found.")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to cancel order.", err)
		return
	}
	if o.Status != StatusPending && o.Status != StatusConfirmed {
		httpx.Error(c, http.StatusBadRequest, "Order cannot be cancelled at this stage")
		return
	}

	note := "Order cancelled."
	if req.Reason != "" {
		note = "Cancelled: " + req.Reason
	}
	if err := h.repo.Cancel(ctx, o.ID, note); err != nil {
		if errors.Is(err, ErrNotCancellable) {
			httpx.Error(c, http.StatusBadRequest, "Order cannot be cancelled at this stage")
			return
		}
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "Order not found.")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to cancel order.", err)
		return
	}

	cancelled, err := h.repo.GetByID(ctx, o.ID)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to cancel order.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully.",
		"order":   cancelled,
	})
}

// Delete godoc
// @Summary Delete a cancelled order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httpx.HTTPError
// @Failure 404 {object} httpx.HTTPError
// @Router /orders/{id} [delete]
func (h *Handlers) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Error(c, http.StatusNotFound, "Order not found.")
		case errors.Is(err, ErrNotDeletable):
			httpx.Error(c, http.StatusBadRequest, "Only cancelled orders can be deleted.")
		default:
			httpx.Internal(c, h.verbose, "Failed to delete order.", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully."})
}
