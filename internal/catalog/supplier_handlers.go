package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gasflowhq/gasflow-api/internal/httpx"
)

type SupplierHandlers struct {
	repo    SupplierRepository
	verbose bool
}

func NewSupplierHandlers(repo SupplierRepository, verbose bool) *SupplierHandlers {
	return &SupplierHandlers{repo: repo, verbose: verbose}
}

// List godoc
// @Summary List active suppliers with their cylinders
// @Tags suppliers
// @Produce json
// @Success 200 {array} catalog.Supplier
// @Router /suppliers [get]
func (h *SupplierHandlers) List(c *gin.Context) {
	suppliers, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to fetch suppliers", err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// Create godoc
// @Summary Create a supplier
// @Tags suppliers
// @Accept json
// @Produce json
// @Param supplier body catalog.CreateSupplierRequest true "Supplier"
// @Success 201 {object} catalog.Supplier
// @Failure 400 {object} httpx.HTTPError
// @Router /suppliers [post]
func (h *SupplierHandlers) Create(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.ContactPerson == "" || req.Phone == "" || req.Address == "" {
		httpx.Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	s := &Supplier{
		ID:            uuid.NewString(),
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		IsActive:      true,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		httpx.Internal(c, h.verbose, "Failed to create supplier", err)
		return
	}

	created, err := h.repo.GetByID(c.Request.Context(), s.ID)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to create supplier", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
