package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gasflowhq/gasflow-api/internal/httpx"
)

type CylinderHandlers struct {
	cylinders CylinderRepository
	suppliers SupplierRepository
	verbose   bool
}

func NewCylinderHandlers(cylinders CylinderRepository, suppliers SupplierRepository, verbose bool) *CylinderHandlers {
	return &CylinderHandlers{cylinders: cylinders, suppliers: suppliers, verbose: verbose}
}

// normalizeAmount parses a decimal string and renders it with two
// fractional digits, rejecting negatives.
func normalizeAmount(s string) (string, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", err
	}
	if d.IsNegative() {
		return "", errors.New("negative amount")
	}
	return d.Round(2).StringFixed(2), nil
}

// List godoc
// @Summary List available gas cylinders
// @Tags gas-cylinders
// @Produce json
// @Success 200 {array} catalog.GasCylinder
// @Router /gas-cylinders [get]
func (h *CylinderHandlers) List(c *gin.Context) {
	cylinders, err := h.cylinders.ListAvailable(c.Request.Context())
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to fetch gas cylinders", err)
		return
	}
	c.JSON(http.StatusOK, cylinders)
}

// Get godoc
// @Summary Get a gas cylinder by id
// @Tags gas-cylinders
// @Produce json
// @Param id path string true "Cylinder ID"
// @Success 200 {object} catalog.GasCylinder
// @Failure 404 {object} httpx.HTTPError
// @Router /gas-cylinders/{id} [get]
func (h *CylinderHandlers) Get(c *gin.Context) {
	cyl, err := h.cylinders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrCylinderNotFound) {
			httpx.Error(c, http.StatusNotFound, "Gas cylinder not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to fetch gas cylinder", err)
		return
	}
	c.JSON(http.StatusOK, cyl)
}

// Create godoc
// @Summary Create a gas cylinder
// @Tags gas-cylinders
// @Accept json
// @Produce json
// @Param cylinder body catalog.CreateCylinderRequest true "Cylinder"
// @Success 201 {object} catalog.GasCylinder
// @Failure 400 {object} httpx.HTTPError
// @Router /gas-cylinders [post]
func (h *CylinderHandlers) Create(c *gin.Context) {
	var req CreateCylinderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Weight == "" || req.Price == "" || req.SupplierID == "" {
		httpx.Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	weight, err := normalizeAmount(req.Weight)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid weight")
		return
	}
	price, err := normalizeAmount(req.Price)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid price")
		return
	}
	if req.StockQuantity < 0 {
		httpx.Error(c, http.StatusBadRequest, "Stock quantity must be non-negative")
		return
	}

	if _, err := h.suppliers.GetByID(c.Request.Context(), req.SupplierID); err != nil {
		if errors.Is(err, ErrSupplierNotFound) {
			httpx.Error(c, http.StatusBadRequest, "Supplier not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to create gas cylinder", err)
		return
	}

	cyl := &GasCylinder{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Weight:        weight,
		Price:         price,
		Description:   req.Description,
		Brand:         req.Brand,
		IsAvailable:   true,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		SupplierID:    req.SupplierID,
	}
	if err := h.cylinders.Create(c.Request.Context(), cyl); err != nil {
		httpx.Internal(c, h.verbose, "Failed to create gas cylinder", err)
		return
	}

	created, err := h.cylinders.GetByID(c.Request.Context(), cyl.ID)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to create gas cylinder", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Update a gas cylinder
// @Tags gas-cylinders
// @Accept json
// @Produce json
// @Param id path string true "Cylinder ID"
// @Param cylinder body catalog.UpdateCylinderRequest true "Fields to update"
// @Success 200 {object} catalog.GasCylinder
// @Failure 400 {object} httpx.HTTPError
// @Failure 404 {object} httpx.HTTPError
// @Router /gas-cylinders/{id} [put]
func (h *CylinderHandlers) Update(c *gin.Context) {
	var req UpdateCylinderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	cyl, err := h.cylinders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrCylinderNotFound) {
			httpx.Error(c, http.StatusNotFound, "Gas cylinder not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to fetch gas cylinder", err)
		return
	}

	if req.Name != nil {
		cyl.Name = *req.Name
	}
	if req.Weight != nil {
		w, err := normalizeAmount(*req.Weight)
		if err != nil {
			httpx.Error(c, http.StatusBadRequest, "Invalid weight")
			return
		}
		cyl.Weight = w
	}
	if req.Price != nil {
		p, err := normalizeAmount(*req.Price)
		if err != nil {
			httpx.Error(c, http.StatusBadRequest, "Invalid price")
			return
		}
		cyl.Price = p
	}
	if req.Description != nil {
		cyl.Description = req.Description
	}
	if req.Brand != nil {
		cyl.Brand = req.Brand
	}
	if req.IsAvailable != nil {
		cyl.IsAvailable = *req.IsAvailable
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			httpx.Error(c, http.StatusBadRequest, "Stock quantity must be non-negative")
			return
		}
		cyl.StockQuantity = *req.StockQuantity
	}
	if req.ImageURL != nil {
		cyl.ImageURL = req.ImageURL
	}

	if err := h.cylinders.Update(c.Request.Context(), cyl); err != nil {
		if errors.Is(err, ErrCylinderNotFound) {
			httpx.Error(c, http.StatusNotFound, "Gas cylinder not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to update gas cylinder", err)
		return
	}

	updated, err := h.cylinders.GetByID(c.Request.Context(), cyl.ID)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to update gas cylinder", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete a gas cylinder
// @Tags gas-cylinders
// @Produce json
// @Param id path string true "Cylinder ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httpx.HTTPError
// @Router /gas-cylinders/{id} [delete]
func (h *CylinderHandlers) Delete(c *gin.Context) {
	if err := h.cylinders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrCylinderNotFound) {
			httpx.Error(c, http.StatusNotFound, "Gas cylinder not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to delete gas cylinder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gas cylinder deleted successfully"})
}
