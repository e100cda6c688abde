// Package catalog holds the supplier and gas cylinder side of the
// system: what can be ordered, by whom it is supplied, and how much of
// it is on hand.
package catalog

import "time"

type Supplier struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contactPerson"`
	Phone         string    `json:"phone"`
	Email         *string   `json:"email,omitempty"`
	Address       string    `json:"address"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	IsActive      bool      `json:"isActive"`
	// populated on the supplier listing only
	GasCylinders []GasCylinder `json:"gasCylinders,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type GasCylinder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// NUMERIC columns travel as strings to avoid float rounding
	Weight        string    `json:"weight"`
	Price         string    `json:"price"`
	Description   *string   `json:"description,omitempty"`
	Brand         *string   `json:"brand,omitempty"`
	IsAvailable   bool      `json:"isAvailable"`
	StockQuantity int       `json:"stockQuantity"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
	SupplierID    string    `json:"supplierId"`
	Supplier      *Supplier `json:"supplier,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateSupplierRequest payload of creation.
// swagger:model CreateSupplierRequest
type CreateSupplierRequest struct {
	Name          string   `json:"name"          example:"Nairobi Gas Ltd"`
	ContactPerson string   `json:"contactPerson" example:"Peter K."`
	Phone         string   `json:"phone"         example:"+254711000000"`
	Email         *string  `json:"email"`
	Address       string   `json:"address"       example:"Industrial Area, Nairobi"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

// CreateCylinderRequest payload of creation.
// swagger:model CreateCylinderRequest
type CreateCylinderRequest struct {
	Name          string  `json:"name"       example:"K-Gas 13kg"`
	Weight        string  `json:"weight"     example:"13.00"`
	Price         string  `json:"price"      example:"3200.00"`
	Description   *string `json:"description"`
	Brand         *string `json:"brand"`
	SupplierID    string  `json:"supplierId"`
	StockQuantity int     `json:"stockQuantity" example:"25"`
	ImageURL      *string `json:"imageUrl"`
}

// UpdateCylinderRequest payload of partial update.
// swagger:model UpdateCylinderRequest
type UpdateCylinderRequest struct {
	Name          *string `json:"name"`
	Weight        *string `json:"weight"`
	Price         *string `json:"price"`
	Description   *string `json:"description"`
	Brand         *string `json:"brand"`
	IsAvailable   *bool   `json:"isAvailable"`
	StockQuantity *int    `json:"stockQuantity"`
	ImageURL      *string `json:"imageUrl"`
}
