package user

import "time"

const (
	RoleCustomer = "customer"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the fixed set.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// bcrypt hash, never serialized
	Password  string    `json:"-"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Address   *string   `json:"address,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateUserRequest payload of creation.
// swagger:model CreateUserRequest
type CreateUserRequest struct {
	Email     string   `json:"email"     example:"jane@example.com"`
	Password  string   `json:"password"  example:"s3cret!"`
	FirstName string   `json:"firstName" example:"Jane"`
	LastName  string   `json:"lastName"  example:"Doe"`
	Phone     string   `json:"phone"     example:"+254700000000"`
	Role      string   `json:"role"      example:"customer"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// UpdateUserRequest payload of partial update. Pointer fields are
// left untouched when absent.
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	Email     *string  `json:"email"`
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Phone     *string  `json:"phone"`
	Role      *string  `json:"role"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsActive  *bool    `json:"isActive"`
}

// UpdatePasswordRequest gates a password change on the current one.
// swagger:model UpdatePasswordRequest
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
