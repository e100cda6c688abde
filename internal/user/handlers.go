package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gasflowhq/gasflow-api/internal/httpx"
)

type Handlers struct {
	repo    Repository
	verbose bool
}

func NewHandlers(repo Repository, verbose bool) *Handlers {
	return &Handlers{repo: repo, verbose: verbose}
}

// List godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Success 200 {array} user.User
// @Router /users [get]
func (h *Handlers) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to fetch users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get godoc
// @Summary Get a user by id
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} user.User
// @Failure 404 {object} httpx.HTTPError
// @Router /users/{id} [get]
func (h *Handlers) Get(c *gin.Context) {
	u, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "User not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to fetch user", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Create godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body user.CreateUserRequest true "User"
// @Success 201 {object} user.User
// @Failure 400 {object} httpx.HTTPError
// @Router /users [post]
func (h *Handlers) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" || req.Phone == "" {
		httpx.Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	role := req.Role
	if role == "" {
		role = RoleCustomer
	}
	if !ValidRole(role) {
		httpx.Error(c, http.StatusBadRequest, "Invalid role")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to create user", err)
		return
	}

	u := &User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      role,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		IsActive:  true,
	}
	if err := h.repo.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.Error(c, http.StatusBadRequest, "Email already exists")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to create user", err)
		return
	}

	created, err := h.repo.GetByID(c.Request.Context(), u.ID)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to create user", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body user.UpdateUserRequest true "Fields to update"
// @Success 200 {object} user.User
// @Failure 400 {object} httpx.HTTPError
// @Failure 404 {object} httpx.HTTPError
// @Router /users/{id} [put]
func (h *Handlers) Update(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "User not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to fetch user", err)
		return
	}

	if req.Role != nil && !ValidRole(*req.Role) {
		httpx.Error(c, http.StatusBadRequest, "Invalid role")
		return
	}

	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Address != nil {
		u.Address = req.Address
	}
	if req.Latitude != nil {
		u.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		u.Longitude = req.Longitude
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := h.repo.Update(c.Request.Context(), u); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			httpx.Error(c, http.StatusBadRequest, "Email already exists")
		case errors.Is(err, ErrNotFound):
			httpx.Error(c, http.StatusNotFound, "User not found")
		default:
			httpx.Internal(c, h.verbose, "Failed to update user", err)
		}
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdatePassword godoc
// @Summary Change a user's password
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body user.UpdatePasswordRequest true "Current and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httpx.HTTPError
// @Router /users/{id}/password [patch]
func (h *Handlers) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.Error(c, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	u, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "User not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to fetch user", err)
		return
	}

	if !CheckPassword(u.Password, req.CurrentPassword) {
		httpx.Error(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to update password", err)
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), u.ID, hash); err != nil {
		httpx.Internal(c, h.verbose, "Failed to update password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// Delete godoc
// @Summary Deactivate a user
// @Description Soft delete: the user is marked inactive, never removed.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httpx.HTTPError
// @Router /users/{id} [delete]
func (h *Handlers) Delete(c *gin.Context) {
	if err := h.repo.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "User not found")
			return
		}
		httpx.Internal(c, h.verbose, "Failed to delete user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated successfully"})
}

// ListByRole godoc
// @Summary List active users with a given role
// @Tags users
// @Produce json
// @Param role path string true "customer | driver | admin"
// @Success 200 {array} user.User
// @Failure 400 {object} httpx.HTTPError
// @Router /users/role/{role} [get]
func (h *Handlers) ListByRole(c *gin.Context) {
	role := c.Param("role")
	if !ValidRole(role) {
		httpx.Error(c, http.StatusBadRequest, "Invalid role")
		return
	}
	users, err := h.repo.ListByRole(c.Request.Context(), role)
	if err != nil {
		httpx.Internal(c, h.verbose, "Failed to fetch users by role", err)
		return
	}
	c.JSON(http.StatusOK, users)
}
