package auth

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gasflowhq/gasflow-api/internal/httpx"
	"github.com/gasflowhq/gasflow-api/internal/user"
)

const minPasswordLen = 6

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Handlers struct {
	users   user.Repository
	tokens  *TokenIssuer
	revoked TokenStore
	verbose bool
}

func NewHandlers(users user.Repository, tokens *TokenIssuer, revoked TokenStore, verbose bool) *Handlers {
	return &Handlers{users: users, tokens: tokens, revoked: revoked, verbose: verbose}
}

// LoginRequest credentials payload.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    example:"jane@example.com"`
	Password string `json:"password" example:"s3cret!"`
}

// RegisterRequest signup payload.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone"`
	Role      string   `json:"role"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	return strings.TrimPrefix(h, "Bearer ")
}

// remaining TTL of a token, used when revoking it
func (h *Handlers) revokeTTL(token string) time.Duration {
	if claims, err := h.tokens.Verify(token); err == nil && claims.ExpiresAt != nil {
		if d := time.Until(claims.ExpiresAt.Time); d > 0 {
			return d
		}
	}
	return tokenTTL
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body auth.LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} httpx.HTTPError
// @Failure 401 {object} httpx.HTTPError
// @Router /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		httpx.Error(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	// Lookup and hash failures answer identically so the endpoint
	// cannot be used to enumerate accounts.
	u, err := h.users.GetActiveByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httpx.Error(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		httpx.Internal(c, h.verbose, "Login failed", err)
		return
	}
	if !user.CheckPassword(u.Password, req.Password) {
		httpx.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		httpx.Internal(c, h.verbose, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    u,
	})
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body auth.RegisterRequest true "Account"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} httpx.HTTPError
// @Router /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" || req.Phone == "" {
		httpx.Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !emailRx.MatchString(req.Email) {
		httpx.Error(c, http.StatusBadRequest, "Invalid email format")
		return
	}
	if len(req.Password) < minPasswordLen {
		httpx.Error(c, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}
	role := req.Role
	if role == "" {
		role = user.RoleCustomer
	}
	if !user.ValidRole(role) {
		httpx.Error(c, http.StatusBadRequest, "Invalid role")
		return
	}

	hash, err := user.HashPassword(req.Password)
	if err != nil {
		httpx.Internal(c, h.verbose, "Registration failed", err)
		return
	}
	u := &user.User{
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
	if err := h.users.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			httpx.Error(c, http.StatusBadRequest, "Email already exists")
			return
		}
		httpx.Internal(c, h.verbose, "Registration failed", err)
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		httpx.Internal(c, h.verbose, "Registration failed", err)
		return
	}
	created, err := h.users.GetByID(c.Request.Context(), u.ID)
	if err != nil {
		httpx.Internal(c, h.verbose, "Registration failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    created,
	})
}

// authenticate resolves the bearer token into an active user, checking
// the revocation store first. It writes the error response itself and
// returns nil on failure.
func (h *Handlers) authenticate(c *gin.Context) (*user.User, string) {
	token := bearerToken(c)
	if token == "" {
		httpx.Error(c, http.StatusUnauthorized, "No token provided")
		return nil, ""
	}
	revoked, err := h.revoked.IsRevoked(c.Request.Context(), token)
	if err != nil {
		httpx.Internal(c, h.verbose, "Token verification failed", err)
		return nil, ""
	}
	if revoked {
		httpx.Error(c, http.StatusUnauthorized, "Token has been invalidated")
		return nil, ""
	}
	claims, err := h.tokens.Verify(token)
	if err != nil || claims.Type != "" {
		httpx.Error(c, http.StatusUnauthorized, "Invalid token")
		return nil, ""
	}
	u, err := h.users.GetActiveByID(c.Request.Context(), claims.UserID)
	if err != nil {
		httpx.Error(c, http.StatusUnauthorized, "Invalid token")
		return nil, ""
	}
	return u, token
}

// VerifyToken godoc
// @Summary Verify the bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} httpx.HTTPError
// @Router /auth/verify [get]
func (h *Handlers) VerifyToken(c *gin.Context) {
	u, _ := h.authenticate(c)
	if u == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Token is valid",
		"user":    u,
	})
}

// Logout godoc
// @Summary Revoke the bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} httpx.HTTPError
// @Router /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		httpx.Error(c, http.StatusUnauthorized, "No token provided")
		return
	}
	if err := h.revoked.Revoke(c.Request.Context(), token, h.revokeTTL(token)); err != nil {
		httpx.Internal(c, h.verbose, "Logout failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
		"success": true,
	})
}

// Refresh godoc
// @Summary Exchange a valid token for a fresh one
// @Description The old token is revoked.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} httpx.HTTPError
// @Router /auth/refresh [post]
func (h *Handlers) Refresh(c *gin.Context) {
	u, old := h.authenticate(c)
	if u == nil {
		return
	}
	token, err := h.tokens.Issue(u)
	if err != nil {
		httpx.Internal(c, h.verbose, "Token refresh failed", err)
		return
	}
	if err := h.revoked.Revoke(c.Request.Context(), old, h.revokeTTL(old)); err != nil {
		httpx.Internal(c, h.verbose, "Token refresh failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"token":   token,
		"user":    u,
	})
}

// ChangePasswordRequest payload.
// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword godoc
// @Summary Change the password of the authenticated user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body auth.ChangePasswordRequest true "Passwords"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httpx.HTTPError
// @Failure 401 {object} httpx.HTTPError
// @Router /auth/change-password [post]
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.Error(c, http.StatusBadRequest, "Current password and new password are required")
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		httpx.Error(c, http.StatusBadRequest, "New password must be at least 6 characters long")
		return
	}

	u, _ := h.authenticate(c)
	if u == nil {
		return
	}
	if !user.CheckPassword(u.Password, req.CurrentPassword) {
		httpx.Error(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := user.HashPassword(req.NewPassword)
	if err != nil {
		httpx.Internal(c, h.verbose, "Password change failed", err)
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), u.ID, hash); err != nil {
		httpx.Internal(c, h.verbose, "Password change failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// ForgotPasswordRequest payload.
// swagger:model ForgotPasswordRequest
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword godoc
// @Summary Request a password reset token
// @Description Always answers success so the endpoint cannot confirm
// @Description whether an email is registered. The reset token is
// @Description logged server-side; wiring a mailer is deliberately out
// @Description of scope.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body auth.ForgotPasswordRequest true "Email"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httpx.HTTPError
// @Router /auth/forgot-password [post]
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		httpx.Error(c, http.StatusBadRequest, "Email is required")
		return
	}

	const msg = "If the email exists, a password reset link has been sent"
	u, err := h.users.GetActiveByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": msg})
		return
	}

	reset, err := h.tokens.IssueReset(u)
	if err != nil {
		httpx.Internal(c, h.verbose, "Forgot password request failed", err)
		return
	}
	log.Printf("[auth] password reset token for %s: %s", u.Email, reset)

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// ResetPasswordRequest payload.
// swagger:model ResetPasswordRequest
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword godoc
// @Summary Reset a password with a reset token
// @Description The reset token is single-use: it is revoked on success.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body auth.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httpx.HTTPError
// @Router /auth/reset-password [post]
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		httpx.Error(c, http.StatusBadRequest, "Token and new password are required")
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		httpx.Error(c, http.StatusBadRequest, "New password must be at least 6 characters long")
		return
	}

	ctx := c.Request.Context()
	claims, err := h.tokens.Verify(req.Token)
	if err != nil || claims.Type != typePasswordReset {
		httpx.Error(c, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	revoked, err := h.revoked.IsRevoked(ctx, req.Token)
	if err != nil {
		httpx.Internal(c, h.verbose, "Password reset failed", err)
		return
	}
	if revoked {
		httpx.Error(c, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	u, err := h.users.GetActiveByID(ctx, claims.UserID)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "Invalid reset token")
		return
	}

	hash, err := user.HashPassword(req.NewPassword)
	if err != nil {
		httpx.Internal(c, h.verbose, "Password reset failed", err)
		return
	}
	if err := h.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		httpx.Internal(c, h.verbose, "Password reset failed", err)
		return
	}
	// burn the token so it cannot reset the password twice
	if err := h.revoked.Revoke(ctx, req.Token, h.revokeTTL(req.Token)); err != nil {
		httpx.Internal(c, h.verbose, "Password reset failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
