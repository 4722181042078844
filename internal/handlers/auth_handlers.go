package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness-service/internal/middleware"
	"wellness-service/internal/services"
)

// AuthHandlers exposes login, logout and account security endpoints
type AuthHandlers struct {
	auth *services.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(auth *services.AuthService) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login opens a session and returns its token
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Logged in", gin.H{
		"token": token,
		"role":  user.Role,
	})
}

// Logout revokes the presenting session
func (h *AuthHandlers) Logout(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if err := h.auth.Logout(c.Request.Context(), claims.SessionID); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Logged out", nil)
}

// Me returns the authenticated user's profile
func (h *AuthHandlers) Me(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "OK", middleware.CurrentUser(c))
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword rotates the password and revokes every session
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.auth.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Password changed", nil)
}

// RequestVerification issues and emails a fresh verification code
func (h *AuthHandlers) RequestVerification(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.auth.RequestEmailVerification(c.Request.Context(), user); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Verification code sent", nil)
}

type verifyRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

// Verify consumes the emailed code. The presenting session is revoked so
// the caller must log in again for a verified token.
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := middleware.CurrentUser(c)
	claims := middleware.CurrentClaims(c)
	if err := h.auth.VerifyEmail(c.Request.Context(), user, claims.SessionID, req.Code); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Email verified, please log in again", nil)
}
