package controllers

import (
	"net/http"

	"github.com/amaurycolochos7/shopp-kingice/middleware"
	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginRequest represents the request body for POST /api/admin/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest represents the request body for PUT /api/admin/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// AdminController serves the admin session endpoints
type AdminController struct {
	auth   *services.AuthService
	logger *zap.Logger
	errorResponder
}

// NewAdminController creates an AdminController
func NewAdminController(auth *services.AuthService, logger *zap.Logger, exposeDetails bool) *AdminController {
	return &AdminController{
		auth:           auth,
		logger:         logger,
		errorResponder: newErrorResponder(logger, exposeDetails),
	}
}

// Login handles POST /api/admin/login
func (ac *AdminController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ac.auth.Login(c.Request.Context(), services.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		ac.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// Logout handles POST /api/admin/logout - closes the session behind the token
func (ac *AdminController) Logout(c *gin.Context) {
	token, err := middleware.GetAccessToken(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	if err := ac.auth.Logout(c.Request.Context(), token); err != nil {
		ac.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /api/admin/me
func (ac *AdminController) Me(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}

	admin, err := ac.auth.Me(c.Request.Context(), principal.ID)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, admin)
}

// ChangePassword handles PUT /api/admin/password
func (ac *AdminController) ChangePassword(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := ac.auth.ChangePassword(c.Request.Context(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		ac.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Password updated"})
}
