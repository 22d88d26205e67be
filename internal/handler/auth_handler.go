package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"account_service/internal/apperror"
	"account_service/internal/middleware"
	"account_service/internal/model"
	"account_service/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrInvalidBody is returned when a request body is not the expected JSON object
var ErrInvalidBody = apperror.NewBadRequest("INVALID_BODY", "Invalid request body")

// logoutGrace is how far in the past the logout cookie expires
const logoutGrace = 10 * time.Second

// AuthHandler handles authentication requests
type AuthHandler struct {
	service      service.AuthService
	cookieExpire time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. Session cookies live for
// cookieExpire and are marked Secure when secureCookie is set.
func NewAuthHandler(s service.AuthService, cookieExpire time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: s, cookieExpire: cookieExpire, secureCookie: secureCookie}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Mobile   string `json:"mobile"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Mobile:   req.Mobile,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"user": user},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.sendToken(c, user, token)
}

// Logout overwrites the session cookie with an expired placeholder
func (h *AuthHandler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(-logoutGrace),
		HttpOnly: true,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{},
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(service.ErrNotAuthorized)
		return
	}

	user, err := h.service.Me(c.Request.Context(), current.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   user,
	})
}

func (h *AuthHandler) UpdateDetails(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(service.ErrNotAuthorized)
		return
	}

	var req struct {
		Name   string `json:"name"`
		Mobile string `json:"mobile"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateDetails(c.Request.Context(), current.ID, req.Name, req.Mobile)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(service.ErrNotAuthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.service.UpdatePassword(c.Request.Context(), current.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.sendToken(c, user, token)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}

	base := resetBaseURL(c)
	result, err := h.service.ForgotPassword(c.Request.Context(), req.Email, func(token string) string {
		return base + token
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.ResetPassword(c.Request.Context(), c.Param("resettoken"), req.NewPassword)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"user": user},
	})
}

// RegisterAuthRoutes registers auth routes. protect guards the routes
// that act on the caller's own account.
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, protect gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/logout", h.Logout)
		authGroup.POST("/forgotpassword", h.ForgotPassword)
		authGroup.PUT("/resetpassword/:resettoken", h.ResetPassword)

		authGroup.GET("/me", protect, h.Me)
		authGroup.PUT("/updatedetails", protect, h.UpdateDetails)
		authGroup.PUT("/updatepassword", protect, h.UpdatePassword)
	}
}

// sendToken sets the session cookie and returns the token with the account
func (h *AuthHandler) sendToken(c *gin.Context, user *model.User, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieExpire),
		HttpOnly: true,
		Secure:   h.secureCookie,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": token,
			"user":  user,
		},
	})
}

// bindJSON decodes the request body into dst. A missing body leaves dst
// empty so the service reports the missing fields.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(&apperror.AppError{
			Status:   ErrInvalidBody.Status,
			Code:     ErrInvalidBody.Code,
			Message:  ErrInvalidBody.Message,
			Internal: err,
		})
		return false
	}
	return true
}

func resetBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/api/v1/auth/resetpassword/"
}
