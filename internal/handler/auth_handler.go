package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"zoolip/portal/internal/guard"
	"zoolip/portal/internal/handler/middleware"
	"zoolip/portal/internal/service"
	"zoolip/portal/pkg/response"
)

type AuthHandler struct {
	authService  service.AuthService
	routes       guard.Routes
	cookieName   string
	cookieSecure bool
}

func NewAuthHandler(authService service.AuthService, routes guard.Routes, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		routes:       routes,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, "invalid credentials")
		case errors.Is(err, service.ErrBootstrapDisabled):
			response.Error(c, http.StatusNotFound, http.StatusNotFound, err.Error())
		default:
			response.InternalError(c, "login failed")
		}
		return
	}

	maxAge := max(int(time.Until(session.ExpiresAt).Seconds()), 1)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, session.Token, maxAge, "/", "", h.cookieSecure, true)
	response.Success(c, session)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	credential := middleware.Credential(c, h.cookieName)
	if err := h.authService.Logout(c.Request.Context(), credential); err != nil {
		response.InternalError(c, "logout failed")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	response.Success(c, nil)
}

// Me returns the identity resolved by the guard.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, err := getIdentityFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid identity context")
		return
	}
	response.Success(c, identity)
}

// Routes lists the UI routes the caller's role may open.
func (h *AuthHandler) Routes(c *gin.Context) {
	identity, err := getIdentityFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid identity context")
		return
	}
	response.Success(c, gin.H{
		"role":   identity.Role,
		"routes": h.routes.Accessible(identity.Role),
	})
}
