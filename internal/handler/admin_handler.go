package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"zoolip/portal/internal/handler/middleware"
	"zoolip/portal/internal/model"
	"zoolip/portal/internal/service"
	"zoolip/portal/pkg/response"
)

type AdminHandler struct {
	inviteService service.InviteService
}

func NewAdminHandler(inviteService service.InviteService) *AdminHandler {
	return &AdminHandler{inviteService: inviteService}
}

type CreateInviteRequest struct {
	Email     string `json:"email" binding:"required"`
	Role      string `json:"role" binding:"required"`
	ExpiresIn string `json:"expires_in,omitempty"` // Go duration, e.g. "12h"
}

// CreateInvite issues an invite token for an administrator or system account.
func (h *AdminHandler) CreateInvite(c *gin.Context) {
	identity, err := getIdentityFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid identity context")
		return
	}

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var expiresIn time.Duration
	if req.ExpiresIn != "" {
		expiresIn, err = time.ParseDuration(req.ExpiresIn)
		if err != nil || expiresIn <= 0 {
			response.BadRequest(c, "invalid expires_in")
			return
		}
	}

	created, err := h.inviteService.CreateInvite(c.Request.Context(), service.CreateInviteInput{
		Email:        req.Email,
		Role:         model.Role(req.Role),
		ExpiresIn:    expiresIn,
		SystemCookie: middleware.CredentialFrom(c),
		ActorID:      identity.ID,
		ActorRole:    identity.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteAlreadyPending):
			response.Conflict(c, err.Error())
		case errors.Is(err, service.ErrRoleNotGrantable):
			response.Forbidden(c, err.Error())
		case errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrInvalidRole),
			errors.Is(err, service.ErrInvalidExpiry):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to create invite")
		}
		return
	}

	response.Success(c, created)
}

// InviteExists reports whether the address has a pending invite.
func (h *AdminHandler) InviteExists(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email is required")
		return
	}
	response.Success(c, gin.H{"exists": h.inviteService.InviteExists(c.Request.Context(), email)})
}

// SweepInvites drops expired invites now instead of waiting for the sweeper.
func (h *AdminHandler) SweepInvites(c *gin.Context) {
	removed := h.inviteService.Sweep(c.Request.Context())
	response.Success(c, gin.H{"removed": removed})
}

// ListInviteEvents returns the audit trail for one address.
func (h *AdminHandler) ListInviteEvents(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email is required")
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.inviteService.ListEvents(c.Request.Context(), email, limit)
	if err != nil {
		if errors.Is(err, service.ErrAuditDisabled) {
			response.Error(c, 404, 404, err.Error())
			return
		}
		response.InternalError(c, "failed to list invite events")
		return
	}

	response.Success(c, events)
}
