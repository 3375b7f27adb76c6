package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"zoolip/portal/internal/invite"
	"zoolip/portal/internal/model"
	"zoolip/portal/internal/service"
	"zoolip/portal/pkg/response"
)

type InviteHandler struct {
	inviteService service.InviteService
}

func NewInviteHandler(inviteService service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

type ValidateInviteRequest struct {
	Token string `json:"token" binding:"required"`
}

type ValidateInviteResponse struct {
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	ExpiresAt int64      `json:"expires_at"`
	Valid     bool       `json:"valid"`
}

// Validate redeems an invite token. A token is accepted once. The inviter's
// stored credential never leaves the server.
func (h *InviteHandler) Validate(c *gin.Context) {
	var req ValidateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	v, err := h.inviteService.ValidateInvite(c.Request.Context(), req.Token)
	if err != nil {
		var invErr *invite.Error
		if errors.As(err, &invErr) {
			status := invErr.HTTPStatus()
			response.Error(c, status, status, invErr.Message)
			return
		}
		response.InternalError(c, "invite validation failed")
		return
	}

	response.Success(c, ValidateInviteResponse{
		Email:     v.Email,
		Role:      v.Role,
		ExpiresAt: v.ExpiresAt.UnixMilli(),
		Valid:     v.Valid,
	})
}
