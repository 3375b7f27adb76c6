package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"zoolip/portal/internal/handler/middleware"
	"zoolip/portal/internal/model"
)

var ErrNoIdentity = errors.New("identity not found in context")

func getIdentityFromContext(c *gin.Context) (*model.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok || identity == nil {
		return nil, ErrNoIdentity
	}
	return identity, nil
}
