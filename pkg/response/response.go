package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// StatusInvalidToken is the non-standard status the web client treats as
// "this invite link does not exist".
const StatusInvalidToken = 498

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Code: 0, Message: "ok", Data: data})
}

func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, APIResponse{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, 400, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, 401, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, 403, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, 409, message)
}

func InvalidToken(c *gin.Context, message string) {
	Error(c, StatusInvalidToken, StatusInvalidToken, message)
}

func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, 429, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, 500, message)
}

// RoleDenied is the body of a 403 from a role check. Roles stay machine
// readable; display names are the UI's business.
type RoleDenied struct {
	Message       string   `json:"message"`
	RequiredRoles []string `json:"requiredRoles"`
	UserRole      string   `json:"userRole"`
}

func ForbiddenRole(c *gin.Context, requiredRoles []string, userRole string) {
	c.JSON(http.StatusForbidden, RoleDenied{
		Message:       "access denied",
		RequiredRoles: requiredRoles,
		UserRole:      userRole,
	})
}
