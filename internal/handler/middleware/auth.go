package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zoolip/portal/internal/guard"
	"zoolip/portal/internal/metrics"
	"zoolip/portal/internal/model"
	"zoolip/portal/pkg/response"
)

const (
	ContextKeyIdentity   = "identity"
	ContextKeyCredential = "credential"
)

// SessionOptions says where the session credential travels and where
// unauthenticated callers are sent.
type SessionOptions struct {
	CookieName  string
	LoginPath   string
	ReturnParam string
}

// Credential returns the session credential of the request: the session
// cookie, or a bearer token when no cookie is present.
func Credential(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// LoginRedirect builds the login URL carrying the originally requested
// path and query.
func LoginRedirect(opts SessionOptions, requested *url.URL) string {
	q := url.Values{opts.ReturnParam: {requested.RequestURI()}}
	return opts.LoginPath + "?" + q.Encode()
}

// RequireRoles authorizes the request through RoleGuard. An empty role
// list admits any authenticated identity.
func RequireRoles(g *guard.Guard, opts SessionOptions, m *metrics.Metrics, logger *zap.Logger, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := Credential(c, opts.CookieName)

		identity, err := g.Require(c.Request.Context(), credential, roles...)
		if err != nil {
			var forbidden *guard.ForbiddenError
			switch {
			case errors.Is(err, guard.ErrUnauthenticated):
				m.RecordGuardDecision("unauthenticated")
				c.Redirect(http.StatusFound, LoginRedirect(opts, c.Request.URL))
			case errors.As(err, &forbidden):
				m.RecordGuardDecision("forbidden")
				required := make([]string, len(forbidden.Required))
				for i, r := range forbidden.Required {
					required[i] = string(r)
				}
				response.ForbiddenRole(c, required, string(forbidden.Actual))
			default:
				m.RecordGuardDecision("error")
				logger.Error("identity resolution failed", zap.Error(err))
				response.InternalError(c, "identity resolution failed")
			}
			c.Abort()
			return
		}

		m.RecordGuardDecision("allowed")
		c.Set(ContextKeyIdentity, identity)
		c.Set(ContextKeyCredential, credential)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by RequireRoles.
func IdentityFrom(c *gin.Context) (*model.Identity, bool) {
	v, ok := c.Get(ContextKeyIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*model.Identity)
	return identity, ok
}

// CredentialFrom returns the credential that RequireRoles authorized.
func CredentialFrom(c *gin.Context) string {
	return c.GetString(ContextKeyCredential)
}
