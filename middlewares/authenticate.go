package middlewares

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/Kariqs/smart-inventory/utils"
	"github.com/gin-gonic/gin"
)

const (
	UserKey        = "user"
	AuthCookieName = "auth_token"
)

// IsAjax reports whether the request was sent by page script and expects a
// JSON envelope instead of HTML.
func IsAjax(ctx *gin.Context) bool {
	return ctx.GetHeader("X-Requested-With") == "XMLHttpRequest"
}

func tokenFromRequest(ctx *gin.Context) string {
	if header := ctx.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := ctx.Cookie(AuthCookieName); err == nil {
		return cookie
	}
	return ""
}

// Authenticate decodes the session token, if any, and stores the caller's
// principal under UserKey. Requests without a valid token continue as
// anonymous.
func Authenticate(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal := models.Anonymous
		if token := tokenFromRequest(ctx); token != "" {
			if claims, err := utils.ParseJWT(token, secret); err == nil {
				principal = claims.Principal()
			}
		}
		ctx.Set(UserKey, principal)
		ctx.Next()
	}
}

func CurrentPrincipal(ctx *gin.Context) models.Principal {
	if value, exists := ctx.Get(UserKey); exists {
		if principal, ok := value.(models.Principal); ok {
			return principal
		}
	}
	return models.Anonymous
}

func abortUnauthenticated(ctx *gin.Context) {
	if IsAjax(ctx) {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return
	}
	ctx.Redirect(http.StatusFound, "/Account/Login?returnUrl="+url.QueryEscape(ctx.Request.URL.RequestURI()))
	ctx.Abort()
}

func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !CurrentPrincipal(ctx).Authenticated() {
			abortUnauthenticated(ctx)
			return
		}
		ctx.Next()
	}
}
