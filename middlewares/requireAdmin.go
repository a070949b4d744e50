package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal := CurrentPrincipal(ctx)
		if !principal.Authenticated() {
			abortUnauthenticated(ctx)
			return
		}

		if !principal.IsAdmin {
			if IsAjax(ctx) {
				ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
				return
			}
			ctx.Redirect(http.StatusFound, "/Account/AccessDenied")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
