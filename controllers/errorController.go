package controllers

import (
	"net/http"
	"strconv"

	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/gin-gonic/gin"
)

// ShowError renders /Error/{code}. Codes other than 404 get the generic
// error page.
func ShowError(ctx *gin.Context) {
	code, err := strconv.Atoi(ctx.Param("code"))
	if err != nil || code != http.StatusNotFound {
		code = http.StatusInternalServerError
	}
	renderErrorPage(ctx, code)
}

func NotFound(ctx *gin.Context) {
	if middlewares.IsAjax(ctx) {
		sendErrorResponse(ctx, http.StatusNotFound, msgNotFound)
		return
	}
	renderErrorPage(ctx, http.StatusNotFound)
}
