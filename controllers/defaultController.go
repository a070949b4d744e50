package controllers

import (
	"net/http"

	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type HomeController struct {
	dashboard *services.DashboardService
	log       zerolog.Logger
}

func NewHomeController(dashboard *services.DashboardService, logger zerolog.Logger) *HomeController {
	return &HomeController{dashboard: dashboard, log: logger.With().Str("component", "home_controller").Logger()}
}

// GetHome renders the inventory dashboard.
func (c *HomeController) GetHome(ctx *gin.Context) {
	summary, err := c.dashboard.Summary(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"success":          true,
			"totalProducts":    summary.TotalProducts,
			"totalCategories":  summary.TotalCategories,
			"lowStockProducts": summary.LowStockProducts,
			"recentOrders":     summary.RecentOrders,
		})
		return
	}
	render(ctx, http.StatusOK, "home.html", gin.H{"Title": "Dashboard", "Dashboard": summary})
}
