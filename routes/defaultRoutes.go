package routes

import (
	"github.com/Kariqs/smart-inventory/controllers"
	"github.com/gin-gonic/gin"
)

func DefaultRoutes(server *gin.Engine, c *controllers.HomeController) {
	server.GET("/", c.GetHome)
	server.GET("/Home", c.GetHome)
	server.GET("/Error/:code", controllers.ShowError)
	server.NoRoute(controllers.NotFound)
}
