package routes

import (
	"github.com/Kariqs/smart-inventory/controllers"
	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine, c *controllers.OrderController) {
	order := server.Group("/Order")
	{
		order.GET("/Create", c.CreateForm)
		order.POST("/Create", c.Create)
		order.GET("/Track", c.Track)
		order.GET("/Track/:id", c.TrackByID)
		order.GET("/TrackById/:id", c.TrackByID)
		order.GET("/TrackByEmail", c.TrackByEmail)
		order.POST("/TrackByEmail", c.TrackByEmail)
		order.POST("/DeleteOrder/:id", c.DeleteOrder)
	}

	admin := order.Group("", middlewares.RequireAdmin())
	{
		admin.GET("", c.Index)
		admin.GET("/Details/:id", c.Details)
		admin.GET("/Edit/:id", c.EditForm)
		admin.POST("/Edit/:id", c.Edit)
		admin.GET("/Delete/:id", c.DeleteForm)
		admin.POST("/Delete/:id", c.Delete)
	}
}
