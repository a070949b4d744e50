package routes

import (
	"github.com/Kariqs/smart-inventory/controllers"
	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/gin-gonic/gin"
)

func CategoryRoutes(server *gin.Engine, c *controllers.CategoryController) {
	category := server.Group("/Category")
	{
		category.GET("", c.Index)
		category.GET("/Details/:id", c.Details)
	}

	admin := category.Group("", middlewares.RequireAdmin())
	{
		admin.GET("/Create", c.CreateForm)
		admin.POST("/Create", c.Create)
		admin.GET("/Edit/:id", c.EditForm)
		admin.POST("/Edit/:id", c.Edit)
		admin.GET("/Delete/:id", c.DeleteForm)
		admin.POST("/Delete/:id", c.Delete)
	}
}
