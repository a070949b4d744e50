package routes

import (
	"github.com/Kariqs/smart-inventory/controllers"
	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(server *gin.Engine, c *controllers.ProductController) {
	product := server.Group("/Product")
	{
		product.GET("", c.Index)
		product.GET("/Index", c.Index)
		product.GET("/Search", c.Search)
		product.GET("/Details/:id", c.Details)
	}

	admin := product.Group("", middlewares.RequireAdmin())
	{
		admin.GET("/Create", c.CreateForm)
		admin.POST("/Create", c.Create)
		admin.GET("/Edit/:id", c.EditForm)
		admin.POST("/Edit/:id", c.Edit)
		admin.GET("/Delete/:id", c.DeleteForm)
		admin.POST("/Delete/:id", c.Delete)
		admin.POST("/UploadImage/:id", c.UploadImage)
	}
}
