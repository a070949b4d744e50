package routes

import (
	"github.com/Kariqs/smart-inventory/controllers"
	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/gin-gonic/gin"
)

func AuthRoutes(server *gin.Engine, c *controllers.AuthController) {
	account := server.Group("/Account")
	{
		account.GET("/Register", c.RegisterForm)
		account.POST("/Register", c.Register)
		account.GET("/RegisterConfirmation", c.RegisterConfirmation)
		account.GET("/ConfirmEmail", c.ConfirmEmail)
		account.GET("/Login", c.LoginForm)
		account.POST("/Login", c.Login)
		account.POST("/Logout", c.Logout)
		account.GET("/ForgotPassword", c.ForgotPasswordForm)
		account.POST("/ForgotPassword", c.ForgotPassword)
		account.GET("/ForgotPasswordConfirmation", c.ForgotPasswordConfirmation)
		account.GET("/ResetPassword", c.ResetPasswordForm)
		account.POST("/ResetPassword", c.ResetPassword)
		account.GET("/ResetPasswordConfirmation", c.ResetPasswordConfirmation)
		account.GET("/AccessDenied", c.AccessDenied)
		account.GET("/CheckRole", middlewares.RequireAuth(), c.CheckRole)
		account.POST("/PromoteToAdmin/:id", middlewares.RequireAdmin(), c.PromoteToAdmin)
	}
}
