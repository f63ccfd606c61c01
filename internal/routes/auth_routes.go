package routes

import (
	"github.com/gin-gonic/gin"

	"grameen_connect/internal/auth"
	"grameen_connect/internal/middleware"
)

func AuthRoutes(api *gin.RouterGroup, h handlers, tokens *auth.TokenManager) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.auth.Register)
		authGroup.POST("/login", h.auth.Login)
		authGroup.GET("/profile", middleware.RequireAuth(tokens), h.auth.Profile)
		authGroup.POST("/logout", middleware.RequireAuth(tokens), h.auth.Logout)
	}
}
