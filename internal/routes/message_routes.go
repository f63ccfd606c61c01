package routes

import (
	"github.com/gin-gonic/gin"

	"grameen_connect/internal/auth"
	"grameen_connect/internal/middleware"
	"grameen_connect/internal/models"
)

func MessageRoutes(api *gin.RouterGroup, h handlers, tokens *auth.TokenManager) {
	messages := api.Group("/messages")
	{
		messages.POST("", h.messages.Create)
		messages.GET("", middleware.RequireAuthWithRole(tokens, models.RoleAdmin, models.RoleVolunteer), h.messages.List)
	}
}
