package routes

import (
	"github.com/gin-gonic/gin"

	"grameen_connect/internal/controllers"
	"grameen_connect/internal/middleware"
	"grameen_connect/internal/models"
)

func RequestRoutes(api *gin.RouterGroup, h handlers, deps Dependencies) {
	requests := api.Group("/requests")
	{
		requests.GET("", h.requests.List)
		requests.POST("", middleware.RequireAuth(deps.Tokens), limitBody(deps.Config.MaxUploadBytes), h.requests.Create)
		requests.GET("/my-requests", middleware.RequireAuth(deps.Tokens), h.requests.Mine)
		if deps.Hub != nil {
			requests.GET("/events", controllers.RequestEvents(deps.Hub))
		}
		requests.GET("/:id", h.requests.Get)
		requests.PATCH("/:id/status",
			middleware.RequireAuthWithRole(deps.Tokens, models.RoleVolunteer, models.RoleAdmin),
			h.requests.UpdateStatus,
		)
	}
}
