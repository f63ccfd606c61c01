package routes

import (
	"github.com/gin-gonic/gin"

	"grameen_connect/internal/middleware"
)

func UserRoutes(api *gin.RouterGroup, h handlers, deps Dependencies) {
	users := api.Group("/users")
	users.Use(middleware.RequireAuth(deps.Tokens))
	{
		users.PUT("/profile", limitBody(deps.Config.MaxUploadBytes), h.users.UpdateProfile)
	}
}

func TestimonialRoutes(api *gin.RouterGroup, h handlers) {
	api.GET("/testimonials", h.testimonials.List)
}
