package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grameen_connect/internal/services"
)

type TestimonialController struct {
	testimonials *services.TestimonialService
}

func NewTestimonialController(testimonials *services.TestimonialService) *TestimonialController {
	return &TestimonialController{testimonials: testimonials}
}

func (tc *TestimonialController) List(c *gin.Context) {
	list, err := tc.testimonials.Approved(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"testimonials": list, "count": len(list)})
}
