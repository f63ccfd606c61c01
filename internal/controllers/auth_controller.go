package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grameen_connect/internal/httpx"
	"grameen_connect/internal/middleware"
	"grameen_connect/internal/services"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindBody(c, &input) {
		return
	}

	res, err := ac.auth.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": httpx.T(c, "user_registered"),
		"user":    res.User,
		"token":   res.Token,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input services.LoginInput
	if !bindBody(c, &input) {
		return
	}

	res, err := ac.auth.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": httpx.T(c, "login_successful"),
		"user":    res.User,
		"token":   res.Token,
	})
}

func (ac *AuthController) Profile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := ac.auth.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ac *AuthController) Logout(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	if err := ac.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": httpx.T(c, "logged_out")})
}
