package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/httpx"
	"grameen_connect/internal/services"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// UpdateProfile accepts JSON or a multipart form with an optional "avatar" image.
func (uc *UserController) UpdateProfile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	var input services.ProfileUpdate
	var avatar *multipart.FileHeader
	if isMultipart(c) {
		// Form fields are optional; only the ones actually sent are applied.
		input.FullName = postForm(c, "fullName")
		input.Phone = postForm(c, "phone")
		input.Location = postForm(c, "location")
		input.Bio = postForm(c, "bio")
		fh, err := optionalFile(c, "avatar")
		if err != nil {
			respondError(c, err)
			return
		}
		avatar = fh
	} else if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, apperr.Validation(apperr.MsgInvalidInput))
			return
		}
	}

	user, err := uc.users.UpdateProfile(c.Request.Context(), claims.UserID, input, avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": httpx.T(c, "profile_updated"),
		"user":    user,
	})
}

func postForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}
