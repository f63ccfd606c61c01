package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/auth"
	"grameen_connect/internal/httpx"
	"grameen_connect/internal/middleware"
)

func respondError(c *gin.Context, err error) {
	httpx.Error(c, err)
}

// currentUser returns the authenticated caller. RequireAuth guarantees it on protected routes.
func currentUser(c *gin.Context) (*auth.Claims, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		respondError(c, apperr.Auth(apperr.MsgAuthRequired))
		return nil, false
	}
	return claims, true
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.Validation(apperr.MsgInvalidID))
		return 0, false
	}
	return uint(id), true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// optionalFile returns the uploaded file for field, or nil when none was sent.
func optionalFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, bodyError(err)
	}
	return fh, nil
}

// bodyError maps a body read failure. Bodies cut off by the upload cap are reported as too large.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Validation(apperr.MsgFileTooLarge)
	}
	return apperr.Validation(apperr.MsgInvalidInput)
}

// bindBody decodes JSON or form bodies into dst. Field rules are checked by the services.
func bindBody(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBind(dst); err != nil {
		respondError(c, bodyError(err))
		return false
	}
	return true
}
