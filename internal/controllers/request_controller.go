package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"grameen_connect/internal/httpx"
	"grameen_connect/internal/services"
)

type RequestController struct {
	requests *services.RequestService
}

func NewRequestController(requests *services.RequestService) *RequestController {
	return &RequestController{requests: requests}
}

// Create accepts JSON or a multipart form with an optional "document" image.
func (rc *RequestController) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	var input services.CreateRequestInput
	if !bindBody(c, &input) {
		return
	}
	var document *multipart.FileHeader
	if isMultipart(c) {
		fh, err := optionalFile(c, "document")
		if err != nil {
			respondError(c, err)
			return
		}
		document = fh
	}

	req, err := rc.requests.Create(c.Request.Context(), claims.UserID, input, document)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": httpx.T(c, "request_submitted"),
		"request": req,
	})
}

func (rc *RequestController) List(c *gin.Context) {
	status, err := services.ParseStatus(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := services.ParseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	requests, err := rc.requests.List(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

func (rc *RequestController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	req, err := rc.requests.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (rc *RequestController) Mine(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	requests, err := rc.requests.ForUser(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

func (rc *RequestController) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input services.UpdateStatusInput
	if !bindBody(c, &input) {
		return
	}

	req, err := rc.requests.UpdateStatus(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": httpx.T(c, "request_updated"),
		"request": req,
	})
}
