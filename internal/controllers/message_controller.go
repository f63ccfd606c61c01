package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grameen_connect/internal/httpx"
	"grameen_connect/internal/services"
)

type MessageController struct {
	messages *services.MessageService
}

func NewMessageController(messages *services.MessageService) *MessageController {
	return &MessageController{messages: messages}
}

func (mc *MessageController) Create(c *gin.Context) {
	var input services.MessageInput
	if !bindBody(c, &input) {
		return
	}
	msg, err := mc.messages.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": httpx.T(c, "message_sent"),
		"data":    msg,
	})
}

func (mc *MessageController) List(c *gin.Context) {
	messages, err := mc.messages.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}
