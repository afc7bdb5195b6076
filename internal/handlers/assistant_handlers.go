package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AssistantInput struct {
	Question string `json:"question" binding:"required"`
}

// AskAssistant is the handler for POST /v1/admin/assistant
// It answers back-office questions ("how many orders shipped this week?")
// by letting the model run read-only SQL against the store database.
func (h *Handlers) AskAssistant(c *gin.Context) {
	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "The assistant is not configured"})
		return
	}

	var input AssistantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.Assistant.Answer(c.Request.Context(), input.Question)
	if err != nil {
		log.Printf("assistant: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "The assistant could not answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
