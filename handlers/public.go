package handlers

import (
	"net/http"

	"campus-eats-api/models"
	"campus-eats-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Transitions documents the order state machine
func (h *Handler) Transitions(c *gin.Context) {
	var terminal []models.OrderStatus
	for _, s := range models.OrderStatuses {
		if s.Terminal() {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"transitions":     statemachine.Table(),
		"statuses":        models.OrderStatuses,
		"terminal_states": terminal,
		"description":     "Campus order lifecycle state machine",
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "campus-eats-api",
	})
}
