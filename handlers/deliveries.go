package handlers

import (
	"net/http"

	"campus-eats-api/middleware"

	"github.com/gin-gonic/gin"
)

// AvailableDeliveries lists unassigned deliveries riders can claim
func (h *Handler) AvailableDeliveries(c *gin.Context) {
	deliveries, err := h.svc.Deliveries.Available(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(deliveries), "deliveries": deliveries})
}

// MyDeliveries returns the deliveries assigned to the logged-in rider
func (h *Handler) MyDeliveries(c *gin.Context) {
	deliveries, err := h.svc.Deliveries.Mine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(deliveries), "deliveries": deliveries})
}

// AcceptDelivery assigns a delivery to the rider. Only one rider wins.
func (h *Handler) AcceptDelivery(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	delivery, err := h.svc.Deliveries.Accept(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery accepted", "delivery": delivery})
}
