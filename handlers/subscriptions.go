package handlers

import (
	"net/http"

	"campus-eats-api/middleware"
	"campus-eats-api/models"
	"campus-eats-api/services"

	"github.com/gin-gonic/gin"
)

type SubscribeRequest struct {
	VendorID  uint                    `json:"vendor_id" binding:"required"`
	Plan      models.SubscriptionPlan `json:"plan" binding:"required,oneof=weekly monthly"`
	AutoRenew bool                    `json:"auto_renew"`
}

// Subscribe buys a delivery pass with a vendor
func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.svc.Subscriptions.Subscribe(c.Request.Context(), middleware.GetUserID(c), services.SubscribeInput{
		VendorID:  req.VendorID,
		Plan:      req.Plan,
		AutoRenew: req.AutoRenew,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Subscription started", "subscription": sub})
}

func (h *Handler) ListSubscriptions(c *gin.Context) {
	subs, err := h.svc.Subscriptions.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(subs), "subscriptions": subs})
}

func (h *Handler) CancelSubscription(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sub, err := h.svc.Subscriptions.Cancel(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled", "subscription": sub})
}
