package handlers

import (
	"net/http"

	"campus-eats-api/middleware"
	"campus-eats-api/models"
	"campus-eats-api/services"

	"github.com/gin-gonic/gin"
)

type OrderItemRequest struct {
	MealID   uint `json:"meal_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	VendorID        uint               `json:"vendor_id" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress string             `json:"delivery_address" binding:"required"`
	Notes           string             `json:"notes"`
}

type StatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,order_status"`
	Note   string             `json:"note"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type PaymentRequest struct {
	Method models.PaymentMethod `json:"method" binding:"required,oneof=card wallet cash"`
}

// PlaceOrder creates a new order (student)
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	items := make([]services.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.OrderItemInput{MealID: item.MealID, Quantity: item.Quantity})
	}
	order, err := h.svc.Orders.Create(c.Request.Context(), middleware.GetUserID(c), services.CreateOrderInput{
		VendorID:        req.VendorID,
		Items:           items,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// ListOrders returns the caller's orders, optionally filtered by ?status=.
// Vendors and admins also get a per-status summary and delivered revenue.
func (h *Handler) ListOrders(c *gin.Context) {
	who := actor(c)
	orders, err := h.svc.Orders.List(c.Request.Context(), who, models.OrderStatus(c.Query("status")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	body := gin.H{"count": len(orders), "orders": orders}
	if who.Role == models.RoleVendor || who.IsAdmin() {
		body["order_summary"] = services.Summary(orders)
		body["total_revenue"] = services.Revenue(orders)
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.Orders.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus moves an order along the state machine
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.svc.Orders.UpdateStatus(c.Request.Context(), actor(c), id, req.Status, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated to " + string(order.Status),
		"order":   order,
	})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	// the body is optional
	_ = c.ShouldBindJSON(&req)
	order, err := h.svc.Orders.Cancel(c.Request.Context(), actor(c), id, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}

// PayOrder settles an order's payment (student who placed it)
func (h *Handler) PayOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	payment, err := h.svc.Payments.Pay(c.Request.Context(), middleware.GetUserID(c), id, req.Method)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment recorded", "payment": payment})
}

func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	payment, err := h.svc.Payments.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}
