package handlers

import (
	"net/http"

	"campus-eats-api/middleware"
	"campus-eats-api/models"

	"github.com/gin-gonic/gin"
)

type CartItemRequest struct {
	MealID   uint `json:"meal_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type CartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

type CheckoutRequest struct {
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	Notes           string `json:"notes"`
}

func cartBody(cart *models.Cart) gin.H {
	return gin.H{
		"cart":     cart,
		"subtotal": cart.Subtotal(),
		"count":    cart.Count(),
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.svc.Carts.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cart, err := h.svc.Carts.AddItem(c.Request.Context(), middleware.GetUserID(c), req.MealID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

// SetCartQuantity replaces a line's quantity; zero removes the line
func (h *Handler) SetCartQuantity(c *gin.Context) {
	mealID, ok := paramID(c, "mealId")
	if !ok {
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cart, err := h.svc.Carts.SetQuantity(c.Request.Context(), middleware.GetUserID(c), mealID, *req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	mealID, ok := paramID(c, "mealId")
	if !ok {
		return
	}
	cart, err := h.svc.Carts.RemoveItem(c.Request.Context(), middleware.GetUserID(c), mealID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

func (h *Handler) ClearCart(c *gin.Context) {
	cart, err := h.svc.Carts.Clear(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

// Checkout turns the cart into an order
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.svc.Carts.Checkout(c.Request.Context(), middleware.GetUserID(c), req.DeliveryAddress, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}
