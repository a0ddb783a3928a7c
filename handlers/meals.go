package handlers

import (
	"net/http"
	"strconv"

	"campus-eats-api/middleware"
	"campus-eats-api/services"

	"github.com/gin-gonic/gin"
)

type MealRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category"`
	IsVeg       bool    `json:"is_veg"`
	PrepMinutes int     `json:"prep_minutes" binding:"gte=0"`
}

type MealUpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Category    *string  `json:"category"`
	IsVeg       *bool    `json:"is_veg"`
	IsAvailable *bool    `json:"is_available"`
	PrepMinutes *int     `json:"prep_minutes" binding:"omitempty,gte=0"`
}

// ListMeals searches meals across vendors: ?vendor_id=, ?category=,
// ?search=, ?veg=true. Unavailable meals are left out.
func (h *Handler) ListMeals(c *gin.Context) {
	filter := services.MealFilter{
		Category:      c.Query("category"),
		Search:        c.Query("search"),
		VegOnly:       queryBool(c, "veg"),
		AvailableOnly: true,
	}
	if v := c.Query("vendor_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor_id"})
			return
		}
		filter.VendorID = uint(id)
	}
	meals, err := h.svc.Meals.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(meals), "meals": meals})
}

func (h *Handler) GetMeal(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	meal, err := h.svc.Meals.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": meal})
}

// CreateMeal adds a meal to the caller's vendor
func (h *Handler) CreateMeal(c *gin.Context) {
	var req MealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	meal, err := h.svc.Meals.Create(c.Request.Context(), middleware.GetUserID(c), services.MealInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsVeg:       req.IsVeg,
		PrepMinutes: req.PrepMinutes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Meal added", "meal": meal})
}

func (h *Handler) UpdateMeal(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req MealUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	meal, err := h.svc.Meals.Update(c.Request.Context(), actor(c), id, services.MealUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsVeg:       req.IsVeg,
		IsAvailable: req.IsAvailable,
		PrepMinutes: req.PrepMinutes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal updated", "meal": meal})
}

func (h *Handler) DeleteMeal(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Meals.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal deleted"})
}
