package handlers

import (
	"net/http"

	"campus-eats-api/middleware"
	"campus-eats-api/services"

	"github.com/gin-gonic/gin"
)

type VendorRequest struct {
	Name        string `json:"name" binding:"required"`
	Location    string `json:"location" binding:"required"`
	Description string `json:"description"`
}

type VendorUpdateRequest struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	IsOpen      *bool   `json:"is_open"`
}

// ListVendors returns vendors; ?search= matches name or location, ?open=true
// hides closed ones.
func (h *Handler) ListVendors(c *gin.Context) {
	vendors, err := h.svc.Vendors.List(c.Request.Context(), services.VendorFilter{
		Search:   c.Query("search"),
		OpenOnly: queryBool(c, "open"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(vendors), "vendors": vendors})
}

// GetVendor returns a vendor with its available meals
func (h *Handler) GetVendor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	vendor, err := h.svc.Vendors.GetWithMeals(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": vendor})
}

// VendorMeals is the menu of one vendor, filterable by ?category= and ?veg=true
func (h *Handler) VendorMeals(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	vendor, err := h.svc.Vendors.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	meals, err := h.svc.Meals.List(c.Request.Context(), services.MealFilter{
		VendorID:      id,
		Category:      c.Query("category"),
		VegOnly:       queryBool(c, "veg"),
		AvailableOnly: true,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vendor": vendor.Name,
		"count":  len(meals),
		"meals":  meals,
	})
}

// CreateVendor registers the caller's vendor (vendor role)
func (h *Handler) CreateVendor(c *gin.Context) {
	var req VendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	vendor, err := h.svc.Vendors.Create(c.Request.Context(), middleware.GetUserID(c), services.VendorInput{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Vendor created", "vendor": vendor})
}

// MyVendor returns the vendor run by the caller (vendor role)
func (h *Handler) MyVendor(c *gin.Context) {
	vendor, err := h.svc.Vendors.ForOwner(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": vendor})
}

func (h *Handler) UpdateVendor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req VendorUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	vendor, err := h.svc.Vendors.Update(c.Request.Context(), actor(c), id, services.VendorUpdate{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		IsOpen:      req.IsOpen,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vendor updated", "vendor": vendor})
}
