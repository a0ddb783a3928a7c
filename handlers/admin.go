package handlers

import (
	"net/http"

	"campus-eats-api/models"

	"github.com/gin-gonic/gin"
)

// ListUsers returns all users, optionally filtered by ?role= (admin only)
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser soft-deletes an account (admin only)
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

type RoleRequest struct {
	Role models.UserRole `json:"role" binding:"required,oneof=student vendor rider admin"`
}

// SetUserRole promotes or demotes an account (admin only)
func (h *Handler) SetUserRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.SetRole(c.Request.Context(), actor(c), id, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": user})
}
