package handlers

import (
	"net/http"

	"campus-eats-api/middleware"
	"campus-eats-api/models"
	"campus-eats-api/services"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name          string          `json:"name" binding:"required"`
	Email         string          `json:"email" binding:"required,email"`
	Password      string          `json:"password" binding:"required,min=6"`
	Role          models.UserRole `json:"role" binding:"required"`
	Phone         string          `json:"phone"`
	CampusAddress string          `json:"campus_address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user account
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.Register(c.Request.Context(), services.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          req.Role,
		Phone:         req.Phone,
		CampusAddress: req.CampusAddress,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, "Account created successfully", user)
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.issue(c, http.StatusOK, "Login successful", user)
}

func (h *Handler) issue(c *gin.Context, status int, message string, user *models.User) {
	token, expires, err := h.tokens.Generate(user)
	if err != nil {
		h.log.WithError(err).Error("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, gin.H{
		"message":    message,
		"token":      token,
		"expires_at": expires,
		"user":       user,
	})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(c *gin.Context) {
	user, err := h.svc.Users.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type ProfileRequest struct {
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	CampusAddress *string `json:"campus_address"`
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), services.ProfileUpdate{
		Name:          req.Name,
		Phone:         req.Phone,
		CampusAddress: req.CampusAddress,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}
