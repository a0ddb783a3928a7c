package routes

import (
	"campus-eats-api/handlers"
	"campus-eats-api/middleware"
	"campus-eats-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, issuer *middleware.TokenIssuer, limiter *middleware.RateLimiter) {
	r.GET("/health", h.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		authGroup := public.Group("/auth")
		if limiter != nil {
			authGroup.Use(limiter.Middleware())
		}
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)

		public.GET("/vendors", h.ListVendors)
		public.GET("/vendors/:id", h.GetVendor)
		public.GET("/vendors/:id/meals", h.VendorMeals)
		public.GET("/meals", h.ListMeals)
		public.GET("/meals/:id", h.GetMeal)

		public.GET("/orders/transitions", h.Transitions)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired(issuer))
	{
		auth.GET("/auth/me", h.Me)
		auth.GET("/users/me", h.Me)
		auth.PUT("/users/me", h.UpdateMe)

		// Orders are scoped to the caller's role inside the service
		auth.GET("/orders", h.ListOrders)
		auth.GET("/orders/:id", h.GetOrder)
		auth.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		auth.POST("/orders/:id/cancel", h.CancelOrder)
		auth.GET("/orders/:id/payment", h.GetPayment)
	}

	student := r.Group("/api")
	student.Use(middleware.AuthRequired(issuer), middleware.RoleRequired(models.RoleStudent))
	{
		student.POST("/orders", h.PlaceOrder)
		student.POST("/orders/:id/payment", h.PayOrder)

		student.GET("/cart", h.GetCart)
		student.DELETE("/cart", h.ClearCart)
		student.POST("/cart/items", h.AddCartItem)
		student.PUT("/cart/items/:mealId", h.SetCartQuantity)
		student.DELETE("/cart/items/:mealId", h.RemoveCartItem)
		student.POST("/cart/checkout", h.Checkout)

		student.POST("/subscriptions", h.Subscribe)
		student.GET("/subscriptions", h.ListSubscriptions)
		student.POST("/subscriptions/:id/cancel", h.CancelSubscription)
	}

	// ── Vendor routes ──────────────────────────────────────────────
	vendor := r.Group("/api")
	vendor.Use(middleware.AuthRequired(issuer), middleware.RoleRequired(models.RoleVendor))
	{
		vendor.GET("/vendors/mine", h.MyVendor)
		vendor.POST("/vendors", h.CreateVendor)
		vendor.POST("/meals", h.CreateMeal)
	}

	// Owners and admins; ownership is checked by the service
	manage := r.Group("/api")
	manage.Use(middleware.AuthRequired(issuer), middleware.RoleRequired(models.RoleVendor, models.RoleAdmin))
	{
		manage.PUT("/vendors/:id", h.UpdateVendor)
		manage.PUT("/meals/:id", h.UpdateMeal)
		manage.DELETE("/meals/:id", h.DeleteMeal)
	}

	// ── Rider routes ───────────────────────────────────────────────
	rider := r.Group("/api/deliveries")
	rider.Use(middleware.AuthRequired(issuer), middleware.RoleRequired(models.RoleRider))
	{
		rider.GET("/available", h.AvailableDeliveries)
		rider.GET("/mine", h.MyDeliveries)
		rider.POST("/:id/accept", h.AcceptDelivery)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/users")
	admin.Use(middleware.AuthRequired(issuer), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("", h.ListUsers)
		admin.GET("/:id", h.GetUser)
		admin.PATCH("/:id/role", h.SetUserRole)
		admin.DELETE("/:id", h.DeleteUser)
	}
}
