package handler

import (
	"github.com/gin-gonic/gin"

	"ecosnap/internal/models"
	"ecosnap/internal/utils"
)

type Handlers struct {
	Health     *HealthHandler
	Users      *UserHandler
	Reports    *ReportHandler
	WorkOrders *WorkOrderHandler
	Reviews    *ReviewHandler
	Media      *MediaHandler
	Stats      *StatsHandler
}

func roles(rs ...models.Role) gin.HandlerFunc {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = string(r)
	}
	return utils.RequireRoles(names...)
}

// RegisterRoutes mounts the whole API under /api.
func RegisterRoutes(router *gin.Engine, h Handlers, jwtUtil *utils.JWTUtil) {
	auth := utils.AuthMiddleware(jwtUtil)
	optional := utils.OptionalAuth(jwtUtil)
	admin := roles(models.RoleAdmin)

	api := router.Group("/api")
	api.GET("/health", h.Health.Health)

	users := api.Group("/users")
	{
		users.POST("/register", h.Users.Register)
		users.GET("/leaderboard", optional, h.Users.Leaderboard)
		users.GET("/:id", optional, h.Users.Get)
		users.GET("/:id/stats", optional, h.Users.Stats)

		users.GET("", auth, admin, h.Users.List)
		users.POST("", auth, admin, h.Users.Create)
		users.PUT("/:id", auth, h.Users.Update)
		users.DELETE("/:id", auth, admin, h.Users.Delete)
		users.PUT("/:id/verification", auth, admin, h.Users.SetVerification)
	}

	reports := api.Group("/reports")
	{
		reports.GET("", optional, h.Reports.List)
		reports.GET("/user/:userId", optional, h.Reports.ListByUser)
		reports.GET("/:id", optional, h.Reports.Get)

		reports.POST("", auth, roles(models.RoleCitizen, models.RoleAdmin), h.Reports.Create)
		reports.PUT("/:id", auth, h.Reports.Update)
		reports.DELETE("/:id", auth, h.Reports.Delete)
		reports.PUT("/:id/upvote", auth, h.Reports.Upvote)
		reports.PUT("/:id/citizen-verify", auth, roles(models.RoleCitizen), h.Reports.CitizenVerify)
		reports.PUT("/:id/verify", auth, admin, h.Reports.Verify)
		reports.PUT("/:id/unverify", auth, admin, h.Reports.Unverify)
		reports.PUT("/:id/reject", auth, admin, h.Reports.Reject)
		reports.PUT("/:id/assign", auth, admin, h.Reports.Assign)
	}

	orders := api.Group("/work-orders", auth)
	{
		orgOrAdmin := roles(models.RoleOrganization, models.RoleAdmin)
		org := roles(models.RoleOrganization)

		orders.GET("", orgOrAdmin, h.WorkOrders.List)
		orders.GET("/:id", orgOrAdmin, h.WorkOrders.Get)
		orders.PUT("/:id/accept", org, h.WorkOrders.Accept)
		orders.PUT("/:id/start", org, h.WorkOrders.Start)
		orders.PUT("/:id/complete", org, h.WorkOrders.Complete)
		orders.PUT("/:id/cancel", orgOrAdmin, h.WorkOrders.Cancel)
		orders.PUT("/:id/pricing", orgOrAdmin, h.WorkOrders.UpdatePricing)
		orders.PUT("/:id/payment", admin, h.WorkOrders.UpdatePayment)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("/organization/:orgId", optional, h.Reviews.ListForOrganization)

		reviews.POST("", auth, roles(models.RoleCitizen, models.RoleAdmin), h.Reviews.Create)
		reviews.PUT("/:id", auth, h.Reviews.Update)
		reviews.DELETE("/:id", auth, admin, h.Reviews.Delete)
		reviews.PUT("/:id/response", auth, roles(models.RoleOrganization), h.Reviews.Respond)
	}

	api.POST("/media/upload", auth, h.Media.Upload)

	stats := api.Group("/stats")
	{
		stats.GET("/dashboard", optional, h.Stats.Dashboard)
		stats.GET("/reports", optional, h.Stats.Reports)
		stats.GET("/users", auth, admin, h.Stats.Users)
		stats.GET("/organizations", auth, admin, h.Stats.Organizations)
	}
}
