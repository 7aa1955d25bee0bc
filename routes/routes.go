package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	auth "github.com/phillip/donation-portal-go/auth"
	controllers "github.com/phillip/donation-portal-go/controllers"
	middleware "github.com/phillip/donation-portal-go/middleware"
	models "github.com/phillip/donation-portal-go/models"
)

func SetupRoutes(r *gin.Engine, env *controllers.Env, issuer *auth.Issuer) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := middleware.AuthMiddleware(issuer)
	admin := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")

	// auth
	a := api.Group("/auth")
	{
		a.POST("/send-otp", controllers.SendOTP(env))
		a.POST("/resend-otp", controllers.ResendOTP(env))
		a.POST("/verify-otp", controllers.VerifyOTP(env))
		a.POST("/login", controllers.Login(env))
		a.POST("/refresh", authed, controllers.RefreshToken(env))
	}

	// statuses
	statuses := api.Group("/statuses")
	{
		statuses.GET("", controllers.ListStatuses(env))
		statuses.GET("/:id", controllers.GetStatus(env))
		statuses.POST("/:id/use", controllers.RecordStatusUse(env))
		statuses.GET("/:id/stats", authed, admin, controllers.StatusStats(env))
		statuses.POST("", authed, admin, controllers.CreateStatus(env))
		statuses.PUT("/:id", authed, admin, controllers.UpdateStatus(env))
		statuses.DELETE("/:id", authed, admin, controllers.DeleteStatus(env))
	}

	categories := api.Group("/categories")
	{
		categories.GET("", controllers.ListCategories(env))
		categories.POST("", authed, admin, controllers.CreateCategory(env))
		categories.DELETE("/:id", authed, admin, controllers.DeleteCategory(env))
	}

	campaigns := api.Group("/campaigns")
	{
		campaigns.GET("", controllers.ListCampaigns(env))
		campaigns.GET("/:id", controllers.GetCampaign(env))
		campaigns.POST("", authed, admin, controllers.CreateCampaign(env))
		campaigns.PATCH("/:id", authed, admin, controllers.UpdateCampaign(env))
		campaigns.DELETE("/:id", authed, admin, controllers.DeleteCampaign(env))
	}

	institutes := api.Group("/institutes")
	{
		institutes.GET("", controllers.ListInstitutes(env))
		institutes.GET("/:id", controllers.GetInstitute(env))
		institutes.POST("", authed, admin, controllers.CreateInstitute(env))
		institutes.PATCH("/:id", authed, admin, controllers.UpdateInstitute(env))
		institutes.DELETE("/:id", authed, admin, controllers.DeleteInstitute(env))
	}

	receipts := api.Group("/receipts")
	{
		receipts.POST("", controllers.CreateReceipt(env))
		receipts.GET("", authed, controllers.ListReceipts(env))
		receipts.GET("/:id", authed, controllers.GetReceipt(env))
		receipts.PATCH("/:id", authed, admin, controllers.UpdateReceipt(env))
	}

	subs := api.Group("/subscriptions")
	subs.Use(authed)
	{
		subs.GET("", controllers.ListSubscriptions(env))
		subs.POST("", controllers.CreateSubscription(env))
		subs.GET("/:id", controllers.GetSubscription(env))
		subs.GET("/:id/stats", controllers.SubscriptionStats(env))
		subs.POST("/:id/cancel", controllers.CancelSubscription(env))
		subs.POST("/:id/pay", controllers.PaySubscription(env))
	}

	boxes := api.Group("/boxes")
	{
		boxes.GET("/userData", controllers.BoxByPhone(env))
		boxes.GET("/:id", controllers.GetBox(env))
	}
}
