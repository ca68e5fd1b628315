package handlers

import (
	"net/http"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/middleware"
	"github.com/developia-II/vendora-onboarding/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Auth       *AuthHandler
	Vendors    *VendorApplicationHandler
	Categories *CategoryHandler
	Tokens     *utils.TokenIssuer
	Registry   *prometheus.Registry
}

func SetupRoutes(router *gin.Engine, d Deps) {
	logrus.Info("Setting up routes...")

	router.Use(middleware.RequestID())
	if d.Registry != nil {
		router.Use(middleware.NewMetrics(d.Registry).Instrument())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "vendora-stub-api",
		})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/register", d.Auth.Register)
		api.POST("/login", d.Auth.Login)
		api.POST("/refresh-token", d.Auth.RefreshToken)
		api.POST("/otp/resend", d.Auth.ResendOTP)
		api.GET("/categories", d.Categories.GetAllProductCategories)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.Tokens))
	{
		protected.POST("/otp/verify", d.Auth.VerifyOTP)

		applications := protected.Group("/vendor/applications")
		applications.Use(middleware.RoleMiddleware(domain.RoleVendor))
		{
			applications.POST("", d.Vendors.Submit)
			applications.GET("", d.Vendors.Current)
		}
	}
}
