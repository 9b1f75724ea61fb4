package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gradvillage.backend/internal/interfaces/http/handlers"
	"gradvillage.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "gradvillage-backend"
	serviceVersion = "1.0.0"
)

type routeDeps struct {
	authHandler                *handlers.AuthHandler
	registrationPaymentHandler *handlers.RegistrationPaymentHandler
	donationHandler            *handlers.DonationHandler
	webhookHandler             *handlers.WebhookHandler
	studentHandler             *handlers.StudentHandler
	adminHandler               *handlers.AdminHandler
	authMiddleware             gin.HandlerFunc
	optionalAuthMiddleware     gin.HandlerFunc
}

// applyCORSMiddleware reflects allowed origins with credentials. An empty
// allowlist accepts every origin, which is how local development runs.
func applyCORSMiddleware(r *gin.Engine, allowed []string) {
	allow := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allow[strings.TrimRight(o, "/")] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, ok := allow[origin]
		switch {
		case origin == "":
			c.Header("Access-Control-Allow-Origin", "*")
		case len(allow) == 0 || ok:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		default:
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, Idempotency-Key, Stripe-Signature, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Idempotency-Replayed")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerAPIRoutes(r *gin.Engine, d routeDeps) {
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", d.authHandler.Login)
			auth.POST("/register-donor", d.authHandler.RegisterDonor)
			auth.GET("/me", d.authMiddleware, d.authHandler.Me)
		}

		// Registration payment (public signup + fee)
		registration := api.Group("/registration-payment")
		{
			registration.POST("/process", middleware.IdempotencyMiddleware(), d.registrationPaymentHandler.ProcessPayment)
			registration.GET("/tax-receipt/:receiptNumber", d.registrationPaymentHandler.GetTaxReceipt)
			registration.GET("/tax-receipts", d.authMiddleware, d.registrationPaymentHandler.ListTaxReceipts)
			registration.GET("/health", d.registrationPaymentHandler.Health)
		}

		// Donations (anonymous or signed-in donors)
		donations := api.Group("/donations")
		{
			donations.POST("", d.optionalAuthMiddleware, middleware.IdempotencyMiddleware(), d.donationHandler.CreateDonation)
			donations.GET("/mine", d.authMiddleware, d.donationHandler.ListMyDonations)
		}

		// Gateway callbacks, authenticated by signature
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/payment", d.webhookHandler.HandlePaymentWebhook)
		}

		students := api.Group("/students")
		{
			students.GET("", d.studentHandler.ListPublic)

			self := students.Group("", d.authMiddleware, middleware.RequireStudent())
			{
				self.GET("/me", d.studentHandler.GetProfile)
				self.PATCH("/me", d.studentHandler.UpdateProfile)
				self.POST("/verify-school", d.studentHandler.SubmitVerification)
				self.GET("/verify-school/status", d.studentHandler.GetVerificationStatus)
				self.GET("/registration-fee/status", d.studentHandler.GetRegistrationFeeStatus)
				self.POST("/welcome-box/request", d.studentHandler.RequestWelcomeBox)
				self.GET("/welcome-box/status", d.studentHandler.GetWelcomeBox)
			}

			students.GET("/:slug", d.studentHandler.GetPublicBySlug)
		}

		// Admin routes (protected)
		admin := api.Group("/admin")
		admin.Use(d.authMiddleware, middleware.RequireAdmin())
		{
			admin.GET("/students", d.adminHandler.ListStudents)
			admin.GET("/students/:id", d.adminHandler.GetStudent)
			admin.PATCH("/students/:id/status", d.adminHandler.UpdateStudentStatus)

			admin.GET("/verifications", d.adminHandler.ListVerifications)
			admin.GET("/verifications/:id", d.adminHandler.GetVerification)
			admin.PATCH("/verifications/:id", d.adminHandler.ReviewVerification)

			admin.GET("/analytics", d.adminHandler.GetAnalytics)

			admin.GET("/welcome-boxes", d.adminHandler.ListWelcomeBoxes)
			admin.PATCH("/welcome-boxes/:id", d.adminHandler.UpdateWelcomeBox)

			admin.GET("/outbox", d.adminHandler.ListOutbox)
			admin.POST("/outbox/:id/retry", d.adminHandler.RetryOutbox)
		}
	}
}
