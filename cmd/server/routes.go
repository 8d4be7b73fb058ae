package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ekyc.backend/internal/interfaces/http/handlers"
	"ekyc.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	kycHandler         *handlers.KYCHandler
	applicationHandler *handlers.ApplicationHandler
	scoringHandler     *handlers.ScoringHandler
	authMiddleware     gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// KYC workflow routes (protected)
		kyc := v1.Group("/kyc")
		kyc.Use(d.authMiddleware)
		{
			kyc.POST("/start", d.kycHandler.Start)
			kyc.GET("/status", d.kycHandler.GetStatus)
			kyc.POST("/complete-step", d.kycHandler.CompleteStep)
			kyc.POST("/verify-identity", d.kycHandler.VerifyIdentity)
			kyc.POST("/send-phone-code", d.kycHandler.SendPhoneCode)
			kyc.POST("/verify-phone", d.kycHandler.VerifyPhone)
			kyc.GET("/calculate-score", d.kycHandler.CalculateScore)
		}

		// Credit scoring routes (protected)
		scoring := v1.Group("/scoring")
		scoring.Use(d.authMiddleware)
		{
			scoring.POST("/applications", middleware.IdempotencyMiddleware(), d.applicationHandler.Create)
			scoring.GET("/applications", d.applicationHandler.List)
			scoring.GET("/applications/:applicationId", d.applicationHandler.Get)
			scoring.PUT("/applications/:applicationId/progress", d.applicationHandler.UpdateStep)
			scoring.POST("/applications/:applicationId/submit", d.applicationHandler.Submit)
			scoring.POST("/calculate-preliminary", d.scoringHandler.Preliminary)
		}
	}
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "ekyc-backend",
			"version": "0.1.0",
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}
