package main

import (
	"context"
	"net/http"

	"account_service/internal/apperror"
	"account_service/internal/config"
	"account_service/internal/handler"
	"account_service/internal/middleware"
	"account_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type routerDeps struct {
	cfg         *config.Config
	log         logrus.FieldLogger
	db          pinger
	authService service.AuthService
	limiter     *middleware.RateLimiter
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.log))
	router.Use(middleware.ErrorHandler(d.log, d.cfg.IsDevelopment()))

	// Simple CORS middleware
	router.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound(middleware.CodeResourceNotFound, middleware.MsgResourceNotFound))
	})

	router.GET("/health", func(c *gin.Context) {
		if err := d.db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api/v1")
	if d.limiter != nil {
		apiGroup.Use(d.limiter.Middleware(d.log))
	}

	authHandler := handler.NewAuthHandler(d.authService, d.cfg.CookieExpire, d.cfg.IsProduction())
	authHandler.RegisterAuthRoutes(apiGroup, middleware.Protect(d.authService))

	return router
}
