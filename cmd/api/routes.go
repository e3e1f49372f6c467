package main

import (
	"net/http"

	"declaration-platform/internal/httpapi"
	"declaration-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW, loginMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.GET("/ping", h.Ping)

	// AUTH routes (token issuance is public but throttled per client)
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", loginMW, h.Login)
		authGroup.POST("/logout", authMW, h.Logout)
		authGroup.GET("/me", authMW, h.Me)
	}

	// DECLARATION routes
	decls := v1.Group("/declarations")
	decls.Use(authMW)
	{
		decls.POST("", h.SubmitDeclaration)
		decls.GET("", h.ListDeclarations)
		decls.POST("/:id/commit", rbac.RequireCommitter(), h.CommitDeclaration)
	}

	// AUDIT routes
	v1.GET("/audit", authMW, h.ListAudit)
}
