package admin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/asmitswain/portfolio/internal/storage"
)

// Register mounts the privacy page, the login flow and the protected
// /admin group. Templates "privacy", "admin-login", "admin-dashboard" and
// "admin-error" must be loaded on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy", gin.H{"title": "Privacy Policy"})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if !h.checkCredentials(c.PostForm("username"), c.PostForm("password")) {
			h.logger.Warn("failed admin login", zap.String("client", h.HashIP(c.ClientIP())))
			c.HTML(http.StatusUnauthorized, "admin-login", gin.H{"error": "Invalid credentials"})
			return
		}
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(cookieName, h.token, 3600*24, "/admin", "", c.Request.TLS != nil, true)
		h.logger.Info("admin login", zap.String("client", h.HashIP(c.ClientIP())))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(cookieName, "", -1, "/admin", "", c.Request.TLS != nil, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	g := r.Group("/admin")
	g.Use(h.RequireAuth())

	g.GET("/dashboard", func(c *gin.Context) {
		stats, err := h.Stats(c.Request.Context())
		if err != nil {
			h.logger.Error("load admin stats", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error", gin.H{"error": "Failed to load statistics"})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard", gin.H{"stats": stats})
	})

	g.GET("/api/stats", func(c *gin.Context) {
		stats, err := h.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	g.GET("/api/messages", func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit <= 0 || limit > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		msgs, err := h.messages.List(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	})

	g.GET("/api/messages/:id", func(c *gin.Context) {
		msg, err := h.messages.Get(c.Request.Context(), c.Param("id"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, msg)
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		default:
			h.logger.Error("get message", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load message"})
		}
	})

	g.DELETE("/api/messages/:id", func(c *gin.Context) {
		err := h.messages.Delete(c.Request.Context(), c.Param("id"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		default:
			h.logger.Error("delete message", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		}
	})

	g.POST("/privacy/cleanup", func(c *gin.Context) {
		h.track(func() { h.Cleanup(context.Background(), h.opts.Retention) })
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
	})

	g.GET("/export/stats", func(c *gin.Context) {
		stats, err := h.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		c.JSON(http.StatusOK, stats)
	})
}
