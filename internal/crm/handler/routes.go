package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/middleware"
)

// RouteOptions 路由装配参数
type RouteOptions struct {
	Auth      middleware.AuthOptions
	Version   string
	BuildTime string
	// Ready 就绪检查，nil 视为就绪
	Ready func() error
	// Metrics 非 nil 时挂载 /metrics
	Metrics http.Handler
	// APIMiddleware 作用于 /api 下所有路由（限流等）
	APIMiddleware []gin.HandlerFunc
}

// RegisterRoutes 注册全部路由
func RegisterRoutes(r *gin.Engine, h *Handlers, opts RouteOptions) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "Gajrajah CRM API",
			"version": opts.Version,
			"status":  "running",
		})
	})

	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    opts.Version,
			"build_time": opts.BuildTime,
		})
	})

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	r.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "Not found")
	})

	api := r.Group("/api")
	api.Use(opts.APIMiddleware...)
	{
		// 无需登录
		api.POST("/auth/login", h.Auth.Login)

		authorized := api.Group("")
		authorized.Use(middleware.BearerAuth(opts.Auth))
		{
			authorized.GET("/auth/me", h.Auth.Me)

			h.Project.register(authorized.Group("/projects"))
			h.Lead.register(authorized.Group("/leads"))
			h.Booking.register(authorized.Group("/bookings"))
			h.Inventory.register(authorized.Group("/inventory"))
			h.User.register(authorized.Group("/users"))
			h.SiteVisit.register(authorized.Group("/site-visits"))

			authorized.GET("/settings", h.Settings.Get)
			authorized.PUT("/settings", h.Settings.Update)

			authorized.GET("/dashboard/stats", h.Dashboard.Stats)

			reports := authorized.Group("/reports")
			{
				reports.GET("/summary", h.Report.Summary)
				reports.GET("/leads/export", h.Report.ExportLeads)
				reports.GET("/leads/template", h.Report.LeadTemplate)
				reports.GET("/bookings/export", h.Report.ExportBookings)
			}

			// SSE，token 可走 query 参数
			authorized.GET("/events", h.SSE.Stream)
		}
	}
}
