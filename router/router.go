package router

import (
	"context"
	"net/http"
	"time"

	"hub/config"
	"hub/controllers"
	"hub/db"
	"hub/middleware"
	"hub/realtime"
	"hub/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Initialize wires all routes and middlewares: public routes, authenticated
// routes, validated routes (Authorizer) and permission guarded ones.
func Initialize(r *gin.Engine, svc *services.Services, hub *realtime.Hub, cfg config.Configuration, log zerolog.Logger) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.CorsOrigins...))
	r.Use(controllers.SetLogger(log))
	r.Use(db.SetStoreToContext(svc.Store))
	r.Use(controllers.SetServices(svc))
	if hub != nil {
		r.Use(controllers.SetHub(hub))
	}

	r.GET("/health", Health)

	api := r.Group("/api")
	api.Use(Logger(log))

	// Public (no auth)
	api.POST("/auth/login", controllers.Login)
	api.POST("/auth/signup", controllers.Signup)
	api.POST("/auth/confirm", controllers.ConfirmEmail)
	api.POST("/auth/resend-confirmation", controllers.ResendConfirmation)
	api.POST("/auth/forgot-password", controllers.ForgotPassword)
	api.POST("/auth/reset-password", controllers.ResetPassword)
	api.POST("/auth/refresh", controllers.Refresh)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())
	auth.POST("/auth/logout", controllers.Logout)
	auth.GET("/auth/session", controllers.SessionStatus)
	auth.POST("/auth/session/extend", controllers.ExtendSession)
	auth.GET("/me", controllers.Me)
	auth.GET("/workspaces", controllers.GetWorkspaces)
	auth.POST("/workspaces/select", controllers.SelectWorkspace)

	// Validated routes (token + active and confirmed user)
	validated := auth.Group("")
	validated.Use(Authorizer())

	validated.GET("/profile", controllers.GetProfile)
	validated.PUT("/profile", controllers.UpdateProfile)
	validated.POST("/profile/password", controllers.ChangePassword)

	validated.GET("/dashboard/widgets", controllers.GetWidgets)
	validated.POST("/dashboard/widgets/:id/toggle", controllers.ToggleWidget)
	validated.PATCH("/dashboard/widgets/:id", controllers.UpdateWidgetConfig)
	validated.PUT("/dashboard/positions", controllers.UpdateWidgetPositions)
	validated.GET("/dashboard/note", controllers.GetDashboardNote)
	validated.PUT("/dashboard/note", controllers.SaveDashboardNote)

	validated.GET("/notifications", controllers.GetNotifications)
	validated.GET("/notifications/count", controllers.GetNotificationCount)
	validated.GET("/notifications/ws", controllers.NotificationsSocket)
	validated.POST("/notifications/read-all", controllers.MarkAllNotificationsRead)
	validated.POST("/notifications/:id/read", controllers.MarkNotificationRead)
	validated.DELETE("/notifications/:id", controllers.DeleteNotification)

	validated.GET("/announcements/active", controllers.GetActiveAnnouncements)
	validated.POST("/support/reports", controllers.CreateErrorReport)

	validated.GET("/analytics", RequirePermission(services.PERM_BLOG_LIST), controllers.GetAnalytics)

	// Blog
	validated.GET("/blog/articles", RequirePermission(services.PERM_BLOG_LIST), controllers.GetArticles)
	validated.GET("/blog/articles/:id", RequirePermission(services.PERM_BLOG_LIST), controllers.GetArticle)
	validated.GET("/blog/metadata", RequirePermission(services.PERM_BLOG_LIST), controllers.GetBlogMetadata)
	validated.GET("/blog/stats", RequirePermission(services.PERM_BLOG_LIST), controllers.GetBlogStats)
	validated.POST("/blog/articles", RequirePermission(services.PERM_BLOG_CREATE), controllers.CreateArticle)
	validated.PUT("/blog/articles/:id", RequirePermission(services.PERM_BLOG_UPDATE), controllers.UpdateArticle)
	validated.DELETE("/blog/articles/:id", RequirePermission(services.PERM_BLOG_DELETE), controllers.DeleteArticle)

	// Supply
	validated.GET("/supply/categories", RequirePermission(services.PERM_SUPPLY_LIST), controllers.GetSupplyCategories)
	validated.POST("/supply/categories", RequirePermission(services.PERM_SUPPLY_CREATE), controllers.CreateSupplyCategory)
	validated.GET("/supply/warehouses", RequirePermission(services.PERM_SUPPLY_LIST), controllers.GetWarehouses)
	validated.POST("/supply/warehouses", RequirePermission(services.PERM_SUPPLY_CREATE), controllers.CreateWarehouse)
	validated.GET("/supply/products", RequirePermission(services.PERM_SUPPLY_LIST), controllers.GetProducts)
	validated.GET("/supply/products/:id", RequirePermission(services.PERM_SUPPLY_LIST), controllers.GetProduct)
	validated.POST("/supply/products", RequirePermission(services.PERM_SUPPLY_CREATE), controllers.CreateProduct)
	validated.PUT("/supply/products/:id", RequirePermission(services.PERM_SUPPLY_UPDATE), controllers.UpdateProduct)
	validated.DELETE("/supply/products/:id", RequirePermission(services.PERM_SUPPLY_DELETE), controllers.DeleteProduct)
	validated.GET("/supply/requests", RequirePermission(services.PERM_SUPPLY_LIST), controllers.GetSupplyRequests)
	validated.GET("/supply/requests/:id", RequirePermission(services.PERM_SUPPLY_LIST), controllers.GetSupplyRequest)
	validated.POST("/supply/requests", RequirePermission(services.PERM_SUPPLY_CREATE), controllers.CreateSupplyRequest)
	validated.POST("/supply/requests/:id/authorize", RequirePermission(services.PERM_SUPPLY_AUTHORIZE), controllers.AuthorizeSupplyRequest)
	validated.POST("/supply/requests/:id/reject", RequirePermission(services.PERM_SUPPLY_AUTHORIZE), controllers.RejectSupplyRequest)
	validated.POST("/supply/requests/:id/deliver", RequirePermission(services.PERM_SUPPLY_DELIVER), controllers.DeliverSupplyRequest)

	// Expedientes
	validated.GET("/ubicaciones", RequirePermission(services.PERM_EXPEDIENTES_LIST), controllers.GetUbicaciones)
	validated.POST("/ubicaciones", RequirePermission(services.PERM_EXPEDIENTES_CREATE), controllers.CreateUbicacion)
	validated.GET("/expedientes", RequirePermission(services.PERM_EXPEDIENTES_LIST), controllers.GetExpedientes)
	validated.GET("/expedientes/stats", RequirePermission(services.PERM_EXPEDIENTES_LIST), controllers.GetExpedienteStats)
	validated.GET("/expedientes/:id", RequirePermission(services.PERM_EXPEDIENTES_LIST), controllers.GetExpediente)
	validated.POST("/expedientes", RequirePermission(services.PERM_EXPEDIENTES_CREATE), controllers.CreateExpediente)
	validated.PUT("/expedientes/:id", RequirePermission(services.PERM_EXPEDIENTES_UPDATE), controllers.UpdateExpediente)
	validated.DELETE("/expedientes/:id", RequirePermission(services.PERM_EXPEDIENTES_DELETE), controllers.DeleteExpediente)

	// Admin routes
	admin := validated.Group("/admin")

	admin.GET("/users", RequirePermission(services.PERM_USERS_LIST), controllers.GetUsers)
	admin.GET("/users/:id", RequirePermission(services.PERM_USERS_LIST), controllers.GetUser)
	admin.POST("/users", RequirePermission(services.PERM_USERS_CREATE), controllers.CreateUser)
	admin.PUT("/users/:id", RequirePermission(services.PERM_USERS_UPDATE), controllers.UpdateUser)
	admin.POST("/users/:id/toggle", RequirePermission(services.PERM_USERS_UPDATE), controllers.ToggleUserActive)
	admin.POST("/users/:id/roles", RequirePermission(services.PERM_USERS_UPDATE), controllers.AssignUserRole)
	admin.DELETE("/users/:id", RequirePermission(services.PERM_USERS_DELETE), controllers.DeleteUser)
	admin.DELETE("/assignments/:id", RequirePermission(services.PERM_USERS_UPDATE), controllers.RemoveUserAssignment)

	admin.GET("/roles", RequirePermission(services.PERM_ROLES_LIST), controllers.GetRoles)
	admin.GET("/roles/:id", RequirePermission(services.PERM_ROLES_LIST), controllers.GetRole)
	admin.GET("/permissions", RequirePermission(services.PERM_ROLES_LIST), controllers.GetPermissions)
	admin.POST("/roles", RequirePermission(services.PERM_ROLES_CREATE), controllers.CreateRole)
	admin.PUT("/roles/:id", RequirePermission(services.PERM_ROLES_UPDATE), controllers.UpdateRole)
	admin.DELETE("/roles/:id", RequirePermission(services.PERM_ROLES_DELETE), controllers.DeleteRole)

	admin.GET("/tenants", RequirePermission(services.PERM_TENANTS_LIST), controllers.GetTenants)
	admin.GET("/tenants/:id", RequirePermission(services.PERM_TENANTS_LIST), controllers.GetTenant)
	admin.POST("/tenants", RequirePermission(services.PERM_TENANTS_CREATE), controllers.CreateTenant)
	admin.PUT("/tenants/:id", RequirePermission(services.PERM_TENANTS_UPDATE), controllers.UpdateTenant)
	admin.DELETE("/tenants/:id", RequirePermission(services.PERM_TENANTS_DELETE), controllers.DeleteTenant)

	admin.GET("/audit", RequirePermission(services.PERM_AUDIT_LIST), controllers.GetAuditLogs)

	announcements := admin.Group("/announcements")
	announcements.Use(RequirePermission(services.PERM_ANNOUNCEMENTS_MANAGE))
	announcements.GET("", controllers.GetAnnouncements)
	announcements.POST("", controllers.CreateAnnouncement)
	announcements.PUT("/:id", controllers.UpdateAnnouncement)
	announcements.DELETE("/:id", controllers.DeleteAnnouncement)

	support := admin.Group("/support")
	support.Use(RequirePermission(services.PERM_SUPPORT_MANAGE))
	support.GET("/reports", controllers.GetErrorReports)
	support.PUT("/reports/:id", controllers.UpdateErrorReport)

	log.Info().Int("routes", len(r.Routes())).Msg("routes initialized")
}

// Health reports whether the store answers.
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := db.StoreInstance(c).Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": "ok"})
}
