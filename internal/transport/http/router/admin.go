package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"estate-api/internal/core/auth"
	"estate-api/internal/domain"
	"estate-api/internal/transport/http/handler"
	mdw "estate-api/internal/transport/http/middleware"
)

type AdminDeps struct {
	Tokens *auth.Tokens
	Users  domain.UserRepository
	Admin  *handler.UserAdminHandler
	Props  *handler.PropertyHandler
}

// NewAdminEngine wires the back-office console: admin-only user management
// and property moderation, plus the prometheus scrape target.
func NewAdminEngine(l *zap.Logger, d AdminDeps) *gin.Engine {
	r := gin.New()

	r.Use(
		ginzap.Ginzap(l, time.RFC3339, true),
		ginzap.RecoveryWithZap(l, true),
		cors.Default(),
		mdw.RequestID(),
		mdw.RateLimit(100, 200),
		mdw.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.Tokens, d.Users), mdw.RequireRoles(domain.RoleAdmin))

	admin.GET("/users", d.Admin.List)
	admin.POST("/users", d.Admin.Create)
	admin.GET("/users/:id", d.Admin.Get)
	admin.PUT("/users/:id", d.Admin.Update)
	admin.DELETE("/users/:id", d.Admin.Delete)
	admin.PATCH("/users/:id/role", d.Admin.UpdateRole)

	admin.POST("/properties/:id/archive", d.Props.Archive)

	return r
}
