package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"estate-api/internal/core/auth"
	"estate-api/internal/domain"
	"estate-api/internal/transport/http/ez"
	"estate-api/internal/transport/http/handler"
	mdw "estate-api/internal/transport/http/middleware"
)

type APIDeps struct {
	DB     *gorm.DB
	Tokens *auth.Tokens
	Users  domain.UserRepository
	Auth   *handler.AuthHandler
	Admin  *handler.UserAdminHandler
	Props  *handler.PropertyHandler
}

// NewAPIEngine wires the public API surface.
func NewAPIEngine(l *zap.Logger, d APIDeps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(50, 100),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	api := r.Group("/api")

	// Public.
	api.POST("/register", d.Auth.Register)
	api.POST("/login", d.Auth.Login)
	api.POST("/refresh", d.Auth.Refresh)
	api.GET("/properties", d.Props.ListPublished)

	// Any authenticated identity.
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.Tokens, d.Users))
	authed.GET("/me", d.Auth.Me)
	authed.PUT("/profile", d.Auth.UpdateProfile)
	authed.POST("/logout", d.Auth.Logout)

	// User management, role-gated per route.
	authed.GET("/users", mdw.RequireRoles(domain.RoleAdmin, domain.RoleManager), d.Admin.List)
	authed.POST("/users", mdw.RequireRoles(domain.RoleAdmin), d.Admin.Create)
	authed.GET("/users/:id", mdw.RequireRoles(domain.RoleAdmin, domain.RoleManager), d.Admin.Get)
	authed.PUT("/users/:id", mdw.RequireRoles(domain.RoleAdmin), d.Admin.Update)
	authed.DELETE("/users/:id", mdw.RequireRoles(domain.RoleAdmin), d.Admin.Delete)
	authed.PATCH("/users/:id/role", mdw.RequireRoles(domain.RoleAdmin), d.Admin.UpdateRole)

	// Owner-scoped property CRUD.
	ez.Crud[domain.Property](ez.Config[domain.Property]{
		DB:    d.DB,
		Group: authed,
		Path:  "/my/properties",
		Hooks: ez.Hooks[domain.Property]{
			BeforeCreate: propertyStatusCheck,
			BeforeUpdate: propertyStatusCheck,
		},
	})

	return r
}

// propertyStatusCheck defaults an empty status to draft and blocks owners
// from setting archived — that transition is moderation-only.
func propertyStatusCheck(_ *gin.Context, p *domain.Property) error {
	switch p.Status {
	case "":
		p.Status = domain.PropertyDraft
		return nil
	case domain.PropertyDraft, domain.PropertyPublished:
		return nil
	default:
		return domain.Validation("status", "must be draft or published")
	}
}
