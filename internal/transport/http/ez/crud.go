// Package ez mounts owner-scoped CRUD routes for a model in one call.
package ez

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	mdw "estate-api/internal/transport/http/middleware"
	resp "estate-api/internal/transport/http/response"
)

// Owned is implemented by models that belong to a user. Every route the
// registrar mounts filters on the owner, so one user can never read or
// mutate another's rows.
type Owned interface {
	GetID() uint
	SetID(id uint)
	GetOwnerID() uint
	SetOwnerID(id uint)
}

type Hooks[T any] struct {
	BeforeCreate func(c *gin.Context, m *T) error
	BeforeUpdate func(c *gin.Context, m *T) error
	ScopeList    func(c *gin.Context, q *gorm.DB) *gorm.DB
}

type Config[T any] struct {
	DB    *gorm.DB
	Group *gin.RouterGroup // must run AuthJWT
	Path  string
	Hooks Hooks[T]
}

// Crud mounts POST/GET/GET:id/PUT:id/DELETE:id under cfg.Path. PT constrains
// *T to Owned without reflection.
func Crud[T any, PT interface {
	*T
	Owned
}](cfg Config[T]) {
	g := cfg.Group

	g.POST(cfg.Path, func(c *gin.Context) {
		uid, ok := ownerID(c)
		if !ok {
			return
		}
		m := PT(new(T))
		if err := c.ShouldBindJSON(m); err != nil {
			resp.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		m.SetID(0) // server-assigned
		m.SetOwnerID(uid)
		if cfg.Hooks.BeforeCreate != nil {
			if err := cfg.Hooks.BeforeCreate(c, (*T)(m)); err != nil {
				resp.Fail(c, http.StatusBadRequest, err.Error())
				return
			}
		}
		if err := cfg.DB.WithContext(c).Create(m).Error; err != nil {
			resp.FailErr(c, http.StatusInternalServerError, "create failed", err)
			return
		}
		resp.OK(c, http.StatusCreated, m)
	})

	g.GET(cfg.Path, func(c *gin.Context) {
		uid, ok := ownerID(c)
		if !ok {
			return
		}
		page := atoiDefault(c.Query("page"), 1)
		limit := atoiDefault(c.Query("limit"), 10)
		if limit > 100 {
			limit = 10
		}

		q := cfg.DB.WithContext(c).Model(new(T)).Where("owner_id = ?", uid)
		if cfg.Hooks.ScopeList != nil {
			q = cfg.Hooks.ScopeList(c, q)
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			resp.FailErr(c, http.StatusInternalServerError, "list failed", err)
			return
		}
		var items []T
		if err := q.Order("id desc").Limit(limit).Offset((page - 1) * limit).Find(&items).Error; err != nil {
			resp.FailErr(c, http.StatusInternalServerError, "list failed", err)
			return
		}
		resp.OK(c, http.StatusOK, gin.H{
			"items": items, "total": total, "page": page, "limit": limit,
		})
	})

	g.GET(cfg.Path+"/:id", func(c *gin.Context) {
		m, ok := loadOwned[T, PT](c, cfg.DB)
		if !ok {
			return
		}
		resp.OK(c, http.StatusOK, m)
	})

	// PUT binds onto the stored row: fields absent from the payload keep
	// their stored values (status, created_at included), so an update can
	// never zero out what the client did not send.
	g.PUT(cfg.Path+"/:id", func(c *gin.Context) {
		m, ok := loadOwned[T, PT](c, cfg.DB)
		if !ok {
			return
		}
		id, owner := m.GetID(), m.GetOwnerID()
		if err := c.ShouldBindJSON(m); err != nil {
			resp.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		// Identity and ownership are not client-writable.
		m.SetID(id)
		m.SetOwnerID(owner)
		if cfg.Hooks.BeforeUpdate != nil {
			if err := cfg.Hooks.BeforeUpdate(c, (*T)(m)); err != nil {
				resp.Fail(c, http.StatusBadRequest, err.Error())
				return
			}
		}
		if err := cfg.DB.WithContext(c).Save(m).Error; err != nil {
			resp.FailErr(c, http.StatusInternalServerError, "update failed", err)
			return
		}
		resp.OK(c, http.StatusOK, m)
	})

	g.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
		uid, ok := ownerID(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		res := cfg.DB.WithContext(c).Where("id = ? AND owner_id = ?", id, uid).Delete(new(T))
		if res.Error != nil {
			resp.FailErr(c, http.StatusInternalServerError, "delete failed", res.Error)
			return
		}
		if res.RowsAffected == 0 {
			resp.Fail(c, http.StatusNotFound, "not found")
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func loadOwned[T any, PT interface {
	*T
	Owned
}](c *gin.Context, db *gorm.DB) (PT, bool) {
	uid, ok := ownerID(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	m := PT(new(T))
	err := db.WithContext(c).Where("id = ? AND owner_id = ?", id, uid).First(m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resp.Fail(c, http.StatusNotFound, "not found")
		return nil, false
	}
	if err != nil {
		resp.FailErr(c, http.StatusInternalServerError, "lookup failed", err)
		return nil, false
	}
	return m, true
}

func ownerID(c *gin.Context) (uint, bool) {
	u := mdw.CurrentUser(c)
	if u == nil {
		resp.Fail(c, http.StatusUnauthorized, "missing token")
		return 0, false
	}
	return u.ID, true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		resp.Fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
