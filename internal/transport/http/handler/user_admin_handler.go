package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-api/internal/domain"
	"estate-api/internal/service"
	mdw "estate-api/internal/transport/http/middleware"
	resp "estate-api/internal/transport/http/response"
)

type UserAdminHandler struct {
	users *service.UserAdminService
	log   *zap.Logger
}

func NewUserAdminHandler(users *service.UserAdminService, log *zap.Logger) *UserAdminHandler {
	return &UserAdminHandler{users: users, log: log}
}

type listQ struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=10"`
}

// GET /api/users (admin, manager)
func (h *UserAdminHandler) List(c *gin.Context) {
	var q listQ
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	users, p, err := h.users.List(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, gin.H{"users": users, "pagination": p})
}

type createUserReq struct {
	registerReq
	Role domain.Role `json:"role" binding:"omitempty,oneof=user admin manager support"`
}

// POST /api/users (admin)
func (h *UserAdminHandler) Create(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		RegisterInput: service.RegisterInput{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Patronymic:  req.Patronymic,
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
		},
		Role: req.Role,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusCreated, gin.H{"user": u})
}

// GET /api/users/:id (admin, manager)
func (h *UserAdminHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, gin.H{"user": u})
}

// PUT /api/users/:id (admin)
func (h *UserAdminHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, req.patch())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, gin.H{"user": u})
}

type roleReq struct {
	Role domain.Role `json:"role" binding:"required"`
}

// PATCH /api/users/:id/role (admin)
func (h *UserAdminHandler) UpdateRole(c *gin.Context) {
	actor := mdw.CurrentUser(c)
	if actor == nil {
		resp.Fail(c, http.StatusUnauthorized, "missing token")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.users.UpdateRole(c.Request.Context(), actor.ID, id, req.Role)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, gin.H{"user": u})
}

// DELETE /api/users/:id (admin)
func (h *UserAdminHandler) Delete(c *gin.Context) {
	actor := mdw.CurrentUser(c)
	if actor == nil {
		resp.Fail(c, http.StatusUnauthorized, "missing token")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), actor.ID, id); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		resp.Fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}
