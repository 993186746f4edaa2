package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-api/internal/service"
	mdw "estate-api/internal/transport/http/middleware"
	resp "estate-api/internal/transport/http/response"
)

type AuthHandler struct {
	auth *service.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type registerReq struct {
	FirstName   string `json:"firstName" binding:"required,max=64"`
	LastName    string `json:"lastName" binding:"required,max=64"`
	Patronymic  string `json:"patronymic" binding:"omitempty,max=64"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,min=10"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type sessionData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         any    `json:"user"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, pair, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Patronymic:  req.Patronymic,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusCreated, sessionData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u,
	})
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		// A malformed email here still gets the generic credentials
		// message: the login surface reveals nothing about its inputs.
		resp.Fail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}
	u, pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, sessionData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u,
	})
}

// POST /api/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusUnauthorized, "missing refresh token")
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, pair)
}

// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	u := mdw.CurrentUser(c)
	if u == nil {
		resp.Fail(c, http.StatusUnauthorized, "missing token")
		return
	}
	// Re-read: the gate resolved the user, but /me reports current state.
	fresh, err := h.auth.CurrentUser(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, gin.H{"user": fresh})
}

type profileReq struct {
	FirstName   *string `json:"firstName" binding:"omitempty,max=64"`
	LastName    *string `json:"lastName" binding:"omitempty,max=64"`
	Patronymic  *string `json:"patronymic" binding:"omitempty,max=64"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (r profileReq) patch() service.ProfilePatch {
	return service.ProfilePatch{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Patronymic:  r.Patronymic,
		Email:       r.Email,
		Password:    r.Password,
		PhoneNumber: r.PhoneNumber,
	}
}

// PUT /api/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	u := mdw.CurrentUser(c)
	if u == nil {
		resp.Fail(c, http.StatusUnauthorized, "missing token")
		return
	}
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.auth.UpdateProfile(c.Request.Context(), u.ID, req.patch())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, gin.H{"user": updated})
}

// POST /api/logout — stateless: the server holds no session to destroy,
// the client discards its tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context())
	resp.Message(c, http.StatusOK, "logged out")
}
