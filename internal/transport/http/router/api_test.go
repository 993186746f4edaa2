package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"estate-api/internal/core/auth"
	"estate-api/internal/core/cache"
	"estate-api/internal/domain"
	"estate-api/internal/repo"
	"estate-api/internal/service"
	"estate-api/internal/transport/http/handler"
	"estate-api/pkg/utils"
)

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	users  *repo.UserRepo
	tokens *auth.Tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Property{}))

	tokens, err := auth.New("access-secret", "refresh-secret", "estate-api-test",
		15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	log := zap.NewNop()
	users := repo.NewUserRepo(db)
	props := repo.NewPropertyRepo(db)
	authSvc := service.NewAuthService(users, tokens, cache.NewMemoryRotation(), log)
	adminSvc := service.NewUserAdminService(users)
	propSvc := service.NewPropertyService(props, nil)

	engine := NewAPIEngine(log, APIDeps{
		DB:     db,
		Tokens: tokens,
		Users:  users,
		Auth:   handler.NewAuthHandler(authSvc, log),
		Admin:  handler.NewUserAdminHandler(adminSvc, log),
		Props:  handler.NewPropertyHandler(propSvc, log),
	})
	return &testEnv{engine: engine, db: db, users: users, tokens: tokens}
}

type env struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, env) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out env
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	}
	return w, out
}

// seedAdmin inserts a privileged user directly, the way an ops bootstrap
// would, bypassing the register path that forces role=user.
func (e *testEnv) seedAdmin(t *testing.T, email string, role domain.Role) (*domain.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("adminpass")
	require.NoError(t, err)
	u := &domain.User{
		FirstName:    "Ops",
		LastName:     "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	token, err := e.tokens.Issue(u, auth.KindAccess)
	require.NoError(t, err)
	return u, token
}

func TestAuthFlowEndToEnd(t *testing.T) {
	e := newTestEnv(t)

	reg := map[string]string{
		"email": "a@b.com", "password": "secret1",
		"firstName": "A", "lastName": "B",
	}

	// Register → 201, role user.
	w, out := e.request(t, http.MethodPost, "/api/register", "", reg)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess struct {
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		User         domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &sess))
	assert.Equal(t, domain.RoleUser, sess.User.Role)
	require.NotEmpty(t, sess.AccessToken)
	require.NotEmpty(t, sess.RefreshToken)
	assert.NotContains(t, w.Body.String(), "password")

	// Same email again → duplicate.
	w, out = e.request(t, http.MethodPost, "/api/register", "", reg)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, out.Message, "already registered")

	// Wrong password → generic 401.
	w, out = e.request(t, http.MethodPost, "/api/login", "",
		map[string]string{"email": "a@b.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", out.Message)

	// Correct password → fresh pair.
	w, out = e.request(t, http.MethodPost, "/api/login", "",
		map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(out.Data, &sess))
	require.NotEmpty(t, sess.AccessToken)

	// /me with the access token.
	w, out = e.request(t, http.MethodGet, "/api/me", sess.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &me))
	assert.Equal(t, "a@b.com", me.User.Email)

	// An expired access token is rejected.
	expired := expiredAccessToken(t, &sess.User)
	w, _ = e.request(t, http.MethodGet, "/api/me", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The refresh token mints a working replacement.
	w, out = e.request(t, http.MethodPost, "/api/refresh", "",
		map[string]string{"refreshToken": sess.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &pair))

	w, _ = e.request(t, http.MethodGet, "/api/me", pair.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The consumed refresh token is dead.
	w, _ = e.request(t, http.MethodPost, "/api/refresh", "",
		map[string]string{"refreshToken": sess.RefreshToken})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Missing refresh token → 401.
	w, _ = e.request(t, http.MethodPost, "/api/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func expiredAccessToken(t *testing.T, u *domain.User) string {
	t.Helper()
	stale, err := auth.New("access-secret", "refresh-secret", "estate-api-test",
		15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	stale.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	s, err := stale.Issue(u, auth.KindAccess)
	require.NoError(t, err)
	return s
}

func TestRoleGates(t *testing.T) {
	e := newTestEnv(t)

	admin, adminTok := e.seedAdmin(t, "admin@example.com", domain.RoleAdmin)
	_, managerTok := e.seedAdmin(t, "manager@example.com", domain.RoleManager)
	user, userTok := e.seedAdmin(t, "plain@example.com", domain.RoleUser)

	// Plain users cannot list users.
	w, out := e.request(t, http.MethodGet, "/api/users", userTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient permissions", out.Message)

	// No token at all.
	w, _ = e.request(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Managers can read the list; responses never carry password material.
	w, _ = e.request(t, http.MethodGet, "/api/users", managerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	// Managers cannot create users.
	w, _ = e.request(t, http.MethodPost, "/api/users", managerTok, map[string]any{
		"email": "x@example.com", "password": "secret1",
		"firstName": "X", "lastName": "Y", "role": "support",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admins can, with a selectable role.
	w, out = e.request(t, http.MethodPost, "/api/users", adminTok, map[string]any{
		"email": "support@example.com", "password": "secret1",
		"firstName": "Sup", "lastName": "Port", "role": "support",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		User domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &created))
	assert.Equal(t, domain.RoleSupport, created.User.Role)

	// Role changes: unknown role is a 400, self-change is a 400.
	path := fmt.Sprintf("/api/users/%d/role", created.User.ID)
	w, _ = e.request(t, http.MethodPatch, path, adminTok, map[string]string{"role": "czar"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	selfPath := fmt.Sprintf("/api/users/%d/role", admin.ID)
	w, out = e.request(t, http.MethodPatch, selfPath, adminTok, map[string]string{"role": "user"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out.Message, "own role")

	// Self-delete is a 400; deleting another user is a 204.
	w, _ = e.request(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", admin.ID), adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.request(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", user.ID), adminTok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The deleted user's still-unexpired token no longer passes the gate.
	w, _ = e.request(t, http.MethodGet, "/api/me", userTok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileUpdate(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.seedAdmin(t, "self@example.com", domain.RoleUser)

	w, out := e.request(t, http.MethodPut, "/api/profile", tok, map[string]string{
		"firstName": "Renamed", "phoneNumber": "8 916 123-45-67",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me struct {
		User domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &me))
	assert.Equal(t, "Renamed", me.User.FirstName)
	assert.Equal(t, "79161234567", me.User.PhoneNumber)

	// A role field in the payload is simply ignored: no self-escalation.
	w, out = e.request(t, http.MethodPut, "/api/profile", tok, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(out.Data, &me))
	assert.Equal(t, domain.RoleUser, me.User.Role)
}

func TestPropertyOwnershipAndListing(t *testing.T) {
	e := newTestEnv(t)
	_, aliceTok := e.seedAdmin(t, "alice@example.com", domain.RoleUser)
	_, bobTok := e.seedAdmin(t, "bob@example.com", domain.RoleUser)

	// Alice publishes one property and drafts another.
	w, out := e.request(t, http.MethodPost, "/api/my/properties", aliceTok, map[string]any{
		"title": "Two-room flat", "address": "Tverskaya 1", "price": 12500000,
		"rooms": 2, "area": 54.5, "status": "published",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var prop domain.Property
	require.NoError(t, json.Unmarshal(out.Data, &prop))
	require.NotZero(t, prop.ID)

	w, _ = e.request(t, http.MethodPost, "/api/my/properties", aliceTok, map[string]any{
		"title": "Dacha", "address": "Outside town", "price": 3000000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Owners cannot set archived status directly.
	w, _ = e.request(t, http.MethodPost, "/api/my/properties", aliceTok, map[string]any{
		"title": "Sneaky", "address": "Nowhere", "price": 1, "status": "archived",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bob cannot see Alice's property through the owner-scoped routes.
	w, _ = e.request(t, http.MethodGet, fmt.Sprintf("/api/my/properties/%d", prop.ID), bobTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = e.request(t, http.MethodDelete, fmt.Sprintf("/api/my/properties/%d", prop.ID), bobTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// An update that omits status and ownership fields must not clobber
	// them, and created_at survives the round trip.
	var before domain.Property
	require.NoError(t, e.db.First(&before, prop.ID).Error)
	require.False(t, before.CreatedAt.IsZero())

	w, _ = e.request(t, http.MethodPut, fmt.Sprintf("/api/my/properties/%d", prop.ID), aliceTok, map[string]any{
		"title": "Two-room flat", "address": "Tverskaya 1", "price": 13000000,
		"id": 4242, "ownerId": 999,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var after domain.Property
	require.NoError(t, e.db.First(&after, prop.ID).Error)
	assert.EqualValues(t, 13000000, after.Price)
	assert.Equal(t, domain.PropertyPublished, after.Status, "status not sent, must keep its value")
	assert.Equal(t, before.CreatedAt.Unix(), after.CreatedAt.Unix(), "created_at must survive an update")
	assert.Equal(t, before.OwnerID, after.OwnerID)

	// The public listing carries only the published one, no auth required.
	w, out = e.request(t, http.MethodGet, "/api/properties", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Properties []domain.Property `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &listing))
	require.Len(t, listing.Properties, 1)
	assert.Equal(t, "Two-room flat", listing.Properties[0].Title)
}
