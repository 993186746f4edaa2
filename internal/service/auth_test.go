package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
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
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Property{}))
	return db
}

func newTestTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tk, err := auth.New("access-secret", "refresh-secret", "estate-api-test",
		15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return tk
}

func newAuthService(t *testing.T) (*AuthService, domain.UserRepository, *auth.Tokens) {
	t.Helper()
	users := repo.NewUserRepo(newTestDB(t))
	tokens := newTestTokens(t)
	svc := NewAuthService(users, tokens, cache.NewMemoryRotation(), zap.NewNop())
	return svc, users, tokens
}

func registerInput() RegisterInput {
	return RegisterInput{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Password:  "secret1",
	}
}

func TestRegisterIssuesUserRoleTokens(t *testing.T) {
	svc, _, tokens := newAuthService(t)
	ctx := context.Background()

	in := registerInput()
	u, pair, err := svc.Register(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	assert.Equal(t, domain.RoleUser, u.Role)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := tokens.Verify(pair.AccessToken, auth.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UID)
	assert.Equal(t, "user", claims.Role)

	// Subsequent login with the same credentials succeeds.
	logged, pair2, err := svc.Login(ctx, in.Email, in.Password)
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.NotEmpty(t, pair2.AccessToken)
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	svc, users, _ := newAuthService(t)
	ctx := context.Background()

	in := RegisterInput{FirstName: "A", LastName: "B", Email: "Dup@Example.com", Password: "secret1"}
	_, _, err := svc.Register(ctx, in)
	require.NoError(t, err)

	in2 := in
	in2.Email = "dup@example.COM"
	_, _, err = svc.Register(ctx, in2)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, total, err := users.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	in := registerInput()
	_, _, err := svc.Register(ctx, in)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, in.Email, "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	in := registerInput()
	in.Password = "short"
	_, _, err := svc.Register(ctx, in)
	assert.True(t, domain.IsValidation(err), "short password: %v", err)

	in = registerInput()
	in.FirstName = "  "
	_, _, err = svc.Register(ctx, in)
	assert.True(t, domain.IsValidation(err), "blank first name: %v", err)

	in = registerInput()
	in.PhoneNumber = "12345"
	_, _, err = svc.Register(ctx, in)
	assert.True(t, domain.IsValidation(err), "bad phone: %v", err)
}

func TestRegisterNormalizesPhone(t *testing.T) {
	svc, _, _ := newAuthService(t)
	in := registerInput()
	in.PhoneNumber = "8 (916) 123-45-67"
	u, _, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "79161234567", u.PhoneNumber)
}

func TestRefreshRotation(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	// First refresh rotates the pair.
	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)
	require.NotEmpty(t, next.RefreshToken)

	// The consumed token is dead on replay.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenConsumed)

	// The rotated one still works.
	_, err = svc.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)

	// An access token is never accepted on the refresh path.
	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// Garbage fails closed.
	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefreshRotationOnSimulatedClock(t *testing.T) {
	svc, _, tokens := newAuthService(t)
	ctx := context.Background()

	// Run the whole flow on a clock far in the past. The consumed-token
	// TTL must come from the same clock that issued the token; measured
	// against the wall clock the token looks long expired, the entry
	// would be dropped and a replay would go through.
	base := time.Now().Add(-10 * 24 * time.Hour)
	tokens.Now = func() time.Time { return base }

	_, pair, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenConsumed)
}

func TestRefreshForDeletedUser(t *testing.T) {
	svc, users, _ := newAuthService(t)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	require.NoError(t, users.Delete(ctx, u.ID))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	in := registerInput()
	u, _, err := svc.Register(ctx, in)
	require.NoError(t, err)

	other := registerInput()
	_, _, err = svc.Register(ctx, other)
	require.NoError(t, err)

	// Email collision with another account is rejected.
	collide := other.Email
	_, err = svc.UpdateProfile(ctx, u.ID, ProfilePatch{Email: &collide})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	// Password change re-hashes; the new password logs in, the old does not.
	newPass := "newsecret"
	_, err = svc.UpdateProfile(ctx, u.ID, ProfilePatch{Password: &newPass})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, in.Email, newPass)
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, in.Email, in.Password)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// Keeping one's own email is not a collision.
	same := in.Email
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfilePatch{Email: &same})
	require.NoError(t, err)
	assert.Equal(t, u.Email, updated.Email)
}

func TestCurrentUser(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	got, err := svc.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = svc.CurrentUser(ctx, 99999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
