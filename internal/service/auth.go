package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"estate-api/internal/core/auth"
	"estate-api/internal/core/cache"
	"estate-api/internal/domain"
	"estate-api/pkg/utils"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthService struct {
	users    domain.UserRepository
	tokens   *auth.Tokens
	rotation cache.RotationStore
	log      *zap.Logger
}

func NewAuthService(users domain.UserRepository, tokens *auth.Tokens, rotation cache.RotationStore, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, rotation: rotation, log: log}
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Patronymic  string
	Email       string
	Password    string
	PhoneNumber string
}

// Register creates a user with role forced to "user" and issues a token
// pair. The unique index on email is the real guard against a concurrent
// duplicate registration; the FindByEmail pre-check only improves the error.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, TokenPair, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, TokenPair{}, domain.Validation("email", "required")
	}
	if len(in.Password) < 6 {
		return nil, TokenPair{}, domain.Validation("password", "must be at least 6 characters")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, TokenPair{}, domain.Validation("firstName", "required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return nil, TokenPair{}, domain.Validation("lastName", "required")
	}
	phone, err := utils.NormalizePhone(in.PhoneNumber)
	if err != nil {
		return nil, TokenPair{}, domain.Validation("phoneNumber", err.Error())
	}

	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, TokenPair{}, err
	} else if existing != nil {
		return nil, TokenPair{}, domain.ErrEmailTaken
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Patronymic:   strings.TrimSpace(in.Patronymic),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		PhoneNumber:  phone,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.log.Info("user registered", zap.Uint("uid", u.ID))
	return u, pair, nil
}

// Login never reveals which of email or password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, TokenPair{}, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, TokenPair{}, domain.ErrInvalidCredentials
	}
	pair, err := s.issuePair(u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the pair: the presented refresh token is verified first
// (so a forged token never touches the rotation store), checked against the
// consumed set, then marked consumed for the remainder of its own lifetime.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return TokenPair{}, domain.ErrInvalidToken
	}
	used, err := s.rotation.IsConsumed(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if used {
		s.log.Warn("refresh token replay", zap.Uint("uid", claims.UID))
		return TokenPair{}, domain.ErrTokenConsumed
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return TokenPair{}, err
	}
	if u == nil {
		return TokenPair{}, domain.ErrInvalidToken
	}
	pair, err := s.issuePair(u)
	if err != nil {
		return TokenPair{}, err
	}
	// Same clock as issuance and verification, so the store entry lives
	// exactly as long as the token would have.
	remaining := claims.ExpiresAt.Time.Sub(s.tokens.Now())
	if err := s.rotation.MarkConsumed(ctx, refreshToken, remaining); err != nil {
		// A failed mark must not kill the refresh, but it does weaken
		// replay protection, so it is worth a loud log line.
		s.log.Error("mark refresh consumed", zap.Error(err))
	}
	return pair, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, uid uint) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type ProfilePatch struct {
	FirstName   *string
	LastName    *string
	Patronymic  *string
	Email       *string
	Password    *string
	PhoneNumber *string
}

// UpdateProfile lets an identity mutate its own record. Role is not part of
// the patch type, so self-escalation through this path is unrepresentable.
func (s *AuthService) UpdateProfile(ctx context.Context, uid uint, patch ProfilePatch) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := applyPatch(ctx, s.users, u, patch); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Logout is client-side token discard. There is no server-side revocation
// list; the rotation store only rejects *consumed* refresh tokens, so a
// compromised, unconsumed refresh token stays valid until expiry.
func (s *AuthService) Logout(_ context.Context) {}

func (s *AuthService) issuePair(u *domain.User) (TokenPair, error) {
	access, refresh, err := s.tokens.IssuePair(u)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// applyPatch mutates u in place, re-validating email uniqueness and
// re-hashing the password only when the patch carries a plaintext one.
func applyPatch(ctx context.Context, users domain.UserRepository, u *domain.User, patch ProfilePatch) error {
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email == "" {
			return domain.Validation("email", "required")
		}
		if email != u.Email {
			other, err := users.FindByEmail(ctx, email)
			if err != nil {
				return err
			}
			if other != nil && other.ID != u.ID {
				return domain.ErrEmailTaken
			}
			u.Email = email
		}
	}
	if patch.Password != nil {
		if utils.IsBcryptHash(*patch.Password) {
			return domain.Validation("password", "must be plaintext")
		}
		if len(*patch.Password) < 6 {
			return domain.Validation("password", "must be at least 6 characters")
		}
		hash, err := utils.HashPassword(*patch.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	if patch.FirstName != nil {
		if strings.TrimSpace(*patch.FirstName) == "" {
			return domain.Validation("firstName", "required")
		}
		u.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		if strings.TrimSpace(*patch.LastName) == "" {
			return domain.Validation("lastName", "required")
		}
		u.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Patronymic != nil {
		u.Patronymic = strings.TrimSpace(*patch.Patronymic)
	}
	if patch.PhoneNumber != nil {
		phone, err := utils.NormalizePhone(*patch.PhoneNumber)
		if err != nil {
			return domain.Validation("phoneNumber", err.Error())
		}
		u.PhoneNumber = phone
	}
	return nil
}
