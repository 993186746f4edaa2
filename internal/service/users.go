package service

import (
	"context"
	"strings"

	"estate-api/internal/domain"
	"estate-api/pkg/utils"
)

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// UserAdminService covers the privileged user-management surface. The
// self-protection rules (no self role change, no self delete) live here so
// every transport shares them.
type UserAdminService struct {
	users domain.UserRepository
}

func NewUserAdminService(users domain.UserRepository) *UserAdminService {
	return &UserAdminService{users: users}
}

func (s *UserAdminService) List(ctx context.Context, page, limit int) ([]domain.User, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	users, total, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return users, Pagination{Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

func (s *UserAdminService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type CreateUserInput struct {
	RegisterInput
	Role domain.Role
}

// Create is the admin-initiated variant of registration: role is selectable.
func (s *UserAdminService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.ErrBadRole
	}
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, domain.Validation("email", "required")
	}
	if len(in.Password) < 6 {
		return nil, domain.Validation("password", "must be at least 6 characters")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, domain.Validation("name", "first and last name required")
	}
	phone, err := utils.NormalizePhone(in.PhoneNumber)
	if err != nil {
		return nil, domain.Validation("phoneNumber", err.Error())
	}
	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrEmailTaken
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Patronymic:   strings.TrimSpace(in.Patronymic),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		PhoneNumber:  phone,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies a profile patch to an arbitrary user. Role changes go
// through UpdateRole only.
func (s *UserAdminService) Update(ctx context.Context, id uint, patch ProfilePatch) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
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

// UpdateRole rejects unknown roles and a caller changing their own role,
// regardless of how privileged the caller is.
func (s *UserAdminService) UpdateRole(ctx context.Context, actorID, id uint, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrBadRole
	}
	if actorID == id {
		return nil, domain.ErrSelfRole
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete hard-deletes a user; deleting one's own account is rejected.
func (s *UserAdminService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return domain.ErrSelfDelete
	}
	return s.users.Delete(ctx, id)
}
