package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/config"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/middleware"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserService 用户与登录
type UserService struct {
	core     *core[entity.User]
	auth     config.AuthConfig
	hashCost int
}

func NewUserService(repos *repository.Repositories, auth config.AuthConfig, n *notifier) *UserService {
	return &UserService{
		core: &core[entity.User]{
			kind:       entity.EntityUser,
			store:      repos.Users,
			activities: repos.Activities,
			spec:       userSpec(),
			statuses:   entity.UserStatuses,
			status:     func(u *entity.User) *string { return &u.Status },
			owner:      func(u *entity.User) string { return "" },
			timeline:   func(u *entity.User) *[]entity.Activity { return &u.Activities },
			touch:      func(u *entity.User, t time.Time) { u.UpdatedAt = t },
			notify:     n,
		},
		auth:     auth,
		hashCost: bcrypt.DefaultCost,
	}
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Password string `json:"password"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Password *string `json:"password"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *entity.User `json:"user"`
}

func (s *UserService) List(ctx context.Context, p query.Params) (query.Result[entity.User], error) {
	return s.core.list(ctx, p)
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.core.get(ctx, id)
}

func (s *UserService) Create(ctx context.Context, actor string, req *CreateUserRequest) (*entity.User, error) {
	status := firstNonEmpty(req.Status, entity.UserStatusActive)
	if err := s.core.checkStatus(status); err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:        newID(),
		Name:      strings.TrimSpace(req.Name),
		Email:     normalizeEmail(req.Email),
		Phone:     req.Phone,
		Role:      firstNonEmpty(req.Role, entity.RoleSalesExecutive),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, user.Email, ""); err != nil {
		return nil, err
	}
	if req.Password != "" {
		if err := s.setPassword(user, req.Password); err != nil {
			return nil, err
		}
	}
	return s.core.create(ctx, user, actor, fmt.Sprintf("User %s created with role %s", user.Name, user.Role))
}

func (s *UserService) Update(ctx context.Context, actor, id string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousStatus := user.Status

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
		if err := s.ensureUniqueEmail(ctx, user.Email, user.ID); err != nil {
			return nil, err
		}
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Password != nil {
		if err := s.setPassword(user, *req.Password); err != nil {
			return nil, err
		}
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}

	return s.core.save(ctx, user, previousStatus, actor)
}

func validateUser(u *entity.User) error {
	if u.Name == "" {
		return validationError("name is required")
	}
	if u.Email == "" {
		return validationError("email is required")
	}
	if !slices.Contains(entity.UserRoles, u.Role) {
		return validationError("unknown role %q", u.Role)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) setPassword(u *entity.User, password string) error {
	if len(password) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*entity.User, error) {
	users, err := s.core.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserService) ensureUniqueEmail(ctx context.Context, email, selfID string) error {
	existing, err := s.findByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
	}
	return nil
}

func (s *UserService) UpdateStatus(ctx context.Context, actor, id, status string) (*StatusChange, error) {
	_, change, err := s.core.updateStatus(ctx, id, status, actor)
	return change, err
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.core.remove(ctx, id)
}

func (s *UserService) ListActivities(ctx context.Context, id string) ([]entity.Activity, error) {
	return s.core.listActivities(ctx, id)
}

func (s *UserService) AddActivity(ctx context.Context, actor, id string, req *AddActivityRequest) (*entity.Activity, error) {
	return s.core.addActivity(ctx, id, actor, req)
}

// Login 校验密码并签发 token；邮箱不存在与密码错误返回同一错误
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	user, err := s.findByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != entity.UserStatusActive {
		return nil, ErrUserInactive
	}

	token, expiresAt, err := middleware.SignToken(s.auth.JWTSecret, s.auth.Issuer, s.auth.TokenExpire,
		user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.core.store.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	if err := s.core.hydrate(ctx, user); err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
