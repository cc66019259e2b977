package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/middleware"
)

// UserHandler 用户处理器
type UserHandler struct {
	*resource[entity.User, service.CreateUserRequest, service.UpdateUserRequest]
}

func NewUserHandler(svc *service.UserService, errs *responder) *UserHandler {
	return &UserHandler{
		resource: &resource[entity.User, service.CreateUserRequest, service.UpdateUserRequest]{
			svc:    svc,
			remove: withoutActor(svc.Delete),
			label:  "User",
			plural: "users",
			errs:   errs,
		},
	}
}

// AuthHandler 登录与当前用户
type AuthHandler struct {
	svc  *service.UserService
	errs *responder
}

func NewAuthHandler(svc *service.UserService, errs *responder) *AuthHandler {
	return &AuthHandler{svc: svc, errs: errs}
}

// Login 邮箱密码登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	result, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		h.errs.fail(c, "User", err)
		return
	}
	Success(c, result)
}

// CurrentUserInfo /auth/me 的返回
type CurrentUserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Me 当前用户；mock token 返回内置管理员
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		Success(c, CurrentUserInfo{
			ID:    "admin",
			Name:  middleware.GetUserName(c),
			Email: "admin@gajrajah.com",
			Role:  entity.RoleAdmin,
		})
		return
	}

	user, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// 令牌有效但用户已删除
			Unauthorized(c, "Unauthorized")
			return
		}
		h.errs.fail(c, "User", err)
		return
	}
	Success(c, CurrentUserInfo{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
}
