package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/sse"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/middleware"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	Project   *ProjectHandler
	Lead      *LeadHandler
	Booking   *BookingHandler
	Inventory *InventoryHandler
	User      *UserHandler
	SiteVisit *SiteVisitHandler
	Auth      *AuthHandler
	Settings  *SettingsHandler
	Dashboard *DashboardHandler
	Report    *ReportHandler
	SSE       *SSEHandler
}

// Options 处理器配置
type Options struct {
	MaxUploadBytes int64
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub, logger *zap.Logger, opts Options) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	errs := &responder{logger: logger}
	return &Handlers{
		Project:   NewProjectHandler(svc.Project, errs, opts.MaxUploadBytes),
		Lead:      NewLeadHandler(svc.Lead, errs),
		Booking:   NewBookingHandler(svc.Booking, errs),
		Inventory: NewInventoryHandler(svc.Inventory, errs),
		User:      NewUserHandler(svc.User, errs),
		SiteVisit: NewSiteVisitHandler(svc.SiteVisit, errs),
		Auth:      NewAuthHandler(svc.User, errs),
		Settings:  NewSettingsHandler(svc.Settings, errs),
		Dashboard: NewDashboardHandler(svc.Dashboard, errs),
		Report:    NewReportHandler(svc.Report, errs),
		SSE:       NewSSEHandler(hub),
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error 错误响应 {"error": message}
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// NotFound label 为实体名，如 "Project"
func NotFound(c *gin.Context, label string) {
	Error(c, http.StatusNotFound, label+" not found")
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

// Deleted 删除成功响应
func Deleted(c *gin.Context, label string) {
	c.JSON(http.StatusOK, gin.H{"message": label + " deleted successfully"})
}

// actor 当前操作人名称
func actor(c *gin.Context) string {
	return middleware.GetUserName(c)
}

func listParams(c *gin.Context) query.Params {
	return query.ParseParams(c.Request.URL.Query())
}

// listBody 列表响应 {<plural>: [...], total, page, totalPages}
func listBody[T any](plural string, res query.Result[T]) gin.H {
	return gin.H{
		plural:       res.Items,
		"total":      res.Total,
		"page":       res.Page,
		"totalPages": res.TotalPages,
	}
}

// responder 把服务层错误映射为 HTTP 状态码
type responder struct {
	logger *zap.Logger
}

func (r *responder) fail(c *gin.Context, label string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, label)
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidActivityType),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrUnitUnavailable),
		errors.Is(err, repository.ErrDuplicate):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStorageDisabled):
		Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		r.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
			zap.Error(err),
		)
		InternalError(c)
	}
}

// bindError 绑定失败时的提示，去掉校验器的结构体前缀
func bindError(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "Error:"); i >= 0 {
		return "Invalid request: " + strings.TrimSpace(msg[i+len("Error:"):])
	}
	return "Invalid request: " + msg
}
