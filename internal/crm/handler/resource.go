package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
)

// crudService 六类实体服务共有的方法
type crudService[T any, C any, U any] interface {
	List(ctx context.Context, p query.Params) (query.Result[T], error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, actor string, req *C) (*T, error)
	Update(ctx context.Context, actor, id string, req *U) (*T, error)
	UpdateStatus(ctx context.Context, actor, id, status string) (*service.StatusChange, error)
	ListActivities(ctx context.Context, id string) ([]entity.Activity, error)
	AddActivity(ctx context.Context, actor, id string, req *service.AddActivityRequest) (*entity.Activity, error)
}

// resource 通用 CRUD 处理器；C/U 为创建与更新请求体
type resource[T any, C any, U any] struct {
	svc    crudService[T, C, U]
	remove func(ctx context.Context, actor, id string) error
	label  string
	plural string
	errs   *responder
}

// UpdateStatusRequest PATCH /:id/status 请求体
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// register 挂载标准路由
func (r *resource[T, C, U]) register(g *gin.RouterGroup) {
	g.GET("", r.List)
	g.POST("", r.Create)
	g.GET("/:id", r.Get)
	g.PUT("/:id", r.Update)
	g.PATCH("/:id/status", r.UpdateStatus)
	g.DELETE("/:id", r.Delete)
	g.GET("/:id/activities", r.ListActivities)
	g.POST("/:id/activities", r.AddActivity)
}

// List 列表
// GET /api/{entity}
func (r *resource[T, C, U]) List(c *gin.Context) {
	res, err := r.svc.List(c.Request.Context(), listParams(c))
	if err != nil {
		r.errs.fail(c, r.label, err)
		return
	}
	Success(c, listBody(r.plural, res))
}

// Get 详情
// GET /api/{entity}/:id
func (r *resource[T, C, U]) Get(c *gin.Context) {
	item, err := r.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.errs.fail(c, r.label, err)
		return
	}
	Success(c, item)
}

// Create 创建
// POST /api/{entity}
func (r *resource[T, C, U]) Create(c *gin.Context) {
	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := r.svc.Create(c.Request.Context(), actor(c), &req)
	if err != nil {
		r.errs.fail(c, r.label, err)
		return
	}
	Created(c, item)
}

// Update 更新（浅合并）
// PUT /api/{entity}/:id
func (r *resource[T, C, U]) Update(c *gin.Context) {
	var req U
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := r.svc.Update(c.Request.Context(), actor(c), c.Param("id"), &req)
	if err != nil {
		r.errs.fail(c, r.label, err)
		return
	}
	Success(c, item)
}

// UpdateStatus 变更状态
// PATCH /api/{entity}/:id/status
func (r *resource[T, C, U]) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	change, err := r.svc.UpdateStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		r.errs.fail(c, r.label, err)
		return
	}
	Success(c, change)
}

// Delete 删除，级联时间线等子集合
// DELETE /api/{entity}/:id
func (r *resource[T, C, U]) Delete(c *gin.Context) {
	if err := r.remove(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		r.errs.fail(c, r.label, err)
		return
	}
	Deleted(c, r.label)
}

// ListActivities 时间线
// GET /api/{entity}/:id/activities
func (r *resource[T, C, U]) ListActivities(c *gin.Context) {
	acts, err := r.svc.ListActivities(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.errs.fail(c, r.label, err)
		return
	}
	Success(c, gin.H{"activities": acts, "total": len(acts)})
}

// AddActivity 手工记录（备注、电话、邮件）
// POST /api/{entity}/:id/activities
func (r *resource[T, C, U]) AddActivity(c *gin.Context) {
	var req service.AddActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	act, err := r.svc.AddActivity(c.Request.Context(), actor(c), c.Param("id"), &req)
	if err != nil {
		r.errs.fail(c, r.label, err)
		return
	}
	Created(c, act)
}

// withoutActor 适配 Delete(ctx, id)
func withoutActor(fn func(ctx context.Context, id string) error) func(ctx context.Context, actor, id string) error {
	return func(ctx context.Context, _ string, id string) error {
		return fn(ctx, id)
	}
}
