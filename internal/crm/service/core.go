package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
)

// StatusChange PATCH /:id/status 的返回
type StatusChange struct {
	ID             string           `json:"id"`
	Status         string           `json:"status"`
	PreviousStatus string           `json:"previousStatus"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	Activity       *entity.Activity `json:"activity"`
}

// AddActivityRequest 手工添加的时间线记录
type AddActivityRequest struct {
	Type        string `json:"type"`
	Description string `json:"description" binding:"required"`
}

// core 各实体共用的存取、时间线、状态变更逻辑
type core[T repository.Record] struct {
	kind       string
	store      repository.Store[T]
	activities repository.ActivityStore
	spec       query.Spec[T]
	statuses   []string
	status     func(*T) *string
	owner      func(*T) string
	timeline   func(*T) *[]entity.Activity
	touch      func(*T, time.Time)
	notify     *notifier
}

func (c *core[T]) list(ctx context.Context, p query.Params) (query.Result[T], error) {
	items, err := c.store.FindAll(ctx)
	if err != nil {
		return query.Result[T]{}, fmt.Errorf("list %s: %w", c.kind, err)
	}
	res := query.Run(items, c.spec, p)
	for i := range res.Items {
		if err := c.hydrate(ctx, &res.Items[i]); err != nil {
			return query.Result[T]{}, err
		}
	}
	return res, nil
}

// selectAll 过滤排序但不分页
func (c *core[T]) selectAll(ctx context.Context, p query.Params) ([]T, error) {
	items, err := c.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.kind, err)
	}
	return query.Select(items, c.spec, p.Normalize()), nil
}

func (c *core[T]) get(ctx context.Context, id string) (*T, error) {
	item, err := c.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.hydrate(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *core[T]) hydrate(ctx context.Context, item *T) error {
	acts, err := c.activities.ListByEntity(ctx, c.kind, (*item).GetID())
	if err != nil {
		return fmt.Errorf("load %s activities: %w", c.kind, err)
	}
	*c.timeline(item) = acts
	return nil
}

func (c *core[T]) checkStatus(status string) error {
	if !slices.Contains(c.statuses, status) {
		return statusError(status)
	}
	return nil
}

func (c *core[T]) record(ctx context.Context, id, typ, description, from, to, createdBy string) (*entity.Activity, error) {
	act := &entity.Activity{
		ID:          newID(),
		EntityType:  c.kind,
		EntityID:    id,
		Type:        typ,
		Description: description,
		FromStatus:  from,
		ToStatus:    to,
		CreatedBy:   firstNonEmpty(createdBy, "system"),
		CreatedAt:   time.Now(),
	}
	if err := c.activities.Append(ctx, act); err != nil {
		return nil, fmt.Errorf("append %s activity: %w", c.kind, err)
	}
	return act, nil
}

func (c *core[T]) recordStatus(ctx context.Context, item *T, from, to, actor string) (*entity.Activity, error) {
	return c.record(ctx, (*item).GetID(), entity.ActivityStatusChange,
		fmt.Sprintf("Status changed from %s to %s", from, to),
		from, to, firstNonEmpty(c.owner(item), actor))
}

func (c *core[T]) create(ctx context.Context, item *T, actor, description string) (*T, error) {
	if err := c.store.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create %s: %w", c.kind, err)
	}
	id := (*item).GetID()
	if _, err := c.record(ctx, id, entity.ActivityCreated, description, "", *c.status(item), actor); err != nil {
		return nil, err
	}
	if err := c.hydrate(ctx, item); err != nil {
		return nil, err
	}
	c.notify.publish(ctx, c.kind, id, "created")
	return item, nil
}

// save 写回已合并的记录；状态有变化时记一条 status_change
func (c *core[T]) save(ctx context.Context, item *T, previousStatus, actor string) (*T, error) {
	current := *c.status(item)
	if current != previousStatus {
		if err := c.checkStatus(current); err != nil {
			return nil, err
		}
	}
	c.touch(item, time.Now())
	if err := c.store.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update %s: %w", c.kind, err)
	}
	if current != previousStatus {
		if _, err := c.recordStatus(ctx, item, previousStatus, current, actor); err != nil {
			return nil, err
		}
	}
	if err := c.hydrate(ctx, item); err != nil {
		return nil, err
	}
	c.notify.publish(ctx, c.kind, (*item).GetID(), "updated")
	return item, nil
}

// updateStatus 任意枚举值之间都可切换；同值不记时间线
func (c *core[T]) updateStatus(ctx context.Context, id, status, actor string) (*T, *StatusChange, error) {
	if err := c.checkStatus(status); err != nil {
		return nil, nil, err
	}
	item, err := c.store.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	previous := *c.status(item)
	now := time.Now()
	*c.status(item) = status
	c.touch(item, now)
	if err := c.store.Update(ctx, item); err != nil {
		return nil, nil, fmt.Errorf("update %s status: %w", c.kind, err)
	}

	change := &StatusChange{ID: id, Status: status, PreviousStatus: previous, UpdatedAt: now}
	if previous != status {
		act, err := c.recordStatus(ctx, item, previous, status, actor)
		if err != nil {
			return nil, nil, err
		}
		change.Activity = act
	}
	c.notify.publish(ctx, c.kind, id, "status_changed")
	return item, change, nil
}

// remove 删除记录及其时间线
func (c *core[T]) remove(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.activities.DeleteByEntity(ctx, c.kind, id); err != nil {
		return fmt.Errorf("delete %s activities: %w", c.kind, err)
	}
	c.notify.publish(ctx, c.kind, id, "deleted")
	return nil
}

func (c *core[T]) listActivities(ctx context.Context, id string) ([]entity.Activity, error) {
	if _, err := c.store.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return c.activities.ListByEntity(ctx, c.kind, id)
}

func (c *core[T]) addActivity(ctx context.Context, id, actor string, req *AddActivityRequest) (*entity.Activity, error) {
	typ := firstNonEmpty(req.Type, entity.ActivityNote)
	if !slices.Contains(entity.ActivityTypes, typ) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidActivityType, typ)
	}
	if _, err := c.store.FindByID(ctx, id); err != nil {
		return nil, err
	}
	act, err := c.record(ctx, id, typ, req.Description, "", "", actor)
	if err != nil {
		return nil, err
	}
	c.notify.publish(ctx, c.kind, id, "activity_added")
	return act, nil
}
