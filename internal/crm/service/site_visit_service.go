package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
)

const maxVisitRating = 5

// SiteVisitService 带看服务
type SiteVisitService struct {
	core     *core[entity.SiteVisit]
	projects repository.Store[entity.Project]
	leads    *LeadService
}

func NewSiteVisitService(repos *repository.Repositories, leads *LeadService, n *notifier) *SiteVisitService {
	return &SiteVisitService{
		core: &core[entity.SiteVisit]{
			kind:       entity.EntitySiteVisit,
			store:      repos.SiteVisits,
			activities: repos.Activities,
			spec:       siteVisitSpec(),
			statuses:   entity.VisitStatuses,
			status:     func(v *entity.SiteVisit) *string { return &v.Status },
			owner:      func(v *entity.SiteVisit) string { return v.AssignedTo },
			timeline:   func(v *entity.SiteVisit) *[]entity.Activity { return &v.Activities },
			touch:      func(v *entity.SiteVisit, t time.Time) { v.UpdatedAt = t },
			notify:     n,
		},
		projects: repos.Projects,
		leads:    leads,
	}
}

// CreateSiteVisitRequest 安排带看
type CreateSiteVisitRequest struct {
	LeadID      string `json:"leadId"`
	LeadName    string `json:"leadName"`
	LeadPhone   string `json:"leadPhone"`
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	ScheduledAt string `json:"scheduledAt" binding:"required"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assignedTo"`
	Feedback    string `json:"feedback"`
	Rating      int    `json:"rating"`
}

// UpdateSiteVisitRequest 更新带看
type UpdateSiteVisitRequest struct {
	LeadName    *string `json:"leadName"`
	LeadPhone   *string `json:"leadPhone"`
	ScheduledAt *string `json:"scheduledAt"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assignedTo"`
	Feedback    *string `json:"feedback"`
	Rating      *int    `json:"rating"`
}

func (s *SiteVisitService) List(ctx context.Context, p query.Params) (query.Result[entity.SiteVisit], error) {
	return s.core.list(ctx, p)
}

func (s *SiteVisitService) Get(ctx context.Context, id string) (*entity.SiteVisit, error) {
	return s.core.get(ctx, id)
}

// Create 安排带看；关联线索推进到 Site Visit Scheduled
func (s *SiteVisitService) Create(ctx context.Context, actor string, req *CreateSiteVisitRequest) (*entity.SiteVisit, error) {
	scheduledAt, err := parseDate("scheduledAt", req.ScheduledAt)
	if err != nil {
		return nil, err
	}
	status := firstNonEmpty(req.Status, entity.VisitStatusScheduled)
	if err := s.core.checkStatus(status); err != nil {
		return nil, err
	}

	now := time.Now()
	visit := &entity.SiteVisit{
		ID:          newID(),
		LeadID:      req.LeadID,
		LeadName:    req.LeadName,
		LeadPhone:   req.LeadPhone,
		ProjectID:   req.ProjectID,
		ProjectName: req.ProjectName,
		ScheduledAt: scheduledAt,
		Status:      status,
		AssignedTo:  req.AssignedTo,
		Feedback:    req.Feedback,
		Rating:      req.Rating,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if visit.LeadID != "" {
		lead, err := s.leads.core.store.FindByID(ctx, visit.LeadID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if lead != nil {
			visit.LeadName = firstNonEmpty(visit.LeadName, lead.Name)
			visit.LeadPhone = firstNonEmpty(visit.LeadPhone, lead.Phone)
			visit.AssignedTo = firstNonEmpty(visit.AssignedTo, lead.AssignedTo)
		}
	}
	if visit.ProjectID != "" {
		project, err := s.projects.FindByID(ctx, visit.ProjectID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if project != nil {
			visit.ProjectName = project.Name
		}
	}
	if err := validateVisit(visit); err != nil {
		return nil, err
	}

	created, err := s.core.create(ctx, visit, actor,
		fmt.Sprintf("Site visit scheduled for %s at %s", visit.LeadName, firstNonEmpty(visit.ProjectName, "project")))
	if err != nil {
		return nil, err
	}
	if status == entity.VisitStatusScheduled || status == entity.VisitStatusRescheduled {
		if err := s.leads.advance(ctx, visit.LeadID, entity.LeadStatusSiteVisitScheduled, actor); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *SiteVisitService) Update(ctx context.Context, actor, id string, req *UpdateSiteVisitRequest) (*entity.SiteVisit, error) {
	visit, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousStatus := visit.Status

	if req.LeadName != nil {
		visit.LeadName = *req.LeadName
	}
	if req.LeadPhone != nil {
		visit.LeadPhone = *req.LeadPhone
	}
	if req.ScheduledAt != nil {
		t, err := parseDate("scheduledAt", *req.ScheduledAt)
		if err != nil {
			return nil, err
		}
		visit.ScheduledAt = t
	}
	if req.Status != nil {
		visit.Status = *req.Status
	}
	if req.AssignedTo != nil {
		visit.AssignedTo = *req.AssignedTo
	}
	if req.Feedback != nil {
		visit.Feedback = *req.Feedback
	}
	if req.Rating != nil {
		visit.Rating = *req.Rating
	}
	if err := validateVisit(visit); err != nil {
		return nil, err
	}

	return s.core.save(ctx, visit, previousStatus, actor)
}

func validateVisit(v *entity.SiteVisit) error {
	if v.LeadID == "" && v.LeadName == "" {
		return validationError("leadId or leadName is required")
	}
	if v.ScheduledAt == nil {
		return validationError("scheduledAt is required")
	}
	if v.Rating < 0 || v.Rating > maxVisitRating {
		return validationError("rating must be between 0 and %d", maxVisitRating)
	}
	return nil
}

func (s *SiteVisitService) UpdateStatus(ctx context.Context, actor, id, status string) (*StatusChange, error) {
	_, change, err := s.core.updateStatus(ctx, id, status, actor)
	return change, err
}

func (s *SiteVisitService) Delete(ctx context.Context, id string) error {
	return s.core.remove(ctx, id)
}

func (s *SiteVisitService) ListActivities(ctx context.Context, id string) ([]entity.Activity, error) {
	return s.core.listActivities(ctx, id)
}

func (s *SiteVisitService) AddActivity(ctx context.Context, actor, id string, req *AddActivityRequest) (*entity.Activity, error) {
	return s.core.addActivity(ctx, id, actor, req)
}
