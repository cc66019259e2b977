package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"github.com/xuri/excelize/v2"
)

// LeadService 销售线索服务
type LeadService struct {
	core *core[entity.Lead]
}

func NewLeadService(repos *repository.Repositories, n *notifier) *LeadService {
	return &LeadService{
		core: &core[entity.Lead]{
			kind:       entity.EntityLead,
			store:      repos.Leads,
			activities: repos.Activities,
			spec:       leadSpec(),
			statuses:   entity.LeadStatuses,
			status:     func(l *entity.Lead) *string { return &l.Status },
			owner:      func(l *entity.Lead) string { return l.AssignedTo },
			timeline:   func(l *entity.Lead) *[]entity.Activity { return &l.Activities },
			touch:      func(l *entity.Lead, t time.Time) { l.UpdatedAt = t },
			notify:     n,
		},
	}
}

// CreateLeadRequest 创建线索请求
type CreateLeadRequest struct {
	Name               string   `json:"name" binding:"required"`
	Email              string   `json:"email" binding:"omitempty,email"`
	Phone              string   `json:"phone"`
	Source             string   `json:"source"`
	Status             string   `json:"status"`
	AssignedTo         string   `json:"assignedTo"`
	ProjectsInterested []string `json:"projectsInterested"`
	BudgetMin          float64  `json:"budgetMin"`
	BudgetMax          float64  `json:"budgetMax"`
	City               string   `json:"city"`
	Notes              string   `json:"notes"`
	NextFollowUp       string   `json:"nextFollowUp"`
}

// UpdateLeadRequest 更新线索请求
type UpdateLeadRequest struct {
	Name               *string   `json:"name"`
	Email              *string   `json:"email" binding:"omitempty,email"`
	Phone              *string   `json:"phone"`
	Source             *string   `json:"source"`
	Status             *string   `json:"status"`
	AssignedTo         *string   `json:"assignedTo"`
	ProjectsInterested *[]string `json:"projectsInterested"`
	BudgetMin          *float64  `json:"budgetMin"`
	BudgetMax          *float64  `json:"budgetMax"`
	City               *string   `json:"city"`
	Notes              *string   `json:"notes"`
	NextFollowUp       *string   `json:"nextFollowUp"`
}

// AssignLeadRequest 分配线索
type AssignLeadRequest struct {
	AssignedTo string `json:"assignedTo" binding:"required"`
}

func (s *LeadService) List(ctx context.Context, p query.Params) (query.Result[entity.Lead], error) {
	return s.core.list(ctx, p)
}

func (s *LeadService) Get(ctx context.Context, id string) (*entity.Lead, error) {
	return s.core.get(ctx, id)
}

func (s *LeadService) Create(ctx context.Context, actor string, req *CreateLeadRequest) (*entity.Lead, error) {
	followUp, err := parseDate("nextFollowUp", req.NextFollowUp)
	if err != nil {
		return nil, err
	}
	status := firstNonEmpty(req.Status, entity.LeadStatusNew)
	if err := s.core.checkStatus(status); err != nil {
		return nil, err
	}

	now := time.Now()
	lead := &entity.Lead{
		ID:                 newID(),
		Name:               strings.TrimSpace(req.Name),
		Email:              req.Email,
		Phone:              req.Phone,
		Source:             req.Source,
		Status:             status,
		AssignedTo:         req.AssignedTo,
		ProjectsInterested: stringList(req.ProjectsInterested),
		BudgetMin:          req.BudgetMin,
		BudgetMax:          req.BudgetMax,
		City:               req.City,
		Notes:              req.Notes,
		NextFollowUp:       followUp,
		CreatedBy:          actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := validateLead(lead); err != nil {
		return nil, err
	}
	return s.core.create(ctx, lead, actor, fmt.Sprintf("Lead %s created", lead.Name))
}

func (s *LeadService) Update(ctx context.Context, actor, id string, req *UpdateLeadRequest) (*entity.Lead, error) {
	lead, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousStatus := lead.Status

	if req.Name != nil {
		lead.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Source != nil {
		lead.Source = *req.Source
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.AssignedTo != nil {
		lead.AssignedTo = *req.AssignedTo
	}
	if req.ProjectsInterested != nil {
		lead.ProjectsInterested = stringList(*req.ProjectsInterested)
	}
	if req.BudgetMin != nil {
		lead.BudgetMin = *req.BudgetMin
	}
	if req.BudgetMax != nil {
		lead.BudgetMax = *req.BudgetMax
	}
	if req.City != nil {
		lead.City = *req.City
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
	if req.NextFollowUp != nil {
		if lead.NextFollowUp, err = parseDate("nextFollowUp", *req.NextFollowUp); err != nil {
			return nil, err
		}
	}
	if err := validateLead(lead); err != nil {
		return nil, err
	}

	return s.core.save(ctx, lead, previousStatus, actor)
}

func validateLead(l *entity.Lead) error {
	if l.Name == "" {
		return validationError("name is required")
	}
	if l.BudgetMin < 0 || l.BudgetMax < 0 {
		return validationError("budget must not be negative")
	}
	if l.BudgetMax > 0 && l.BudgetMin > l.BudgetMax {
		return validationError("budgetMin exceeds budgetMax")
	}
	return nil
}

func (s *LeadService) UpdateStatus(ctx context.Context, actor, id, status string) (*StatusChange, error) {
	_, change, err := s.core.updateStatus(ctx, id, status, actor)
	return change, err
}

// Assign 分配销售，记一条 assigned 时间线
func (s *LeadService) Assign(ctx context.Context, actor, id string, req *AssignLeadRequest) (*entity.Lead, error) {
	lead, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := lead.AssignedTo
	lead.AssignedTo = strings.TrimSpace(req.AssignedTo)
	if lead.AssignedTo == "" {
		return nil, validationError("assignedTo is required")
	}
	lead.UpdatedAt = time.Now()
	if err := s.core.store.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("assign lead: %w", err)
	}

	description := fmt.Sprintf("Assigned to %s", lead.AssignedTo)
	if previous != "" && previous != lead.AssignedTo {
		description = fmt.Sprintf("Reassigned from %s to %s", previous, lead.AssignedTo)
	}
	if _, err := s.core.record(ctx, id, entity.ActivityAssigned, description, "", "", actor); err != nil {
		return nil, err
	}
	if err := s.core.hydrate(ctx, lead); err != nil {
		return nil, err
	}
	s.core.notify.publish(ctx, entity.EntityLead, id, "assigned")
	return lead, nil
}

func (s *LeadService) Delete(ctx context.Context, id string) error {
	return s.core.remove(ctx, id)
}

func (s *LeadService) ListActivities(ctx context.Context, id string) ([]entity.Activity, error) {
	return s.core.listActivities(ctx, id)
}

func (s *LeadService) AddActivity(ctx context.Context, actor, id string, req *AddActivityRequest) (*entity.Activity, error) {
	return s.core.addActivity(ctx, id, actor, req)
}

// advance 把线索推进到 status；只向漏斗后方推进，线索不存在时忽略
func (s *LeadService) advance(ctx context.Context, id, status, actor string) error {
	if id == "" {
		return nil
	}
	lead, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if lead.Status == entity.LeadStatusLost {
		return nil
	}
	if slices.Index(entity.LeadStatuses, lead.Status) >= slices.Index(entity.LeadStatuses, status) {
		return nil
	}
	_, _, err = s.core.updateStatus(ctx, id, status, actor)
	return err
}

// ImportResult 导入结果
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// leadImportColumns 导入模板表头（不区分大小写）
var leadImportColumns = []string{"Name", "Email", "Phone", "Source", "Status", "Assigned To", "City", "Budget Min", "Budget Max", "Notes"}

// Import 从 xlsx 第一个工作表导入线索，首行为表头；单行出错跳过并记录
func (s *LeadService) Import(ctx context.Context, actor string, f *excelize.File) (*ImportResult, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, validationError("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, validationError("sheet is empty")
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, validationError("missing Name column")
	}
	cell := func(row []string, col string) string {
		i, ok := index[strings.ToLower(col)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	number := func(row []string, col string) (float64, error) {
		v := strings.ReplaceAll(cell(row, col), ",", "")
		if v == "" {
			return 0, nil
		}
		return strconv.ParseFloat(v, 64)
	}

	result := &ImportResult{Errors: []string{}}
	for i, row := range rows[1:] {
		line := i + 2
		if cell(row, "Name") == "" {
			result.Skipped++
			continue
		}
		budgetMin, err := number(row, "Budget Min")
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid Budget Min", line))
			continue
		}
		budgetMax, err := number(row, "Budget Max")
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid Budget Max", line))
			continue
		}

		req := &CreateLeadRequest{
			Name:       cell(row, "Name"),
			Email:      cell(row, "Email"),
			Phone:      cell(row, "Phone"),
			Source:     cell(row, "Source"),
			Status:     cell(row, "Status"),
			AssignedTo: cell(row, "Assigned To"),
			City:       cell(row, "City"),
			BudgetMin:  budgetMin,
			BudgetMax:  budgetMax,
			Notes:      cell(row, "Notes"),
		}
		if _, err := s.Create(ctx, actor, req); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		result.Imported++
	}
	return result, nil
}
