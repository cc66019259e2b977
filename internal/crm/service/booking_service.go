package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"go.uber.org/zap"
)

// BookingService 预订服务，联动房源与线索状态
type BookingService struct {
	core      *core[entity.Booking]
	projects  repository.Store[entity.Project]
	inventory *InventoryService
	leads     *LeadService
	logger    *zap.Logger
}

func NewBookingService(repos *repository.Repositories, inventory *InventoryService, leads *LeadService, n *notifier) *BookingService {
	return &BookingService{
		core: &core[entity.Booking]{
			kind:       entity.EntityBooking,
			store:      repos.Bookings,
			activities: repos.Activities,
			spec:       bookingSpec(),
			statuses:   entity.BookingStatuses,
			status:     func(b *entity.Booking) *string { return &b.Status },
			owner:      func(b *entity.Booking) string { return b.AssignedTo },
			timeline:   func(b *entity.Booking) *[]entity.Activity { return &b.Activities },
			touch:      func(b *entity.Booking, t time.Time) { b.UpdatedAt = t },
			notify:     n,
		},
		projects:  repos.Projects,
		inventory: inventory,
		leads:     leads,
		logger:    n.logger,
	}
}

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	LeadID        string  `json:"leadId"`
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	CustomerEmail string  `json:"customerEmail" binding:"omitempty,email"`
	ProjectID     string  `json:"projectId"`
	ProjectName   string  `json:"projectName"`
	UnitID        string  `json:"unitId"`
	UnitNumber    string  `json:"unitNumber"`
	Amount        float64 `json:"amount"`
	PaidAmount    float64 `json:"paidAmount"`
	BookingDate   string  `json:"bookingDate"`
	Status        string  `json:"status"`
	AssignedTo    string  `json:"assignedTo"`
	Notes         string  `json:"notes"`
}

// UpdateBookingRequest 更新预订请求；房源与线索关联创建后不可改
type UpdateBookingRequest struct {
	CustomerName  *string  `json:"customerName"`
	CustomerPhone *string  `json:"customerPhone"`
	CustomerEmail *string  `json:"customerEmail" binding:"omitempty,email"`
	Amount        *float64 `json:"amount"`
	PaidAmount    *float64 `json:"paidAmount"`
	BookingDate   *string  `json:"bookingDate"`
	Status        *string  `json:"status"`
	AssignedTo    *string  `json:"assignedTo"`
	Notes         *string  `json:"notes"`
}

func (s *BookingService) List(ctx context.Context, p query.Params) (query.Result[entity.Booking], error) {
	return s.core.list(ctx, p)
}

func (s *BookingService) Get(ctx context.Context, id string) (*entity.Booking, error) {
	return s.core.get(ctx, id)
}

// Create 创建预订：填充客户/项目/房源冗余字段，锁定房源，线索推进到 Booked
func (s *BookingService) Create(ctx context.Context, actor string, req *CreateBookingRequest) (*entity.Booking, error) {
	bookingDate, err := parseDate("bookingDate", req.BookingDate)
	if err != nil {
		return nil, err
	}
	if bookingDate == nil {
		now := time.Now()
		bookingDate = &now
	}
	status := firstNonEmpty(req.Status, entity.BookingStatusPending)
	if err := s.core.checkStatus(status); err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &entity.Booking{
		ID:            newID(),
		LeadID:        req.LeadID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		ProjectID:     req.ProjectID,
		ProjectName:   req.ProjectName,
		UnitID:        req.UnitID,
		UnitNumber:    req.UnitNumber,
		Amount:        req.Amount,
		PaidAmount:    req.PaidAmount,
		BookingDate:   bookingDate,
		Status:        status,
		AssignedTo:    req.AssignedTo,
		Notes:         req.Notes,
		CreatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if booking.LeadID != "" {
		lead, err := s.leads.core.store.FindByID(ctx, booking.LeadID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if lead != nil {
			booking.CustomerName = firstNonEmpty(booking.CustomerName, lead.Name)
			booking.CustomerPhone = firstNonEmpty(booking.CustomerPhone, lead.Phone)
			booking.CustomerEmail = firstNonEmpty(booking.CustomerEmail, lead.Email)
			booking.AssignedTo = firstNonEmpty(booking.AssignedTo, lead.AssignedTo)
		}
	}
	if booking.ProjectID != "" {
		project, err := s.projects.FindByID(ctx, booking.ProjectID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if project != nil {
			booking.ProjectName = project.Name
		}
	}
	if err := validateBooking(booking); err != nil {
		return nil, err
	}

	if booking.UnitID != "" && status != entity.BookingStatusCancelled {
		unit, err := s.inventory.reserve(ctx, booking.UnitID, actor)
		if err != nil {
			return nil, err
		}
		if status == entity.BookingStatusCompleted {
			if err := s.inventory.setStatus(ctx, unit.ID, entity.UnitStatusSold, actor); err != nil {
				return nil, err
			}
		}
		booking.UnitNumber = unit.UnitNumber
		booking.ProjectID = unit.ProjectID
		booking.ProjectName = unit.ProjectName
		if booking.Amount == 0 {
			booking.Amount = unit.Price
		}
	}
	booking.PaymentStatus = entity.PaymentStatusFor(booking.Amount, booking.PaidAmount)

	created, err := s.core.create(ctx, booking, actor,
		fmt.Sprintf("Booking created for %s", firstNonEmpty(booking.UnitNumber, booking.ProjectName, booking.CustomerName)))
	if err != nil {
		if booking.UnitID != "" && status != entity.BookingStatusCancelled {
			if rbErr := s.inventory.setStatus(ctx, booking.UnitID, entity.UnitStatusAvailable, actor); rbErr != nil {
				s.logger.Error("release unit after failed booking",
					zap.String("unit_id", booking.UnitID), zap.Error(rbErr))
			}
		}
		return nil, err
	}
	if status != entity.BookingStatusCancelled {
		if err := s.leads.advance(ctx, booking.LeadID, entity.LeadStatusBooked, actor); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *BookingService) Update(ctx context.Context, actor, id string, req *UpdateBookingRequest) (*entity.Booking, error) {
	booking, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousStatus := booking.Status

	if req.CustomerName != nil {
		booking.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerPhone != nil {
		booking.CustomerPhone = *req.CustomerPhone
	}
	if req.CustomerEmail != nil {
		booking.CustomerEmail = *req.CustomerEmail
	}
	if req.Amount != nil {
		booking.Amount = *req.Amount
	}
	if req.PaidAmount != nil {
		booking.PaidAmount = *req.PaidAmount
	}
	if req.BookingDate != nil {
		if booking.BookingDate, err = parseDate("bookingDate", *req.BookingDate); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		booking.Status = *req.Status
	}
	if req.AssignedTo != nil {
		booking.AssignedTo = *req.AssignedTo
	}
	if req.Notes != nil {
		booking.Notes = *req.Notes
	}
	if err := validateBooking(booking); err != nil {
		return nil, err
	}
	if err := s.checkReactivation(ctx, booking, previousStatus, booking.Status); err != nil {
		return nil, err
	}
	booking.PaymentStatus = entity.PaymentStatusFor(booking.Amount, booking.PaidAmount)

	updated, err := s.core.save(ctx, booking, previousStatus, actor)
	if err != nil {
		return nil, err
	}
	if err := s.syncUnit(ctx, updated, previousStatus, actor); err != nil {
		return nil, err
	}
	return updated, nil
}

func validateBooking(b *entity.Booking) error {
	if b.CustomerName == "" {
		return validationError("customerName is required")
	}
	if b.Amount < 0 || b.PaidAmount < 0 {
		return validationError("amounts must not be negative")
	}
	if b.Amount > 0 && b.PaidAmount > b.Amount {
		return validationError("paidAmount exceeds amount")
	}
	return nil
}

func (s *BookingService) UpdateStatus(ctx context.Context, actor, id, status string) (*StatusChange, error) {
	if err := s.core.checkStatus(status); err != nil {
		return nil, err
	}
	current, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReactivation(ctx, current, current.Status, status); err != nil {
		return nil, err
	}
	booking, change, err := s.core.updateStatus(ctx, id, status, actor)
	if err != nil {
		return nil, err
	}
	if err := s.syncUnit(ctx, booking, change.PreviousStatus, actor); err != nil {
		return nil, err
	}
	return change, nil
}

// checkReactivation 已取消的预订恢复前，房源必须仍然可售
func (s *BookingService) checkReactivation(ctx context.Context, b *entity.Booking, from, to string) error {
	if b.UnitID == "" || from != entity.BookingStatusCancelled || to == entity.BookingStatusCancelled {
		return nil
	}
	unit, err := s.inventory.core.store.FindByID(ctx, b.UnitID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if unit.Status != entity.UnitStatusAvailable {
		return fmt.Errorf("%w: %s is %s", ErrUnitUnavailable, unit.UnitNumber, unit.Status)
	}
	return nil
}

// syncUnit 预订状态变化后同步房源：取消释放，完成售出，恢复重新锁定
func (s *BookingService) syncUnit(ctx context.Context, b *entity.Booking, previousStatus, actor string) error {
	if b.UnitID == "" || b.Status == previousStatus {
		return nil
	}
	switch b.Status {
	case entity.BookingStatusCancelled:
		return s.inventory.setStatus(ctx, b.UnitID, entity.UnitStatusAvailable, actor)
	case entity.BookingStatusCompleted:
		return s.inventory.setStatus(ctx, b.UnitID, entity.UnitStatusSold, actor)
	default:
		if previousStatus == entity.BookingStatusCancelled {
			_, err := s.inventory.reserve(ctx, b.UnitID, actor)
			if errors.Is(err, ErrValidation) {
				return nil
			}
			return err
		}
		if previousStatus == entity.BookingStatusCompleted {
			return s.inventory.setStatus(ctx, b.UnitID, entity.UnitStatusBooked, actor)
		}
	}
	return nil
}

// Delete 删除未完成的预订时释放房源
func (s *BookingService) Delete(ctx context.Context, actor, id string) error {
	booking, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.core.remove(ctx, id); err != nil {
		return err
	}
	if booking.UnitID != "" && booking.Status != entity.BookingStatusCancelled && booking.Status != entity.BookingStatusCompleted {
		return s.inventory.setStatus(ctx, booking.UnitID, entity.UnitStatusAvailable, actor)
	}
	return nil
}

func (s *BookingService) ListActivities(ctx context.Context, id string) ([]entity.Activity, error) {
	return s.core.listActivities(ctx, id)
}

func (s *BookingService) AddActivity(ctx context.Context, actor, id string, req *AddActivityRequest) (*entity.Activity, error) {
	return s.core.addActivity(ctx, id, actor, req)
}
