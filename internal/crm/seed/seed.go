// Package seed 演示数据：管理员、销售、项目、房源、线索、认购、带看
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"go.uber.org/zap"
)

const actor = "system"

// Options 管理员账号
type Options struct {
	AdminEmail    string
	AdminPassword string
}

// Result 各实体写入数量
type Result struct {
	Skipped    bool
	Users      int
	Projects   int
	Units      int
	Leads      int
	Bookings   int
	SiteVisits int
}

func (r Result) String() string {
	if r.Skipped {
		return "data already present, seed skipped"
	}
	return fmt.Sprintf("users=%d projects=%d units=%d leads=%d bookings=%d site_visits=%d",
		r.Users, r.Projects, r.Units, r.Leads, r.Bookings, r.SiteVisits)
}

type projectSeed struct {
	req   service.CreateProjectRequest
	units []service.CreateUnitRequest
}

// Run 已有用户时直接跳过，可重复执行
func Run(ctx context.Context, svc *service.Services, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	existing, err := svc.User.List(ctx, query.Params{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("check existing users: %w", err)
	}
	if existing.Total > 0 {
		logger.Info("seed skipped", zap.Int("users", existing.Total))
		return &Result{Skipped: true}, nil
	}

	res := &Result{}

	// 用户
	users := []service.CreateUserRequest{
		{Name: "Admin", Email: opts.AdminEmail, Role: entity.RoleAdmin, Password: opts.AdminPassword},
		{Name: "Rohan Mehta", Email: "rohan@gajrajah.com", Phone: "+91 98200 11001", Role: entity.RoleManager, Password: opts.AdminPassword},
		{Name: "Priya Nair", Email: "priya@gajrajah.com", Phone: "+91 98200 11002", Role: entity.RoleSalesExecutive, Password: opts.AdminPassword},
		{Name: "Karan Joshi", Email: "karan@gajrajah.com", Phone: "+91 98200 11003", Role: entity.RoleSalesExecutive, Password: opts.AdminPassword},
	}
	for i := range users {
		if _, err := svc.User.Create(ctx, actor, &users[i]); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", users[i].Email, err)
		}
		res.Users++
	}

	// 项目与房源
	projects := []projectSeed{
		{
			req: service.CreateProjectRequest{
				Name:           "Gajrajah Green Valley",
				Developer:      "Gajrajah Developers",
				Location:       "Hinjewadi Phase 2",
				City:           "Pune",
				Category:       "Residential",
				Status:         entity.ProjectStatusActive,
				MinPrice:       5500000,
				MaxPrice:       9500000,
				ReraNumber:     "P52100012345",
				LaunchDate:     "2024-01-15",
				PossessionDate: "2026-12-31",
				Amenities:      []string{"Clubhouse", "Swimming Pool", "Gym", "Children's Play Area"},
				AssignedTo:     "Priya Nair",
			},
			units: []service.CreateUnitRequest{
				{UnitNumber: "A-101", Tower: "A", Floor: 1, UnitType: "2BHK", Area: 950, Price: 5500000, Facing: "East"},
				{UnitNumber: "A-102", Tower: "A", Floor: 1, UnitType: "2BHK", Area: 980, Price: 5800000, Facing: "North"},
				{UnitNumber: "A-201", Tower: "A", Floor: 2, UnitType: "3BHK", Area: 1350, Price: 8200000, Facing: "East"},
				{UnitNumber: "B-301", Tower: "B", Floor: 3, UnitType: "3BHK", Area: 1420, Price: 9500000, Facing: "West"},
			},
		},
		{
			req: service.CreateProjectRequest{
				Name:           "Skyline Towers",
				Developer:      "Gajrajah Developers",
				Location:       "Powai",
				City:           "Mumbai",
				Category:       "Residential",
				Status:         entity.ProjectStatusUpcoming,
				MinPrice:       18000000,
				MaxPrice:       42000000,
				ReraNumber:     "P51800067890",
				LaunchDate:     "2025-06-01",
				PossessionDate: "2028-03-31",
				Amenities:      []string{"Sky Lounge", "Infinity Pool", "Concierge"},
				AssignedTo:     "Karan Joshi",
			},
			units: []service.CreateUnitRequest{
				{UnitNumber: "T1-1201", Tower: "T1", Floor: 12, UnitType: "3BHK", Area: 1650, Price: 24000000, Facing: "Lake"},
				{UnitNumber: "T1-2202", Tower: "T1", Floor: 22, UnitType: "4BHK", Area: 2400, Price: 42000000, Facing: "Lake"},
			},
		},
		{
			req: service.CreateProjectRequest{
				Name:           "Orchid Business Park",
				Developer:      "Gajrajah Commercial",
				Location:       "Whitefield",
				City:           "Bengaluru",
				Category:       "Commercial",
				Status:         entity.ProjectStatusActive,
				MinPrice:       7500000,
				MaxPrice:       30000000,
				ReraNumber:     "PRM/KA/RERA/1251/446",
				LaunchDate:     "2023-09-10",
				PossessionDate: "2025-12-31",
				Amenities:      []string{"Food Court", "Multi-level Parking", "Power Backup"},
				AssignedTo:     "Rohan Mehta",
			},
			units: []service.CreateUnitRequest{
				{UnitNumber: "G-05", Floor: 0, UnitType: "Shop", Area: 420, Price: 7500000, Facing: "Main Road"},
				{UnitNumber: "O-402", Floor: 4, UnitType: "Office", Area: 1800, Price: 30000000, Facing: "North"},
			},
		},
	}

	created := make([]*entity.Project, 0, len(projects))
	var units []*entity.InventoryUnit
	for i := range projects {
		p := projects[i]
		p.req.TotalUnits = len(p.units)
		project, err := svc.Project.Create(ctx, actor, &p.req)
		if err != nil {
			return nil, fmt.Errorf("seed project %s: %w", p.req.Name, err)
		}
		created = append(created, project)
		res.Projects++

		for j := range p.units {
			u := p.units[j]
			u.ProjectID = project.ID
			unit, err := svc.Inventory.Create(ctx, actor, &u)
			if err != nil {
				return nil, fmt.Errorf("seed unit %s: %w", u.UnitNumber, err)
			}
			units = append(units, unit)
			res.Units++
		}
	}

	// 线索
	followUp := time.Now().AddDate(0, 0, 2).Format(time.DateOnly)
	leads := []service.CreateLeadRequest{
		{Name: "Amit Sharma", Email: "amit.sharma@example.com", Phone: "+91 99230 45678", Source: "Website", Status: entity.LeadStatusNew,
			AssignedTo: "Priya Nair", ProjectsInterested: []string{created[0].ID}, BudgetMin: 5000000, BudgetMax: 7000000, City: "Pune", NextFollowUp: followUp},
		{Name: "Neha Kulkarni", Email: "neha.k@example.com", Phone: "+91 98900 12345", Source: "Referral", Status: entity.LeadStatusContacted,
			AssignedTo: "Priya Nair", ProjectsInterested: []string{created[0].ID}, BudgetMin: 7500000, BudgetMax: 9000000, City: "Pune"},
		{Name: "Rahul Verma", Email: "rahul.verma@example.com", Phone: "+91 98765 43210", Source: "Walk-in", Status: entity.LeadStatusQualified,
			AssignedTo: "Karan Joshi", ProjectsInterested: []string{created[1].ID}, BudgetMin: 20000000, BudgetMax: 26000000, City: "Mumbai"},
		{Name: "Sneha Iyer", Email: "sneha.iyer@example.com", Phone: "+91 90080 11223", Source: "Social Media", Status: entity.LeadStatusNew,
			AssignedTo: "Rohan Mehta", ProjectsInterested: []string{created[2].ID}, BudgetMin: 7000000, BudgetMax: 12000000, City: "Bengaluru"},
		{Name: "Vikram Singh", Email: "vikram.singh@example.com", Phone: "+91 97110 99887", Source: "Advertisement", Status: entity.LeadStatusNegotiation,
			AssignedTo: "Priya Nair", ProjectsInterested: []string{created[0].ID}, BudgetMin: 8000000, BudgetMax: 8500000, City: "Pune"},
	}
	seededLeads := make([]*entity.Lead, 0, len(leads))
	for i := range leads {
		lead, err := svc.Lead.Create(ctx, actor, &leads[i])
		if err != nil {
			return nil, fmt.Errorf("seed lead %s: %w", leads[i].Name, err)
		}
		seededLeads = append(seededLeads, lead)
		res.Leads++
	}

	// 认购：Vikram 订 A-201
	booking := service.CreateBookingRequest{
		LeadID:      seededLeads[4].ID,
		ProjectID:   created[0].ID,
		ProjectName: created[0].Name,
		UnitID:      units[2].ID,
		UnitNumber:  units[2].UnitNumber,
		Amount:      units[2].Price,
		PaidAmount:  820000,
		Status:      entity.BookingStatusConfirmed,
		Notes:       "10% token amount received",
	}
	if _, err := svc.Booking.Create(ctx, actor, &booking); err != nil {
		return nil, fmt.Errorf("seed booking: %w", err)
	}
	res.Bookings++

	// 带看
	visits := []service.CreateSiteVisitRequest{
		{LeadID: seededLeads[1].ID, ProjectID: created[0].ID, ScheduledAt: time.Now().AddDate(0, 0, 1).Format(time.RFC3339)},
		{LeadID: seededLeads[2].ID, ProjectID: created[1].ID, ScheduledAt: time.Now().AddDate(0, 0, 3).Format(time.RFC3339)},
		{LeadID: seededLeads[4].ID, ProjectID: created[0].ID, Status: entity.VisitStatusCompleted, Rating: 5,
			Feedback: "Liked the east-facing 3BHK", ScheduledAt: time.Now().AddDate(0, 0, -7).Format(time.RFC3339)},
	}
	for i := range visits {
		if _, err := svc.SiteVisit.Create(ctx, actor, &visits[i]); err != nil {
			return nil, fmt.Errorf("seed site visit: %w", err)
		}
		res.SiteVisits++
	}

	logger.Info("seed completed",
		zap.Int("users", res.Users),
		zap.Int("projects", res.Projects),
		zap.Int("units", res.Units),
		zap.Int("leads", res.Leads),
	)
	return res, nil
}
