package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardCacheKey = "dashboard:stats"
	summaryCacheKey   = "reports:summary"
	statsCacheTTL     = 30 * time.Second

	upcomingVisitWindow = 7 * 24 * time.Hour
	recentLeadCount     = 5
)

// DashboardService 看板统计
type DashboardService struct {
	repos  *repository.Repositories
	cache  cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

func NewDashboardService(repos *repository.Repositories, cacheStore cache.Cache, logger *zap.Logger) *DashboardService {
	return &DashboardService{repos: repos, cache: cacheStore, logger: logger, now: time.Now}
}

// DashboardStats 看板数据
type DashboardStats struct {
	TotalProjects     int                `json:"totalProjects"`
	ActiveProjects    int                `json:"activeProjects"`
	TotalLeads        int                `json:"totalLeads"`
	NewLeads          int                `json:"newLeads"`
	LeadsByStatus     map[string]int     `json:"leadsByStatus"`
	TotalBookings     int                `json:"totalBookings"`
	ConfirmedBookings int                `json:"confirmedBookings"`
	TotalRevenue      float64            `json:"totalRevenue"`
	CollectedAmount   float64            `json:"collectedAmount"`
	TotalUnits        int                `json:"totalUnits"`
	AvailableUnits    int                `json:"availableUnits"`
	UnitsByStatus     map[string]int     `json:"unitsByStatus"`
	UpcomingVisits    int                `json:"upcomingVisits"`
	TodayVisits       int                `json:"todayVisits"`
	ConversionRate    float64            `json:"conversionRate"`
	RecentLeads       []entity.Lead      `json:"recentLeads"`
	NextVisits        []entity.SiteVisit `json:"nextVisits"`
	GeneratedAt       time.Time          `json:"generatedAt"`
}

// Stats 并发读取各集合后汇总，结果缓存 30 秒
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	return cached(ctx, s.cache, s.logger, dashboardCacheKey, s.compute)
}

func (s *DashboardService) compute(ctx context.Context) (*DashboardStats, error) {
	var (
		projects []entity.Project
		leads    []entity.Lead
		bookings []entity.Booking
		units    []entity.InventoryUnit
		visits   []entity.SiteVisit
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = s.repos.Projects.FindAll(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leads, err = s.repos.Leads.FindAll(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list leads: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookings, err = s.repos.Bookings.FindAll(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list bookings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		units, err = s.repos.Inventory.FindAll(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list inventory: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		visits, err = s.repos.SiteVisits.FindAll(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list site visits: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	stats := &DashboardStats{
		TotalProjects: len(projects),
		TotalLeads:    len(leads),
		TotalBookings: len(bookings),
		TotalUnits:    len(units),
		LeadsByStatus: make(map[string]int, len(entity.LeadStatuses)),
		UnitsByStatus: make(map[string]int, len(entity.UnitStatuses)),
		RecentLeads:   []entity.Lead{},
		NextVisits:    []entity.SiteVisit{},
		GeneratedAt:   now,
	}

	for _, p := range projects {
		if p.Status == entity.ProjectStatusActive {
			stats.ActiveProjects++
		}
	}

	for _, status := range entity.LeadStatuses {
		stats.LeadsByStatus[status] = 0
	}
	for _, l := range leads {
		stats.LeadsByStatus[l.Status]++
	}
	stats.NewLeads = stats.LeadsByStatus[entity.LeadStatusNew]
	if len(leads) > 0 {
		rate := float64(stats.LeadsByStatus[entity.LeadStatusBooked]) / float64(len(leads)) * 100
		stats.ConversionRate = math.Round(rate*100) / 100
	}
	// FindAll 已按创建时间倒序
	stats.RecentLeads = append(stats.RecentLeads, leads[:min(recentLeadCount, len(leads))]...)

	for _, b := range bookings {
		if b.Status == entity.BookingStatusCancelled {
			continue
		}
		if b.Status == entity.BookingStatusConfirmed {
			stats.ConfirmedBookings++
		}
		stats.TotalRevenue += b.Amount
		stats.CollectedAmount += b.PaidAmount
	}

	for _, status := range entity.UnitStatuses {
		stats.UnitsByStatus[status] = 0
	}
	for _, u := range units {
		stats.UnitsByStatus[u.Status]++
	}
	stats.AvailableUnits = stats.UnitsByStatus[entity.UnitStatusAvailable]

	today := now.Format(time.DateOnly)
	for _, v := range visits {
		if v.ScheduledAt == nil || !isOpenVisit(v.Status) {
			continue
		}
		if v.ScheduledAt.Format(time.DateOnly) == today {
			stats.TodayVisits++
		}
		if !v.ScheduledAt.Before(now) && v.ScheduledAt.Sub(now) <= upcomingVisitWindow {
			stats.UpcomingVisits++
			stats.NextVisits = append(stats.NextVisits, v)
		}
	}
	slices.SortStableFunc(stats.NextVisits, func(a, b entity.SiteVisit) int {
		return a.ScheduledAt.Compare(*b.ScheduledAt)
	})

	for i := range stats.RecentLeads {
		acts, err := s.repos.Activities.ListByEntity(ctx, entity.EntityLead, stats.RecentLeads[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load lead activities: %w", err)
		}
		stats.RecentLeads[i].Activities = acts
	}
	for i := range stats.NextVisits {
		acts, err := s.repos.Activities.ListByEntity(ctx, entity.EntitySiteVisit, stats.NextVisits[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load site visit activities: %w", err)
		}
		stats.NextVisits[i].Activities = acts
	}

	return stats, nil
}

func isOpenVisit(status string) bool {
	return status == entity.VisitStatusScheduled || status == entity.VisitStatusRescheduled
}

// cached 读缓存，未命中时计算并回写；缓存故障只记日志
func cached[T any](ctx context.Context, c cache.Cache, logger *zap.Logger, key string, compute func(context.Context) (*T, error)) (*T, error) {
	if c != nil {
		raw, ok, err := c.Get(ctx, key)
		if err != nil {
			logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			var out T
			if err := json.Unmarshal(raw, &out); err == nil {
				return &out, nil
			}
		}
	}

	out, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if c != nil {
		raw, err := json.Marshal(out)
		if err == nil {
			err = c.Set(ctx, key, raw, statsCacheTTL)
		}
		if err != nil {
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}
