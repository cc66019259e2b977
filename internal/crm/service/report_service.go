package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/cache"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReportService 报表：汇总统计与 Excel 导出
type ReportService struct {
	repos  *repository.Repositories
	cache  cache.Cache
	logger *zap.Logger
}

func NewReportService(repos *repository.Repositories, cacheStore cache.Cache, logger *zap.Logger) *ReportService {
	return &ReportService{repos: repos, cache: cacheStore, logger: logger}
}

// Breakdown 分组计数
type Breakdown struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ProjectRevenue 按项目汇总的预订金额（不含已取消）
type ProjectRevenue struct {
	ProjectID   string  `json:"projectId"`
	ProjectName string  `json:"projectName"`
	Bookings    int     `json:"bookings"`
	Amount      float64 `json:"amount"`
	PaidAmount  float64 `json:"paidAmount"`
}

// MonthlyBookings 按预订月份汇总
type MonthlyBookings struct {
	Month  string  `json:"month"` // YYYY-MM
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// ReportSummary 报表页数据
type ReportSummary struct {
	LeadsBySource      []Breakdown       `json:"leadsBySource"`
	LeadsByStatus      []Breakdown       `json:"leadsByStatus"`
	BookingsByStatus   []Breakdown       `json:"bookingsByStatus"`
	SiteVisitsByStatus []Breakdown       `json:"siteVisitsByStatus"`
	RevenueByProject   []ProjectRevenue  `json:"revenueByProject"`
	MonthlyBookings    []MonthlyBookings `json:"monthlyBookings"`
}

func (s *ReportService) Summary(ctx context.Context) (*ReportSummary, error) {
	return cached(ctx, s.cache, s.logger, summaryCacheKey, s.summarize)
}

func (s *ReportService) summarize(ctx context.Context) (*ReportSummary, error) {
	leads, err := s.repos.Leads.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	bookings, err := s.repos.Bookings.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	visits, err := s.repos.SiteVisits.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list site visits: %w", err)
	}

	sources := make(map[string]int)
	leadStatuses := make(map[string]int)
	for _, l := range leads {
		sources[firstNonEmpty(l.Source, "Unknown")]++
		leadStatuses[l.Status]++
	}

	bookingStatuses := make(map[string]int)
	revenue := make(map[string]*ProjectRevenue)
	monthly := make(map[string]*MonthlyBookings)
	for _, b := range bookings {
		bookingStatuses[b.Status]++
		if b.Status == entity.BookingStatusCancelled {
			continue
		}

		key := firstNonEmpty(b.ProjectID, b.ProjectName)
		pr, ok := revenue[key]
		if !ok {
			pr = &ProjectRevenue{ProjectID: b.ProjectID, ProjectName: b.ProjectName}
			revenue[key] = pr
		}
		pr.Bookings++
		pr.Amount += b.Amount
		pr.PaidAmount += b.PaidAmount

		when := b.CreatedAt
		if b.BookingDate != nil {
			when = *b.BookingDate
		}
		month := when.Format("2006-01")
		mb, ok := monthly[month]
		if !ok {
			mb = &MonthlyBookings{Month: month}
			monthly[month] = mb
		}
		mb.Count++
		mb.Amount += b.Amount
	}

	visitStatuses := make(map[string]int)
	for _, v := range visits {
		visitStatuses[v.Status]++
	}

	summary := &ReportSummary{
		LeadsBySource:      byCount(sources),
		LeadsByStatus:      inOrder(entity.LeadStatuses, leadStatuses),
		BookingsByStatus:   inOrder(entity.BookingStatuses, bookingStatuses),
		SiteVisitsByStatus: inOrder(entity.VisitStatuses, visitStatuses),
		RevenueByProject:   make([]ProjectRevenue, 0, len(revenue)),
		MonthlyBookings:    make([]MonthlyBookings, 0, len(monthly)),
	}
	for _, pr := range revenue {
		summary.RevenueByProject = append(summary.RevenueByProject, *pr)
	}
	slices.SortFunc(summary.RevenueByProject, func(a, b ProjectRevenue) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.ProjectName, b.ProjectName)
	})
	for _, mb := range monthly {
		summary.MonthlyBookings = append(summary.MonthlyBookings, *mb)
	}
	slices.SortFunc(summary.MonthlyBookings, func(a, b MonthlyBookings) int {
		return strings.Compare(a.Month, b.Month)
	})
	return summary, nil
}

// inOrder 按枚举顺序输出，缺失的状态计 0
func inOrder(order []string, counts map[string]int) []Breakdown {
	out := make([]Breakdown, 0, len(order))
	for _, label := range order {
		out = append(out, Breakdown{Label: label, Count: counts[label]})
	}
	return out
}

// byCount 数量降序，相同数量按名称
func byCount(counts map[string]int) []Breakdown {
	out := make([]Breakdown, 0, len(counts))
	for label, n := range counts {
		out = append(out, Breakdown{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b Breakdown) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
	return out
}

var leadExportHeaders = append(slices.Clone(leadImportColumns), "Projects Interested", "Next Follow Up", "Created At")

var bookingExportHeaders = []string{
	"Customer", "Phone", "Email", "Project", "Unit", "Amount", "Paid", "Payment Status", "Status", "Booking Date", "Assigned To", "Created At",
}

// ExportLeads 按列表查询条件导出全部匹配线索（不分页）
func (s *ReportService) ExportLeads(ctx context.Context, p query.Params) (*excelize.File, error) {
	leads, err := s.repos.Leads.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	leads = query.Select(leads, leadSpec(), p.Normalize())

	rows := make([][]interface{}, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []interface{}{
			l.Name, l.Email, l.Phone, l.Source, l.Status, l.AssignedTo, l.City,
			l.BudgetMin, l.BudgetMax, l.Notes,
			strings.Join(l.ProjectsInterested, ", "), formatDate(l.NextFollowUp), l.CreatedAt.Format(time.DateTime),
		})
	}
	return newWorkbook("Leads", leadExportHeaders, rows)
}

// ExportBookings 按列表查询条件导出预订，末行为金额合计
func (s *ReportService) ExportBookings(ctx context.Context, p query.Params) (*excelize.File, error) {
	bookings, err := s.repos.Bookings.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	bookings = query.Select(bookings, bookingSpec(), p.Normalize())

	var total, paid float64
	rows := make([][]interface{}, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, []interface{}{
			b.CustomerName, b.CustomerPhone, b.CustomerEmail, b.ProjectName, b.UnitNumber,
			b.Amount, b.PaidAmount, b.PaymentStatus, b.Status, formatDate(b.BookingDate),
			b.AssignedTo, b.CreatedAt.Format(time.DateTime),
		})
		if b.Status != entity.BookingStatusCancelled {
			total += b.Amount
			paid += b.PaidAmount
		}
	}

	f, err := newWorkbook("Bookings", bookingExportHeaders, rows)
	if err != nil {
		return nil, err
	}

	summaryRow := len(rows) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue("Bookings", fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue("Bookings", fmt.Sprintf("F%d", summaryRow), total)
	f.SetCellValue("Bookings", fmt.Sprintf("G%d", summaryRow), paid)
	f.SetCellStyle("Bookings", fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("L%d", summaryRow), summaryStyle)
	return f, nil
}

// LeadImportTemplate 线索导入模板，附填写说明页
func (s *ReportService) LeadImportTemplate() (*excelize.File, error) {
	sample := [][]interface{}{{
		"Amit Sharma", "amit@example.com", "+91 98200 00000", "Website", entity.LeadStatusNew,
		"", "Pune", 5000000, 7500000, "Prefers 2BHK",
	}}
	f, err := newWorkbook("Leads", leadImportColumns, sample)
	if err != nil {
		return nil, err
	}

	helpSheet := "Instructions"
	if _, err := f.NewSheet(helpSheet); err != nil {
		return nil, err
	}
	help := [][]string{
		{"Column", "Description", "Required"},
		{"Name", "Lead full name", "Yes"},
		{"Status", "One of: " + strings.Join(entity.LeadStatuses, ", ") + " (default New)", "No"},
		{"Budget Min / Budget Max", "Numbers, commas allowed", "No"},
		{"Other columns", "Free text", "No"},
	}
	for r, line := range help {
		for c, v := range line {
			col, _ := excelize.ColumnNumberToName(c + 1)
			f.SetCellValue(helpSheet, fmt.Sprintf("%s%d", col, r+1), v)
		}
	}
	f.SetColWidth(helpSheet, "A", "A", 24)
	f.SetColWidth(helpSheet, "B", "B", 80)
	return f, nil
}

// newWorkbook 单工作表，首行加粗表头
func newWorkbook(sheet string, headers []string, rows [][]interface{}) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
		f.SetColWidth(sheet, col, col, float64(max(12, len(h)+4)))
	}

	for r, values := range rows {
		for c, v := range values {
			col, _ := excelize.ColumnNumberToName(c + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, r+2), v)
		}
	}
	return f, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
