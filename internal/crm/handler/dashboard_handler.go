package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/xuri/excelize/v2"
)

// DashboardHandler 首页统计
type DashboardHandler struct {
	svc  *service.DashboardService
	errs *responder
}

func NewDashboardHandler(svc *service.DashboardService, errs *responder) *DashboardHandler {
	return &DashboardHandler{svc: svc, errs: errs}
}

// Stats GET /api/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.errs.fail(c, "Dashboard", err)
		return
	}
	Success(c, stats)
}

// SettingsHandler 公司配置
type SettingsHandler struct {
	svc  *service.SettingsService
	errs *responder
}

func NewSettingsHandler(svc *service.SettingsService, errs *responder) *SettingsHandler {
	return &SettingsHandler{svc: svc, errs: errs}
}

// Get GET /api/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.svc.Get(c.Request.Context())
	if err != nil {
		h.errs.fail(c, "Settings", err)
		return
	}
	Success(c, settings)
}

// Update PUT /api/settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	settings, err := h.svc.Update(c.Request.Context(), &req)
	if err != nil {
		h.errs.fail(c, "Settings", err)
		return
	}
	Success(c, settings)
}

// ReportHandler 报表与 Excel 导出
type ReportHandler struct {
	svc  *service.ReportService
	errs *responder
}

func NewReportHandler(svc *service.ReportService, errs *responder) *ReportHandler {
	return &ReportHandler{svc: svc, errs: errs}
}

// Summary GET /api/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		h.errs.fail(c, "Report", err)
		return
	}
	Success(c, summary)
}

// ExportLeads 按列表筛选条件导出线索
// GET /api/reports/leads/export
func (h *ReportHandler) ExportLeads(c *gin.Context) {
	f, err := h.svc.ExportLeads(c.Request.Context(), listParams(c))
	if err != nil {
		h.errs.fail(c, "Lead", err)
		return
	}
	writeWorkbook(c, f, fmt.Sprintf("leads_%s.xlsx", time.Now().Format("20060102")))
}

// ExportBookings GET /api/reports/bookings/export
func (h *ReportHandler) ExportBookings(c *gin.Context) {
	f, err := h.svc.ExportBookings(c.Request.Context(), listParams(c))
	if err != nil {
		h.errs.fail(c, "Booking", err)
		return
	}
	writeWorkbook(c, f, fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102")))
}

// LeadTemplate 线索导入模板
// GET /api/reports/leads/template
func (h *ReportHandler) LeadTemplate(c *gin.Context) {
	f, err := h.svc.LeadImportTemplate()
	if err != nil {
		h.errs.fail(c, "Report", err)
		return
	}
	writeWorkbook(c, f, "lead_import_template.xlsx")
}

func writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Transfer-Encoding", "binary")
	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}
