package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/xuri/excelize/v2"
)

// LeadHandler 线索处理器
type LeadHandler struct {
	*resource[entity.Lead, service.CreateLeadRequest, service.UpdateLeadRequest]
	svc *service.LeadService
}

func NewLeadHandler(svc *service.LeadService, errs *responder) *LeadHandler {
	return &LeadHandler{
		resource: &resource[entity.Lead, service.CreateLeadRequest, service.UpdateLeadRequest]{
			svc:    svc,
			remove: withoutActor(svc.Delete),
			label:  "Lead",
			plural: "leads",
			errs:   errs,
		},
		svc: svc,
	}
}

func (h *LeadHandler) register(g *gin.RouterGroup) {
	h.resource.register(g)
	g.POST("/import", h.Import)
	g.PATCH("/:id/assign", h.Assign)
}

// Assign 分配销售
// PATCH /api/leads/:id/assign
func (h *LeadHandler) Assign(c *gin.Context) {
	var req service.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	lead, err := h.svc.Assign(c.Request.Context(), actor(c), c.Param("id"), &req)
	if err != nil {
		h.errs.fail(c, h.label, err)
		return
	}
	Success(c, lead)
}

// Import 从 Excel 导入线索
// POST /api/leads/import
func (h *LeadHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "No file uploaded")
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		BadRequest(c, "Invalid Excel file")
		return
	}
	defer f.Close()

	result, err := h.svc.Import(c.Request.Context(), actor(c), f)
	if err != nil {
		h.errs.fail(c, h.label, err)
		return
	}
	Success(c, result)
}
