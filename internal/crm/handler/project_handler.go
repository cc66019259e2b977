package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
)

// ProjectHandler 楼盘项目处理器
type ProjectHandler struct {
	*resource[entity.Project, service.CreateProjectRequest, service.UpdateProjectRequest]
	svc       *service.ProjectService
	maxUpload int64
}

func NewProjectHandler(svc *service.ProjectService, errs *responder, maxUpload int64) *ProjectHandler {
	return &ProjectHandler{
		resource: &resource[entity.Project, service.CreateProjectRequest, service.UpdateProjectRequest]{
			svc:    svc,
			remove: withoutActor(svc.Delete),
			label:  "Project",
			plural: "projects",
			errs:   errs,
		},
		svc:       svc,
		maxUpload: maxUpload,
	}
}

func (h *ProjectHandler) register(g *gin.RouterGroup) {
	h.resource.register(g)
	g.GET("/:id/inventory", h.ListInventory)
	g.GET("/:id/files", h.ListFiles)
	g.POST("/:id/files", h.UploadFile)
	g.GET("/:id/files/:fileId", h.DownloadFile)
	g.DELETE("/:id/files/:fileId", h.DeleteFile)
}

// ListInventory 项目下的房源
// GET /api/projects/:id/inventory
func (h *ProjectHandler) ListInventory(c *gin.Context) {
	res, err := h.svc.ListInventory(c.Request.Context(), c.Param("id"), listParams(c))
	if err != nil {
		h.errs.fail(c, h.label, err)
		return
	}
	Success(c, listBody("inventory", res))
}

// ListFiles 附件列表
// GET /api/projects/:id/files
func (h *ProjectHandler) ListFiles(c *gin.Context) {
	files, err := h.svc.ListFiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errs.fail(c, h.label, err)
		return
	}
	Success(c, gin.H{"files": files, "total": len(files)})
}

// UploadFile 上传附件（multipart 字段 file）
// POST /api/projects/:id/files
func (h *ProjectHandler) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "No file uploaded")
		return
	}
	defer file.Close()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		BadRequest(c, fmt.Sprintf("File too large, max %d MB", h.maxUpload>>20))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	saved, err := h.svc.UploadFile(c.Request.Context(), actor(c), c.Param("id"),
		filepath.Base(header.Filename), contentType, header.Size, file)
	if err != nil {
		h.errs.fail(c, h.label, err)
		return
	}
	Created(c, saved)
}

// DownloadFile 下载附件
// GET /api/projects/:id/files/:fileId
func (h *ProjectHandler) DownloadFile(c *gin.Context) {
	rc, file, err := h.svc.OpenFile(c.Request.Context(), c.Param("id"), c.Param("fileId"))
	if err != nil {
		h.errs.fail(c, "File", err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, file.Name),
	})
}

// DeleteFile 删除附件
// DELETE /api/projects/:id/files/:fileId
func (h *ProjectHandler) DeleteFile(c *gin.Context) {
	if err := h.svc.DeleteFile(c.Request.Context(), actor(c), c.Param("id"), c.Param("fileId")); err != nil {
		h.errs.fail(c, "File", err)
		return
	}
	Deleted(c, "File")
}
