package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docbase/internal/docbase/biz"
)

// ProjectHandler 项目相关接口。
type ProjectHandler struct {
	projects *biz.ProjectService
}

// NewProjectHandler 创建项目 handler。
func NewProjectHandler(projects *biz.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type createProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Create 创建项目。
// POST /v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, err := h.projects.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusCreated, project)
}

// Get 查询项目。
// GET /v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, project)
}

// List 列出全部项目。
// GET /v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, projects)
}

// Delete 删除项目。
// DELETE /v1/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, nil)
}

// Stats 服务级统计。
// GET /v1/stats
func (h *ProjectHandler) Stats(c *gin.Context) {
	stats, err := h.projects.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, stats)
}
