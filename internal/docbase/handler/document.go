package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docbase/internal/docbase/biz"
)

// maxUploadSize 上传文件大小上限。
const maxUploadSize = 64 << 20 // 64 MiB

// DocumentHandler 文档相关接口。
type DocumentHandler struct {
	documents *biz.DocumentService
}

// NewDocumentHandler 创建文档 handler。
func NewDocumentHandler(documents *biz.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload 上传文档并提交后台摄取，返回 202 与 pending 状态的文档。
// POST /v1/projects/:id/documents (multipart/form-data, field "file")
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeBadRequest(c, "missing file field: "+err.Error())
		return
	}
	if fileHeader.Size > maxUploadSize {
		writeBadRequest(c, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeBadRequest(c, "failed to open upload: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeBadRequest(c, "failed to read upload: "+err.Error())
		return
	}

	name := fileHeader.Filename
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")

	doc, err := h.documents.Ingest(c.Request.Context(), c.Param("id"), name, fileType, data)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusAccepted, doc)
}

// Get 查询文档及其摄取状态。
// GET /v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, doc)
}

// List 列出项目下的文档。
// GET /v1/projects/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, docs)
}

// contentTypes 按文件类型选择下载响应的 Content-Type。
var contentTypes = map[string]string{
	"pdf": "application/pdf",
	"txt": "text/plain; charset=utf-8",
	"md":  "text/markdown; charset=utf-8",
}

// Download 返回文档的原始文件内容。
// GET /v1/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, data, err := h.documents.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	contentType, ok := contentTypes[doc.FileType]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Delete 删除文档、其向量与原始文件。
// DELETE /v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, nil)
}
