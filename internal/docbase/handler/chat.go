package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docbase/internal/docbase/biz"
	"github.com/kart-io/docbase/internal/model"
)

// ChatHandler 会话与问答接口。
type ChatHandler struct {
	chats *biz.ChatService
}

// NewChatHandler 创建会话 handler。
func NewChatHandler(chats *biz.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

type createChatRequest struct {
	Name        string   `json:"name"`
	DocumentIDs []string `json:"document_ids"`
}

// Create 创建会话。
// POST /v1/projects/:id/chats
func (h *ChatHandler) Create(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	chat, err := h.chats.Create(c.Request.Context(), c.Param("id"), req.Name, req.DocumentIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusCreated, chat)
}

// Get 查询会话。
// GET /v1/chats/:id
func (h *ChatHandler) Get(c *gin.Context) {
	chat, err := h.chats.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, chat)
}

// List 列出项目下的会话。
// GET /v1/projects/:id/chats
func (h *ChatHandler) List(c *gin.Context) {
	chats, err := h.chats.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, chats)
}

// Delete 删除会话。
// DELETE /v1/chats/:id
func (h *ChatHandler) Delete(c *gin.Context) {
	if err := h.chats.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, nil)
}

type renameChatRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename 重命名会话。
// PATCH /v1/chats/:id
func (h *ChatHandler) Rename(c *gin.Context) {
	var req renameChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	chat, err := h.chats.Rename(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, chat)
}

type addDocumentsRequest struct {
	DocumentIDs []string `json:"document_ids" binding:"required"`
}

// AddDocuments 将文档追加进会话的检索范围。
// POST /v1/chats/:id/documents
func (h *ChatHandler) AddDocuments(c *gin.Context) {
	var req addDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.chats.AddDocuments(c.Request.Context(), c.Param("id"), req.DocumentIDs); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, nil)
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

type askResponse struct {
	Human     *model.Message   `json:"human"`
	AI        *model.Message   `json:"ai"`
	Citations []model.Citation `json:"citations"`
}

// Ask 执行一轮问答。
// POST /v1/chats/:id/messages
func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	turn, err := h.chats.AskQuestion(c.Request.Context(), c.Param("id"), req.Question)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, askResponse{
		Human:     turn.Human,
		AI:        turn.AI,
		Citations: turn.Citations,
	})
}

// Messages 按时间升序返回会话消息。
// GET /v1/chats/:id/messages
func (h *ChatHandler) Messages(c *gin.Context) {
	messages, err := h.chats.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, messages)
}

// Sources 返回某条 AI 消息的引用来源。
// GET /v1/messages/:id/sources
func (h *ChatHandler) Sources(c *gin.Context) {
	citations, err := h.chats.Sources(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, citations)
}
