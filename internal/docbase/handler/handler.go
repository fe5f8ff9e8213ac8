// Package handler 提供 HTTP 接入层。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docbase/internal/docbase/biz"
)

// Response 统一响应信封。
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Code: 0, Message: "success", Data: data})
}

// writeError 将业务错误映射为 HTTP 状态码。
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, biz.ErrUnsupportedFileType),
		errors.Is(err, biz.ErrEmptyQuestion),
		errors.Is(err, biz.ErrEmptyChatName):
		status = http.StatusBadRequest
	case errors.Is(err, biz.ErrProjectNotFound),
		errors.Is(err, biz.ErrDocumentNotFound),
		errors.Is(err, biz.ErrChatNotFound),
		errors.Is(err, biz.ErrMessageNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, Response{Code: status, Message: err.Error()})
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: message})
}
