package biz

import "errors"

// 业务层哨兵错误。handler 据此映射 HTTP 状态码。
var (
	// ErrUnsupportedFileType 上传的文件类型不在支持列表内。
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrExtractionFailed 文档解析失败（损坏或无法读取）。
	ErrExtractionFailed = errors.New("document extraction failed")

	// ErrProjectNotFound 项目不存在。
	ErrProjectNotFound = errors.New("project not found")

	// ErrDocumentNotFound 文档不存在。
	ErrDocumentNotFound = errors.New("document not found")

	// ErrChatNotFound 会话不存在。
	ErrChatNotFound = errors.New("chat not found")

	// ErrMessageNotFound 消息不存在。
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyQuestion 提问内容为空。
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrEmptyChatName 会话重命名的目标名称为空。
	ErrEmptyChatName = errors.New("chat name is empty")
)
