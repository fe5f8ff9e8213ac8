package model

import "time"

// DefaultChatName is the title of a chat before auto-titling succeeds.
const DefaultChatName = "New Chat"

// Chat is a conversation within a project, optionally scoped to a subset of
// the project's documents.
type Chat struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	ProjectID string    `json:"project_id" gorm:"type:varchar(64);not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name.
func (Chat) TableName() string {
	return "kb_chats"
}

// ChatDocument restricts a chat to a document. A chat with no rows here
// searches every document in its project.
type ChatDocument struct {
	ChatID     string `json:"chat_id" gorm:"primaryKey;type:varchar(64)"`
	DocumentID string `json:"document_id" gorm:"primaryKey;type:varchar(64)"`
}

// TableName returns the table name.
func (ChatDocument) TableName() string {
	return "kb_chat_documents"
}
