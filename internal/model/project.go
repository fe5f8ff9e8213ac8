package model

import "time"

// Project is a tenant scope. Documents and chats always belong to exactly
// one project, and retrieval never crosses project boundaries.
type Project struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name.
func (Project) TableName() string {
	return "kb_projects"
}
