package model

import "time"

// Document ingestion status values.
const (
	// StatusPending means the upload is accepted but not yet processed.
	StatusPending = "pending"
	// StatusProcessing means extraction and indexing are in progress.
	StatusProcessing = "processing"
	// StatusSuccessful means all chunks are indexed and retrievable.
	StatusSuccessful = "successful"
	// StatusFailed means ingestion failed; the document is not retrievable.
	StatusFailed = "failed"
)

// Supported upload file types.
const (
	FileTypePDF      = "pdf"
	FileTypeText     = "txt"
	FileTypeMarkdown = "md"
)

// Document is an uploaded source file and its ingestion state.
// The raw bytes live in blob storage; the chunks live in the vector index.
type Document struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	ProjectID  string    `json:"project_id" gorm:"type:varchar(64);not null;index"`
	Name       string    `json:"name" gorm:"type:varchar(512);not null"`
	FileType   string    `json:"file_type" gorm:"type:varchar(16);not null"`
	SizeBytes  int64     `json:"size_bytes"`
	Status     string    `json:"status" gorm:"type:varchar(16);not null;default:pending"`
	ChunkCount int       `json:"chunk_count"`
	Error      string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the table name.
func (Document) TableName() string {
	return "kb_documents"
}

// Retrievable reports whether the document's chunks are available for search.
func (d *Document) Retrievable() bool {
	return d.Status == StatusSuccessful
}
