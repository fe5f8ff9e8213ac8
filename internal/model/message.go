package model

import (
	"encoding/json"
	"time"
)

// Message sender types.
const (
	SenderHuman = "human"
	SenderAI    = "ai"
)

// Citation records one numbered source used in an AI answer.
type Citation struct {
	// Number is the bracket number in the answer text, starting at 1.
	Number int `json:"number"`
	// DocumentID is the cited document.
	DocumentID string `json:"document_id"`
	// DocumentName is the document name at citation time.
	DocumentName string `json:"document_name"`
	// ChunkID identifies the exact chunk backing the citation.
	ChunkID string `json:"chunk_id"`
	// Page is the 1-based source page, 0 for non-paged documents.
	Page int `json:"page,omitempty"`
	// Content is the chunk text shown as the source excerpt.
	Content string `json:"content"`
}

// Message is a single chat turn. AI messages carry the citations backing
// their answer as a JSON column.
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	ChatID    string    `json:"chat_id" gorm:"type:varchar(64);not null;index"`
	Sender    string    `json:"sender" gorm:"type:varchar(16);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Sources   string    `json:"-" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name.
func (Message) TableName() string {
	return "kb_messages"
}

// SetCitations serializes citations into the Sources column.
func (m *Message) SetCitations(citations []Citation) error {
	if len(citations) == 0 {
		m.Sources = ""
		return nil
	}
	data, err := json.Marshal(citations)
	if err != nil {
		return err
	}
	m.Sources = string(data)
	return nil
}

// Citations deserializes the Sources column. A message without sources
// returns an empty slice.
func (m *Message) Citations() ([]Citation, error) {
	if m.Sources == "" {
		return []Citation{}, nil
	}
	var citations []Citation
	if err := json.Unmarshal([]byte(m.Sources), &citations); err != nil {
		return nil, err
	}
	return citations, nil
}
