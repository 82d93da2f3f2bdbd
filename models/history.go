package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryRecord is one answered question kept for later review
type HistoryRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Provider  string    `json:"provider" db:"provider"`
	Prompt    string    `json:"prompt" db:"prompt"`
	ImageRef  string    `json:"image_ref,omitempty" db:"image_ref"` // Resized copy, not the original
	Response  string    `json:"response" db:"response"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the HistoryRecord model
func (HistoryRecord) TableName() string {
	return "history"
}

// NewHistoryRecord creates a new HistoryRecord instance
func NewHistoryRecord(provider, prompt, imageRef, response string) *HistoryRecord {
	return &HistoryRecord{
		ID:        uuid.New(),
		Provider:  provider,
		Prompt:    prompt,
		ImageRef:  imageRef,
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}
}

// HasImage reports whether the question carried an image
func (r *HistoryRecord) HasImage() bool {
	return r.ImageRef != ""
}

// Title returns a single-line summary for listings
func (r *HistoryRecord) Title(max int) string {
	text := r.Prompt
	if text == "" && r.HasImage() {
		text = "[image]"
	}
	runes := []rune(text)
	for i, c := range runes {
		if c == '\n' || c == '\r' {
			runes = runes[:i]
			break
		}
	}
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return string(runes)
}
