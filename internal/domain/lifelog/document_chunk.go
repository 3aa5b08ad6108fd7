package lifelog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const SourceTableActionLogs = "action_logs"

// DocumentChunk is a retrievable fragment of a log plus its embedding. Rows are
// unique per (user_id, source_table, source_id) so re-ingestion updates in place.
type DocumentChunk struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_documents_source,priority:1" json:"user_id"`
	SourceTable string    `gorm:"type:text;not null;uniqueIndex:idx_user_documents_source,priority:2" json:"source_table"`
	SourceID    string    `gorm:"type:text;not null;uniqueIndex:idx_user_documents_source,priority:3" json:"source_id"`

	Title   string `gorm:"type:text;not null;default:''" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	Embedding  datatypes.JSON `gorm:"type:jsonb;not null" json:"-"`
	OccurredAt *time.Time     `gorm:"index" json:"occurred_at,omitempty"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DocumentChunk) TableName() string { return "user_documents" }

func (c *DocumentChunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	if len(c.Embedding) == 0 {
		c.Embedding = datatypes.JSON("[]")
	}
	return nil
}

// SetVector stores vec as the JSON embedding.
func (c *DocumentChunk) SetVector(vec []float32) error {
	b, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	c.Embedding = datatypes.JSON(b)
	return nil
}

// Vector decodes the JSON embedding; an empty or malformed column yields nil.
func (c *DocumentChunk) Vector() []float32 {
	if c == nil || len(c.Embedding) == 0 {
		return nil
	}
	var out []float32
	if err := json.Unmarshal(c.Embedding, &out); err != nil {
		return nil
	}
	return out
}
