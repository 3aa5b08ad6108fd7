package lifelog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is one logged activity. Rows are immutable except for EarnedXP,
// which the scoring service writes once.
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_action_logs_user_time,priority:1" json:"user_id"`
	OccurredAt time.Time  `gorm:"not null;index:idx_action_logs_user_time,priority:2" json:"occurred_at"`
	TemplateID *uuid.UUID `gorm:"type:uuid" json:"template_id,omitempty"`

	DurationMin *int   `json:"duration_min,omitempty"`
	Notes       string `gorm:"type:text;not null;default:''" json:"notes"`
	EarnedXP    int    `gorm:"column:earned_xp;not null;default:0" json:"earned_xp"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ActivityLog) TableName() string { return "action_logs" }

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	l.OccurredAt = l.OccurredAt.UTC()
	return nil
}

// Minutes returns the logged duration, treating a missing or negative value as 0.
func (l *ActivityLog) Minutes() int {
	if l == nil || l.DurationMin == nil || *l.DurationMin < 0 {
		return 0
	}
	return *l.DurationMin
}

// Meta parses the notes column.
func (l *ActivityLog) Meta() NoteMeta {
	if l == nil {
		return NoteMeta{}
	}
	return ParseNotes(l.Notes)
}
