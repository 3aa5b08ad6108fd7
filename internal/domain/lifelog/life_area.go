package lifelog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LifeArea is a user-defined topical category ("Fitness", "Lesen", ...).
type LifeArea struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name     string    `gorm:"type:text;not null" json:"name"`
	Category string    `gorm:"type:text;not null;default:''" json:"category"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (LifeArea) TableName() string { return "life_areas" }

func (a *LifeArea) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}
