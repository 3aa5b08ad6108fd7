package db

import (
	"fmt"

	types "github.com/yungbote/questlog-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.ActivityLog{},
		&types.LifeArea{},
		&types.DocumentChunk{},
	); err != nil {
		return err
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(streakFunctionSQL).Error; err != nil {
		return fmt.Errorf("install calculate_streak: %w", err)
	}
	return nil
}

// streakFunctionSQL counts consecutive days with a log, ending today in tz.
const streakFunctionSQL = `
CREATE OR REPLACE FUNCTION calculate_streak(uid uuid, tz text DEFAULT 'UTC')
RETURNS integer
LANGUAGE plpgsql
STABLE
AS $$
DECLARE
  streak integer := 0;
  d date := (now() AT TIME ZONE tz)::date;
BEGIN
  WHILE streak < 90 AND EXISTS (
    SELECT 1 FROM action_logs
    WHERE user_id = uid
      AND occurred_at >= (d::timestamp AT TIME ZONE tz)
      AND occurred_at < ((d + 1)::timestamp AT TIME ZONE tz)
  ) LOOP
    streak := streak + 1;
    d := d - 1;
  END LOOP;
  RETURN streak;
END;
$$;
`
