package lifelog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/questlog-backend/internal/domain"
	"github.com/yungbote/questlog-backend/internal/pkg/dbctx"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

// StreakLookbackDays bounds both the stored function and the in-process scan.
const StreakLookbackDays = 90

type StreakRepo interface {
	// Compute returns the number of consecutive days, ending today in now's
	// location, on which the user logged at least one activity.
	Compute(dbc dbctx.Context, userID uuid.UUID, now time.Time) (int, error)
}

type streakRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreakRepo(db *gorm.DB, baseLog *logger.Logger) StreakRepo {
	return &streakRepo{db: db, log: baseLog.With("repo", "StreakRepo")}
}

func (r *streakRepo) Compute(dbc dbctx.Context, userID uuid.UUID, now time.Time) (int, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("missing user_id")
	}
	if r.db != nil && r.db.Dialector != nil && r.db.Dialector.Name() == "postgres" {
		n, err := r.viaFunction(dbc, userID, now)
		if err == nil {
			return n, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42883" {
			r.log.Warn("calculate_streak missing; scanning logs", "user_id", userID)
		} else {
			r.log.Warn("calculate_streak failed; scanning logs", "user_id", userID, "error", err)
		}
	}
	return r.scan(dbc, userID, now)
}

func (r *streakRepo) viaFunction(dbc dbctx.Context, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	row := dbc.Conn(r.db).Raw("SELECT calculate_streak(?, ?)", userID, tzName(now.Location())).Row()
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *streakRepo) scan(dbc dbctx.Context, userID uuid.UUID, now time.Time) (int, error) {
	since := now.Add(-StreakLookbackDays * 24 * time.Hour)
	var rows []*types.ActivityLog
	if err := dbc.Conn(r.db).
		Select("occurred_at").
		Where("user_id = ? AND occurred_at >= ?", userID, since.UTC()).
		Find(&rows).Error; err != nil {
		return 0, err
	}
	occurred := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		occurred = append(occurred, row.OccurredAt)
	}
	return StreakFromDates(occurred, now), nil
}

// StreakFromDates counts consecutive calendar days (in now's location) with
// at least one entry, walking backward from today.
func StreakFromDates(occurred []time.Time, now time.Time) int {
	loc := now.Location()
	days := make(map[string]struct{}, len(occurred))
	for _, t := range occurred {
		days[t.In(loc).Format("2006-01-02")] = struct{}{}
	}
	streak := 0
	for i := 0; i < StreakLookbackDays; i++ {
		d := now.AddDate(0, 0, -i).Format("2006-01-02")
		if _, ok := days[d]; !ok {
			break
		}
		streak++
	}
	return streak
}

func tzName(loc *time.Location) string {
	if loc == nil {
		return "UTC"
	}
	name := loc.String()
	if name == "" || name == "Local" {
		return "UTC"
	}
	return name
}
