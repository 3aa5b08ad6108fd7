package lifelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/questlog-backend/internal/domain"
	"github.com/yungbote/questlog-backend/internal/pkg/dbctx"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

// ActionLogRepo reads a single user's activity logs. Every method is scoped by
// user_id; there is no cross-user query.
type ActionLogRepo interface {
	Create(dbc dbctx.Context, rows []*types.ActivityLog) ([]*types.ActivityLog, error)
	// Count counts logs with occurred_at >= since; a nil since counts all logs.
	Count(dbc dbctx.Context, userID uuid.UUID, since *time.Time) (int64, error)
	// ListSince returns logs with occurred_at >= since, newest first. limit <= 0 means no limit.
	ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time, limit int) ([]*types.ActivityLog, error)
	// ListRange returns logs in [start, end), newest first.
	ListRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.ActivityLog, error)
	// SearchNotes does a case-insensitive substring search over the raw notes column.
	SearchNotes(dbc dbctx.Context, userID uuid.UUID, phrase string, limit int) ([]*types.ActivityLog, error)
	// ListForIngest returns all logs (or those since the given instant), newest first.
	ListForIngest(dbc dbctx.Context, userID uuid.UUID, since *time.Time) ([]*types.ActivityLog, error)
	SetEarnedXP(dbc dbctx.Context, userID, logID uuid.UUID, xp int) error
}

type actionLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActionLogRepo(db *gorm.DB, baseLog *logger.Logger) ActionLogRepo {
	return &actionLogRepo{db: db, log: baseLog.With("repo", "ActionLogRepo")}
}

func (r *actionLogRepo) Create(dbc dbctx.Context, rows []*types.ActivityLog) ([]*types.ActivityLog, error) {
	if len(rows) == 0 {
		return []*types.ActivityLog{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *actionLogRepo) Count(dbc dbctx.Context, userID uuid.UUID, since *time.Time) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("missing user_id")
	}
	q := dbc.Conn(r.db).Model(&types.ActivityLog{}).Where("user_id = ?", userID)
	if since != nil {
		q = q.Where("occurred_at >= ?", since.UTC())
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *actionLogRepo) ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time, limit int) ([]*types.ActivityLog, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	q := dbc.Conn(r.db).
		Where("user_id = ? AND occurred_at >= ?", userID, since.UTC()).
		Order("occurred_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.ActivityLog
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *actionLogRepo) ListRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.ActivityLog, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	var out []*types.ActivityLog
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?", userID, start.UTC(), end.UTC()).
		Order("occurred_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *actionLogRepo) SearchNotes(dbc dbctx.Context, userID uuid.UUID, phrase string, limit int) ([]*types.ActivityLog, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return []*types.ActivityLog{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.ActivityLog
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND LOWER(notes) LIKE ? ESCAPE '\\'", userID, "%"+escapeLike(strings.ToLower(phrase))+"%").
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *actionLogRepo) ListForIngest(dbc dbctx.Context, userID uuid.UUID, since *time.Time) ([]*types.ActivityLog, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	q := dbc.Conn(r.db).Where("user_id = ?", userID)
	if since != nil {
		q = q.Where("occurred_at >= ?", since.UTC())
	}
	var out []*types.ActivityLog
	if err := q.Order("occurred_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetEarnedXP writes earned_xp once; a row that already carries XP is left alone.
func (r *actionLogRepo) SetEarnedXP(dbc dbctx.Context, userID, logID uuid.UUID, xp int) error {
	if userID == uuid.Nil || logID == uuid.Nil {
		return fmt.Errorf("missing ids")
	}
	return dbc.Conn(r.db).
		Model(&types.ActivityLog{}).
		Where("id = ? AND user_id = ? AND earned_xp = 0", logID, userID).
		Update("earned_xp", xp).Error
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
