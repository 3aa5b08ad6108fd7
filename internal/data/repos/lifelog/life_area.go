package lifelog

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/questlog-backend/internal/domain"
	"github.com/yungbote/questlog-backend/internal/pkg/dbctx"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

type LifeAreaRepo interface {
	Create(dbc dbctx.Context, rows []*types.LifeArea) ([]*types.LifeArea, error)
	// ListByUser returns the user's areas in creation order.
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LifeArea, error)
}

type lifeAreaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLifeAreaRepo(db *gorm.DB, baseLog *logger.Logger) LifeAreaRepo {
	return &lifeAreaRepo{db: db, log: baseLog.With("repo", "LifeAreaRepo")}
}

func (r *lifeAreaRepo) Create(dbc dbctx.Context, rows []*types.LifeArea) ([]*types.LifeArea, error) {
	if len(rows) == 0 {
		return []*types.LifeArea{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lifeAreaRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LifeArea, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	var out []*types.LifeArea
	if err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
