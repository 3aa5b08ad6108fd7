package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/questlog-backend/internal/data/repos/lifelog"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

type ActionLogRepo = lifelog.ActionLogRepo
type LifeAreaRepo = lifelog.LifeAreaRepo
type DocumentChunkRepo = lifelog.DocumentChunkRepo
type StreakRepo = lifelog.StreakRepo
type ChunkHit = lifelog.ChunkHit

type Repos struct {
	Logs    ActionLogRepo
	Areas   LifeAreaRepo
	Chunks  DocumentChunkRepo
	Streaks StreakRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Logs:    lifelog.NewActionLogRepo(db, log),
		Areas:   lifelog.NewLifeAreaRepo(db, log),
		Chunks:  lifelog.NewDocumentChunkRepo(db, log),
		Streaks: lifelog.NewStreakRepo(db, log),
	}
}
