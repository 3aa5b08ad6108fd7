package domain

import (
	"github.com/yungbote/questlog-backend/internal/domain/lifelog"
)

const SourceTableActionLogs = lifelog.SourceTableActionLogs

type ActivityLog = lifelog.ActivityLog
type LifeArea = lifelog.LifeArea
type DocumentChunk = lifelog.DocumentChunk
type NoteMeta = lifelog.NoteMeta

// NoteFirstLine is the first non-blank line of the notes' plaintext.
func NoteFirstLine(notes string) string {
	return lifelog.FirstLine(lifelog.Plaintext(notes))
}
