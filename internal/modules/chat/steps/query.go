package steps

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/questlog-backend/internal/domain"
)

type Intent string

const (
	IntentNone          Intent = ""
	IntentStreak        Intent = "streak"
	IntentOnDate        Intent = "on_date"
	IntentCount         Intent = "count"
	IntentXPSum         Intent = "xp_sum"
	IntentAvgDuration   Intent = "avg_duration"
	IntentTotalDuration Intent = "total_duration"
	IntentTopAreas      Intent = "top_areas"
	IntentFocus         Intent = "focus"
	IntentSummarizeArea Intent = "summarize_area"
	IntentLearnedFrom   Intent = "learned_from"
	IntentRecentList    Intent = "recent_list"
)

// Query is the per-request state shared by classification and the handlers.
type Query struct {
	UserID        uuid.UUID
	Raw           string
	Lower         string
	Now           time.Time
	Window        Window
	TopK          int
	MinSimilarity float64
	Intent        Intent

	// set by the on_date matcher
	Day *DayRange

	areasLoaded bool
	area        *types.LifeArea
	loadAreas   func(ctx context.Context) ([]*types.LifeArea, error)
}

func NewQuery(userID uuid.UUID, raw string, now time.Time) *Query {
	lower := strings.ToLower(raw)
	return &Query{
		UserID: userID,
		Raw:    raw,
		Lower:  lower,
		Now:    now,
		Window: ExtractWindow(lower, now),
	}
}

// Area resolves the query's life area once and caches the result, nil included.
func (q *Query) Area(ctx context.Context) (*types.LifeArea, error) {
	if q.areasLoaded {
		return q.area, nil
	}
	if q.loadAreas == nil {
		q.areasLoaded = true
		return nil, nil
	}
	areas, err := q.loadAreas(ctx)
	if err != nil {
		return nil, err
	}
	q.areasLoaded = true
	q.area = ResolveArea(q.Lower, areas)
	return q.area, nil
}

type Source struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	OccurredAt *time.Time `json:"occurred_at"`
}

const (
	ModeDeterministic = "deterministic"
	ModeData          = "data"
	ModeSmalltalk     = "smalltalk"
	ModeDisabled      = "disabled"
)

type Answer struct {
	Text    string
	Sources []Source
	Intent  Intent
	Mode    string
}

func deterministic(intent Intent, text string) Answer {
	return Answer{Text: text, Sources: []Source{}, Intent: intent, Mode: ModeDeterministic}
}
