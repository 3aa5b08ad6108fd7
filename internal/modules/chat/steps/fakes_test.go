package steps

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/questlog-backend/internal/domain"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type memStore struct {
	logs      []*types.ActivityLog
	areas     []*types.LifeArea
	streak    int
	streakErr error
	listErr   error
	areaCalls int
}

func (m *memStore) add(user uuid.UUID, ago time.Duration, minutes, xp int, notes string) *types.ActivityLog {
	d := minutes
	l := &types.ActivityLog{
		ID:          uuid.New(),
		UserID:      user,
		OccurredAt:  testNow.Add(-ago),
		DurationMin: &d,
		EarnedXP:    xp,
		Notes:       notes,
	}
	m.logs = append(m.logs, l)
	return l
}

func (m *memStore) addArea(user uuid.UUID, name, category string) {
	m.areas = append(m.areas, &types.LifeArea{ID: uuid.New(), UserID: user, Name: name, Category: category})
}

func (m *memStore) filter(user uuid.UUID, keep func(*types.ActivityLog) bool) []*types.ActivityLog {
	var out []*types.ActivityLog
	for _, l := range m.logs {
		if l.UserID == user && keep(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out
}

func (m *memStore) CountLogs(_ context.Context, user uuid.UUID, since *time.Time) (int64, error) {
	if m.listErr != nil {
		return 0, m.listErr
	}
	rows := m.filter(user, func(l *types.ActivityLog) bool { return since == nil || !l.OccurredAt.Before(*since) })
	return int64(len(rows)), nil
}

func (m *memStore) ListLogsSince(_ context.Context, user uuid.UUID, since time.Time, limit int) ([]*types.ActivityLog, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	rows := m.filter(user, func(l *types.ActivityLog) bool { return !l.OccurredAt.Before(since) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *memStore) ListLogsRange(_ context.Context, user uuid.UUID, start, end time.Time) ([]*types.ActivityLog, error) {
	return m.filter(user, func(l *types.ActivityLog) bool {
		return !l.OccurredAt.Before(start) && l.OccurredAt.Before(end)
	}), nil
}

func (m *memStore) SearchLogNotes(_ context.Context, user uuid.UUID, phrase string, limit int) ([]*types.ActivityLog, error) {
	rows := m.filter(user, func(l *types.ActivityLog) bool {
		return strings.Contains(strings.ToLower(l.Notes), strings.ToLower(phrase))
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *memStore) ListAreas(_ context.Context, user uuid.UUID) ([]*types.LifeArea, error) {
	m.areaCalls++
	var out []*types.LifeArea
	for _, a := range m.areas {
		if a.UserID == user {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ComputeStreak(context.Context, uuid.UUID, time.Time) (int, error) {
	return m.streak, m.streakErr
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = f.vec
	}
	return out, nil
}

type completion struct {
	system      string
	user        string
	temperature float64
}

type fakeCompleter struct {
	reply string
	err   error
	calls []completion
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string, temperature float64) (string, error) {
	f.calls = append(f.calls, completion{system: system, user: user, temperature: temperature})
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type searchCall struct {
	matchCount    int
	minSimilarity float64
	userID        uuid.UUID
}

type fakeSearcher struct {
	matches []ChunkMatch
	err     error
	calls   []searchCall
}

func (f *fakeSearcher) SearchSimilarChunks(_ context.Context, _ []float32, matchCount int, minSimilarity float64, userID uuid.UUID) ([]ChunkMatch, error) {
	f.calls = append(f.calls, searchCall{matchCount: matchCount, minSimilarity: minSimilarity, userID: userID})
	return f.matches, f.err
}

func areaNotes(area, body string) string {
	return `{"area":"` + area + `","delta":[{"insert":"` + body + `\n"}]}`
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }
