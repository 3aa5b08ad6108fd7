package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	types "github.com/yungbote/questlog-backend/internal/domain"
	"github.com/yungbote/questlog-backend/internal/platform/apierr"
)

const (
	widenedWindowDays = 30
	topAreasLimit     = 5
	summaryBullets    = 8
	learnedSearchCap  = 50
	learnedSnippets   = 10
)

// Analytics answers classified questions straight from the log store. It never
// calls the embedding or generation services.
type Analytics struct {
	logs    LogStore
	areas   AreaStore
	streaks StreakSource
	cfg     Config
	table   []intentRule
}

func NewAnalytics(logs LogStore, areas AreaStore, streaks StreakSource, cfg Config) *Analytics {
	a := &Analytics{logs: logs, areas: areas, streaks: streaks, cfg: cfg.withDefaults()}
	a.table = a.rules()
	return a
}

func (a *Analytics) bind(q *Query) {
	if q.loadAreas != nil || a.areas == nil {
		return
	}
	userID := q.UserID
	q.loadAreas = func(ctx context.Context) ([]*types.LifeArea, error) {
		return a.areas.ListAreas(ctx, userID)
	}
}

// Answer classifies q and, when an intent fires, runs its handler. ok is false
// when no intent matched.
func (a *Analytics) Answer(ctx context.Context, q *Query) (ans Answer, ok bool, err error) {
	a.bind(q)
	rule, err := a.classify(ctx, q)
	if err != nil {
		return Answer{}, false, storeErr(err)
	}
	if rule == nil {
		return Answer{}, false, nil
	}
	q.Intent = rule.intent
	ans, err = rule.handle(ctx, q)
	if err != nil {
		return Answer{}, true, storeErr(err)
	}
	return ans, true, nil
}

func storeErr(err error) error {
	return apierr.Upstream("store", err)
}

func (a *Analytics) streak(ctx context.Context, q *Query) (Answer, error) {
	n, err := a.streaks.ComputeStreak(ctx, q.UserID, q.Now)
	if err != nil {
		return Answer{}, err
	}
	return deterministic(IntentStreak, fmt.Sprintf("Dein aktueller Streak: %d %s.", n, plural(int64(n), "Tag", "Tage"))), nil
}

func (a *Analytics) onDate(ctx context.Context, q *Query) (Answer, error) {
	day := q.Day
	if day == nil {
		d, ok := ParseOnDate(q.Lower, q.Now)
		if !ok {
			return a.recentList(ctx, q)
		}
		day = &d
	}
	rows, err := a.logs.ListLogsRange(ctx, q.UserID, day.Start, day.End)
	if err != nil {
		return Answer{}, err
	}
	label := fmt.Sprintf("%d.%d.%d", day.Start.Day(), int(day.Start.Month()), day.Start.Year())
	if len(rows) == 0 {
		return deterministic(IntentOnDate, fmt.Sprintf("Keine Aktivitäten am %s.", label)), nil
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, logLine(r, a.cfg.Location, "2006-01-02 15:04"))
	}
	return deterministic(IntentOnDate, fmt.Sprintf("Aktivitäten am %s:\n%s", label, strings.Join(lines, "\n"))), nil
}

func (a *Analytics) count(ctx context.Context, q *Query) (Answer, error) {
	if reTotal.MatchString(q.Lower) {
		n, err := a.logs.CountLogs(ctx, q.UserID, nil)
		if err != nil {
			return Answer{}, err
		}
		return deterministic(IntentCount, fmt.Sprintf("Insgesamt hast du %s erfasst.", activities(n))), nil
	}

	// Counts are never narrowed to an area.
	n, err := a.countIn(ctx, q, q.Window)
	if err != nil {
		return Answer{}, err
	}
	if n > 0 {
		return deterministic(IntentCount, fmt.Sprintf("Du hast %s %s erfasst.", lastDays(q.Window.Days), activities(n))), nil
	}
	if q.Window.Days >= widenedWindowDays {
		return deterministic(IntentCount, fmt.Sprintf("Du hast %s keine Aktivitäten erfasst.", lastDays(q.Window.Days))), nil
	}

	wide := WindowOf(q.Now, widenedWindowDays)
	m, err := a.countIn(ctx, q, wide)
	if err != nil {
		return Answer{}, err
	}
	return deterministic(IntentCount, fmt.Sprintf(
		"Im gewünschten Zeitraum (%d %s) keine Aktivitäten. In den letzten ≈%d Tagen hast du %s erfasst.",
		q.Window.Days, plural(int64(q.Window.Days), "Tag", "Tage"), wide.Days, activities(m),
	)), nil
}

func (a *Analytics) countIn(ctx context.Context, q *Query, w Window) (int64, error) {
	since := w.Since
	return a.logs.CountLogs(ctx, q.UserID, &since)
}

// windowRows returns the window's logs, narrowed to the resolved area if any.
func (a *Analytics) windowRows(ctx context.Context, q *Query) ([]*types.ActivityLog, string, error) {
	area, err := q.Area(ctx)
	if err != nil {
		return nil, "", err
	}
	key, scope := areaScope(area)
	rows, err := a.logs.ListLogsSince(ctx, q.UserID, q.Window.Since, 0)
	if err != nil {
		return nil, "", err
	}
	return filterArea(rows, key), scope, nil
}

func (a *Analytics) xpSum(ctx context.Context, q *Query) (Answer, error) {
	rows, scope, err := a.windowRows(ctx, q)
	if err != nil {
		return Answer{}, err
	}
	total := 0
	for _, r := range rows {
		total += r.EarnedXP
	}
	return deterministic(IntentXPSum, fmt.Sprintf("XP%s %s: %d.", scope, lastDays(q.Window.Days), total)), nil
}

func (a *Analytics) avgDuration(ctx context.Context, q *Query) (Answer, error) {
	rows, scope, err := a.windowRows(ctx, q)
	if err != nil {
		return Answer{}, err
	}
	sum, n := 0, 0
	for _, r := range rows {
		if m := r.Minutes(); m > 0 {
			sum += m
			n++
		}
	}
	return deterministic(IntentAvgDuration, fmt.Sprintf("Ø Dauer%s %s: %s.", scope, lastDays(q.Window.Days), FormatMinutes(roundedMean(sum, n)))), nil
}

func (a *Analytics) totalDuration(ctx context.Context, q *Query) (Answer, error) {
	rows, scope, err := a.windowRows(ctx, q)
	if err != nil {
		return Answer{}, err
	}
	total := 0
	for _, r := range rows {
		total += r.Minutes()
	}
	return deterministic(IntentTotalDuration, fmt.Sprintf("Gesamtdauer%s %s: %s.", scope, lastDays(q.Window.Days), FormatMinutes(total))), nil
}

type AreaStat struct {
	Name    string
	Count   int
	Minutes int
}

// AggregateAreas groups logs by their case-folded notes area, in first-seen
// order. Logs without an area are skipped.
func AggregateAreas(rows []*types.ActivityLog) []AreaStat {
	idx := map[string]int{}
	var out []AreaStat
	for _, r := range rows {
		name := strings.TrimSpace(r.Meta().Area)
		key := areaKey(name)
		if key == "" {
			continue
		}
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, AreaStat{Name: name})
		}
		out[i].Count++
		out[i].Minutes += r.Minutes()
	}
	return out
}

// RankAreas sorts stats descending by duration or by count, keeping the input
// order among equals, and keeps at most limit entries.
func RankAreas(stats []AreaStat, byDuration bool, limit int) []AreaStat {
	ranked := append([]AreaStat(nil), stats...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if byDuration {
			return ranked[i].Minutes > ranked[j].Minutes
		}
		return ranked[i].Count > ranked[j].Count
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func (a *Analytics) topAreas(ctx context.Context, q *Query) (Answer, error) {
	rows, err := a.logs.ListLogsSince(ctx, q.UserID, q.Window.Since, 0)
	if err != nil {
		return Answer{}, err
	}
	byDuration := reDurationWord.MatchString(q.Lower)
	top := RankAreas(AggregateAreas(rows), byDuration, topAreasLimit)
	if len(top) == 0 {
		return deterministic(IntentTopAreas, fmt.Sprintf("Keine Daten für Top-Bereiche %s.", lastDays(q.Window.Days))), nil
	}
	metric := "Anzahl"
	if byDuration {
		metric = "Dauer"
	}
	lines := make([]string, 0, len(top))
	for i, s := range top {
		value := fmt.Sprintf("%d×", s.Count)
		if byDuration {
			value = FormatMinutes(s.Minutes)
		}
		lines = append(lines, fmt.Sprintf("%d. %s – %s", i+1, s.Name, value))
	}
	return deterministic(IntentTopAreas, fmt.Sprintf("Top-Bereiche %s nach %s:\n%s", lastDays(q.Window.Days), metric, strings.Join(lines, "\n"))), nil
}

func (a *Analytics) focus(ctx context.Context, q *Query) (Answer, error) {
	rows, err := a.logs.ListLogsSince(ctx, q.UserID, q.Window.Since, 0)
	if err != nil {
		return Answer{}, err
	}
	stats := AggregateAreas(rows)
	if len(stats) == 0 {
		return deterministic(IntentFocus, fmt.Sprintf("Keine Aktivitäten mit Bereich %s.", lastDays(q.Window.Days))), nil
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Minutes != stats[j].Minutes {
			return stats[i].Minutes > stats[j].Minutes
		}
		return stats[i].Count > stats[j].Count
	})
	top := stats[0]
	return deterministic(IntentFocus, fmt.Sprintf("Dein Fokus %s lag auf „%s“ (%s, %s).",
		lastDays(q.Window.Days), top.Name, FormatMinutes(top.Minutes), activities(int64(top.Count)))), nil
}

func (a *Analytics) summarizeArea(ctx context.Context, q *Query) (Answer, error) {
	area, err := q.Area(ctx)
	if err != nil {
		return Answer{}, err
	}
	var name, key string
	if area != nil {
		name, key = area.Name, areaKey(area.Name)
	} else {
		key = reTopicWord.FindString(q.Lower)
		name = capitalize(key)
	}

	days, approx := q.Window.Days, ""
	rows, err := a.logs.ListLogsSince(ctx, q.UserID, q.Window.Since, 0)
	if err != nil {
		return Answer{}, err
	}
	rows = filterArea(rows, key)
	if len(rows) == 0 && days < widenedWindowDays {
		wide := WindowOf(q.Now, widenedWindowDays)
		if rows, err = a.logs.ListLogsSince(ctx, q.UserID, wide.Since, 0); err != nil {
			return Answer{}, err
		}
		rows = filterArea(rows, key)
		days, approx = wide.Days, "≈"
	}

	total := 0
	for _, r := range rows {
		total += r.Minutes()
	}
	var bullets []string
	for _, r := range rows {
		if len(bullets) == summaryBullets {
			break
		}
		line := types.NoteFirstLine(r.Notes)
		if line == "" {
			continue
		}
		bullets = append(bullets, fmt.Sprintf("- %s: %s", r.OccurredAt.In(a.cfg.Location).Format("2006-01-02"), line))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s – letzte %s%d Tage:\n", name, approx, days)
	fmt.Fprintf(&b, "• Aktivitäten: %d\n", len(rows))
	fmt.Fprintf(&b, "• Gesamtdauer: %s\n", FormatMinutes(total))
	fmt.Fprintf(&b, "• Ø Dauer: %s\n", FormatMinutes(roundedMean(total, len(rows))))
	if len(bullets) > 0 {
		b.WriteString("Beispiel-Notizen:\n")
		b.WriteString(strings.Join(bullets, "\n"))
	} else {
		b.WriteString("Keine Notizen verfügbar.")
	}
	return deterministic(IntentSummarizeArea, b.String()), nil
}

func (a *Analytics) learnedFrom(ctx context.Context, q *Query) (Answer, error) {
	phrase := TitlePhrase(q.Raw)
	rows, err := a.logs.SearchLogNotes(ctx, q.UserID, phrase, learnedSearchCap)
	if err != nil {
		return Answer{}, err
	}
	seen := map[string]bool{}
	var snippets []string
	for _, r := range rows {
		line := types.NoteFirstLine(r.Notes)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		snippets = append(snippets, "- "+line)
		if len(snippets) == learnedSnippets {
			break
		}
	}
	if len(snippets) == 0 {
		return deterministic(IntentLearnedFrom, fmt.Sprintf("Keine Notizen zu „%s“ gefunden.", phrase)), nil
	}
	return deterministic(IntentLearnedFrom, fmt.Sprintf("Deine Notizen zu „%s“ (Auszug):\n%s", phrase, strings.Join(snippets, "\n"))), nil
}

// recentList is the terminal deterministic digest: up to RecentListLimit logs
// of the window, newest first.
func (a *Analytics) recentList(ctx context.Context, q *Query) (Answer, error) {
	rows, err := a.logs.ListLogsSince(ctx, q.UserID, q.Window.Since, a.cfg.RecentListLimit)
	if err != nil {
		return Answer{}, err
	}
	if len(rows) == 0 {
		return deterministic(IntentRecentList, fmt.Sprintf("Keine Daten im Zeitraum der letzten %d %s gefunden.", q.Window.Days, plural(int64(q.Window.Days), "Tag", "Tage"))), nil
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, logLine(r, a.cfg.Location, "2006-01-02"))
	}
	return deterministic(IntentRecentList, fmt.Sprintf("Letzte Aktivitäten (ca. %d %s):\n%s", q.Window.Days, plural(int64(q.Window.Days), "Tag", "Tage"), strings.Join(lines, "\n"))), nil
}

// RecentList answers q with the recent-activity digest.
func (a *Analytics) RecentList(ctx context.Context, q *Query) (Answer, error) {
	q.Intent = IntentRecentList
	ans, err := a.recentList(ctx, q)
	if err != nil {
		return Answer{}, storeErr(err)
	}
	return ans, nil
}

func areaScope(area *types.LifeArea) (key, scope string) {
	if area == nil {
		return "", ""
	}
	return areaKey(area.Name), " im Bereich " + area.Name
}
