package steps

import (
	"strings"

	types "github.com/yungbote/questlog-backend/internal/domain"
)

// ResolveArea returns the first area, in the given order, whose name is a
// substring of the query, falling back to its category. Plain substring
// matching means very short names ("Ich") can match unrelated words.
func ResolveArea(lower string, areas []*types.LifeArea) *types.LifeArea {
	for _, a := range areas {
		if a == nil {
			continue
		}
		if n := strings.ToLower(strings.TrimSpace(a.Name)); n != "" && strings.Contains(lower, n) {
			return a
		}
		if c := strings.ToLower(strings.TrimSpace(a.Category)); c != "" && strings.Contains(lower, c) {
			return a
		}
	}
	return nil
}

func areaKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// inArea reports whether the log's notes carry the given area (case-insensitive).
func inArea(l *types.ActivityLog, key string) bool {
	if key == "" {
		return true
	}
	return areaKey(l.Meta().Area) == key
}

func filterArea(rows []*types.ActivityLog, key string) []*types.ActivityLog {
	if key == "" {
		return rows
	}
	out := make([]*types.ActivityLog, 0, len(rows))
	for _, r := range rows {
		if inArea(r, key) {
			out = append(out, r)
		}
	}
	return out
}
