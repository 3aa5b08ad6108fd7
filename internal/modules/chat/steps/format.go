package steps

import (
	"fmt"
	"strings"
	"time"

	types "github.com/yungbote/questlog-backend/internal/domain"
)

// FormatMinutes renders a duration as "0 Min", "N Min" or "H Std R Min".
func FormatMinutes(m int) string {
	if m <= 0 {
		return "0 Min"
	}
	if m < 60 {
		return fmt.Sprintf("%d Min", m)
	}
	return fmt.Sprintf("%d Std %d Min", m/60, m%60)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func activities(n int64) string {
	return fmt.Sprintf("%d %s", n, plural(n, "Aktivität", "Aktivitäten"))
}

func lastDays(days int) string {
	if days == 1 {
		return "am letzten Tag"
	}
	return fmt.Sprintf("in den letzten %d Tagen", days)
}

// roundedMean is the integer mean rounded half up.
func roundedMean(sum, n int) int {
	if n <= 0 {
		return 0
	}
	return (2*sum + n) / (2 * n)
}

func logLine(l *types.ActivityLog, loc *time.Location, layout string) string {
	return fmt.Sprintf("- %s · %s · +%d XP · %s",
		l.OccurredAt.In(loc).Format(layout),
		FormatMinutes(l.Minutes()),
		l.EarnedXP,
		types.NoteFirstLine(l.Notes),
	)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
