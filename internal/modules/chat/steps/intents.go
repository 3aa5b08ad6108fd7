package steps

import (
	"context"
	"regexp"
	"strings"
)

var (
	reStreak        = regexp.MustCompile(`streak|\bserie\b|tage\s*in\s*folge|days?\s+in\s+a\s+row`)
	reCount         = regexp.MustCompile(`\bwie\s*viele\b|\bwieviel|\banzahl\b|\bhow\s+many\b|\bhow\s+much\b|\bcount\b`)
	reTotal         = regexp.MustCompile(`\binsgesamt\b|\btotal\b|\boverall\b`)
	reXP            = regexp.MustCompile(`\bxp\b|punkte|erfahr|\bpoints?\b|\bexperience\b`)
	reAvg           = regexp.MustCompile(`durchschnitt|ø\s*dauer|\baverage\b|\bavg\b`)
	reTotalDuration = regexp.MustCompile(`\b(?:gesamt|insgesamt|total|overall)\b.*\b(?:dauer|duration)\b|gesamtdauer|wie\s*lange|\bhow\s+long\b|summe\s*(?:der\s+)?dauer|\bsum\s+(?:of\s+)?(?:the\s+)?duration|gesamtmin|\bstunden\b|\bhours\b`)
	reTop           = regexp.MustCompile(`\btop\b|\bmeist|\bmost\b|welche[rs]?\s+bereich|which\s+areas?`)
	reDurationWord  = regexp.MustCompile(`dauer|duration|\bmin|\bstd\b|hour|stunde`)
	reFocus         = regexp.MustCompile(`fokus|focus|woran\s+habe\s+ich\s+gearbeitet|what\s+did\s+i\s+work\s+on`)
	reSummarize     = regexp.MustCompile(`fasse|zusammenfassung|zusammen|summari[sz]e|summary`)
	reTopicWord     = regexp.MustCompile(`fitness|lesen|reading|bildung|education|ernährung|nutrition|sport|karriere|career|beziehungen|relationships|meditation`)
	reLearned       = regexp.MustCompile(`gelernt|\blearn(?:ed|t)?\b`)

	reBookPhrase   = regexp.MustCompile(`(?i)\b(?:buch|book)\s+(?:["„“”'‚‘](.+?)["“”'‘’]|([^"\n]+))`)
	reSourcePhrase = regexp.MustCompile(`(?i)\b(?:aus|from)\s+(?:dem\s+|the\s+)?(?:["„“”'‚‘](.+?)["“”'‘’]|([^"\n]+))`)
	reTrailingNoise = regexp.MustCompile(`(?i)(?:(?:^|\s+)(?:gelernt|learned|learnt|gelesen|read))?\s*[?!.]*\s*$`)
)

type intentRule struct {
	intent Intent
	match  func(ctx context.Context, q *Query) (bool, error)
	handle func(ctx context.Context, q *Query) (Answer, error)
}

func textRule(re *regexp.Regexp) func(context.Context, *Query) (bool, error) {
	return func(_ context.Context, q *Query) (bool, error) {
		return re.MatchString(q.Lower), nil
	}
}

// rules is the ordered intent table. The first matching rule answers; order is
// precedence.
func (a *Analytics) rules() []intentRule {
	return []intentRule{
		{intent: IntentStreak, match: textRule(reStreak), handle: a.streak},
		{intent: IntentOnDate, match: matchOnDate, handle: a.onDate},
		{intent: IntentCount, match: textRule(reCount), handle: a.count},
		{intent: IntentXPSum, match: textRule(reXP), handle: a.xpSum},
		{intent: IntentAvgDuration, match: textRule(reAvg), handle: a.avgDuration},
		{intent: IntentTotalDuration, match: textRule(reTotalDuration), handle: a.totalDuration},
		{intent: IntentTopAreas, match: textRule(reTop), handle: a.topAreas},
		{intent: IntentFocus, match: textRule(reFocus), handle: a.focus},
		{intent: IntentSummarizeArea, match: matchSummarize, handle: a.summarizeArea},
		{intent: IntentLearnedFrom, match: matchLearned, handle: a.learnedFrom},
	}
}

// Classify returns the first intent whose predicate matches, or IntentNone.
func (a *Analytics) Classify(ctx context.Context, q *Query) (Intent, error) {
	rule, err := a.classify(ctx, q)
	if err != nil || rule == nil {
		return IntentNone, err
	}
	return rule.intent, nil
}

func (a *Analytics) classify(ctx context.Context, q *Query) (*intentRule, error) {
	for _, rule := range a.table {
		ok, err := rule.match(ctx, q)
		if err != nil {
			return nil, err
		}
		if ok {
			r := rule
			return &r, nil
		}
	}
	return nil, nil
}

func matchOnDate(_ context.Context, q *Query) (bool, error) {
	day, ok := ParseOnDate(q.Lower, q.Now)
	if !ok {
		return false, nil
	}
	q.Day = &day
	return true, nil
}

func matchSummarize(ctx context.Context, q *Query) (bool, error) {
	if !reSummarize.MatchString(q.Lower) {
		return false, nil
	}
	area, err := q.Area(ctx)
	if err != nil {
		return false, err
	}
	return area != nil || reTopicWord.MatchString(q.Lower), nil
}

func matchLearned(_ context.Context, q *Query) (bool, error) {
	return reLearned.MatchString(q.Lower) && TitlePhrase(q.Raw) != "", nil
}

// TitlePhrase extracts the source title from "... aus dem Buch "X" gelernt" /
// "... learned from the book X?". Quoted titles win over bare ones; a book
// keyword wins over from/aus.
func TitlePhrase(raw string) string {
	for _, re := range []*regexp.Regexp{reBookPhrase, reSourcePhrase} {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		phrase := m[1]
		if phrase == "" {
			phrase = reTrailingNoise.ReplaceAllString(m[2], "")
		}
		phrase = strings.Trim(strings.TrimSpace(phrase), `"'„“”‚‘’`)
		if phrase = strings.TrimSpace(phrase); phrase != "" {
			return phrase
		}
	}
	return ""
}

var dataKeywords = []string{
	"aktiv", "activit", "log", "tage", "day", "woche", "week", "monat", "month",
	"xp", "streak", "zuletzt", "last", "datum", "date", "anzahl", "wie viele", "count",
	"liste", "list", "zusammenfass", "fasse", "summar", "durchschnitt", "average",
	"summe", "sum", "statisti", "notiz", "note", "buch", "book", "titel", "title",
	"heute", "today", "gestern", "yesterday",
}

// IsDataQuestion reports whether a query that matched no intent still looks
// like a question about the user's own data.
func IsDataQuestion(lower string) bool {
	for _, k := range dataKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
