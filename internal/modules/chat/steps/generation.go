package steps

import (
	"context"
	"strings"

	"github.com/yungbote/questlog-backend/internal/platform/apierr"
)

const (
	DataTemperature      = 0.1
	SmalltalkTemperature = 0.6
)

const dataSystemPrompt = "Du bist ein strukturierter Assistent für persönliche Aktivitätsdaten. " +
	"Antworte kurz und präzise in der Sprache der Frage, mit klaren Aufzählungen. " +
	"Nenne konkrete Werte (Anzahl, Summen), wenn sie sich aus dem Kontext ableiten lassen. " +
	"Wenn der Kontext nicht ausreicht, sage: \"Keine Daten vorhanden.\""

const smalltalkSystemPrompt = "Du bist ein freundlicher Assistent innerhalb einer Produktivitäts-App. " +
	"Antworte kurz und hilfreich. Weise darauf hin, dass der Nutzer konkrete Fragen zu seinen Einträgen stellen kann " +
	"(z. B. \"Wie viele Aktivitäten in den letzten 7 Tagen?\" oder \"Fasse meine Fitness-Woche zusammen\")."

// AIDisabledMessage answers anything that would need the language model while
// the deployment runs in private mode.
const AIDisabledMessage = "KI-Modus ist deaktiviert. Stelle konkrete Datenfragen " +
	"(z. B. \"Wie viele Aktivitäten in den letzten 7 Tagen?\") oder nutze die App-Ansichten."

type Generator struct {
	completer Completer
}

func NewGenerator(completer Completer) *Generator {
	return &Generator{completer: completer}
}

// DataPrompt builds the user message for data mode.
func DataPrompt(contextBlock, question string) string {
	return "Beantworte präzise auf Basis des Kontextes. Wenn keine Info vorhanden ist, sage: \"Keine Daten vorhanden.\"\n\n" +
		"Kontext:\n" + contextBlock + "\n\nFrage: " + question
}

// Generate answers in data mode when docs is non-empty, otherwise in
// smalltalk mode. Sources are only reported in data mode.
func (g *Generator) Generate(ctx context.Context, q *Query, docs []Document) (Answer, error) {
	if len(docs) == 0 {
		text, err := g.completer.Complete(ctx, smalltalkSystemPrompt, q.Raw, SmalltalkTemperature)
		if err != nil {
			return Answer{}, apierr.Upstream("complete", err)
		}
		return Answer{Text: strings.TrimSpace(text), Sources: []Source{}, Mode: ModeSmalltalk}, nil
	}

	text, err := g.completer.Complete(ctx, dataSystemPrompt, DataPrompt(BuildContext(docs), q.Raw), DataTemperature)
	if err != nil {
		return Answer{}, apierr.Upstream("complete", err)
	}
	sources := make([]Source, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, Source{ID: d.ID, Title: d.Title, OccurredAt: d.OccurredAt})
	}
	return Answer{Text: strings.TrimSpace(text), Sources: sources, Mode: ModeData}, nil
}
