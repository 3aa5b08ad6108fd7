package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/questlog-backend/internal/platform/apierr"
)

const (
	DocKindChunk = "doc"
	DocKindLog   = "log"
)

// Document is one block of generation context.
type Document struct {
	ID         string
	Title      string
	Content    string
	OccurredAt *time.Time
	Kind       string
}

type Retriever struct {
	embedder Embedder
	searcher ChunkSearcher
	logs     LogStore
	cfg      Config
}

func NewRetriever(embedder Embedder, searcher ChunkSearcher, logs LogStore, cfg Config) *Retriever {
	return &Retriever{embedder: embedder, searcher: searcher, logs: logs, cfg: cfg.withDefaults()}
}

// Retrieve embeds the query, keeps similar chunks inside the window and, when
// none survive, falls back to the window's most recent raw logs.
func (r *Retriever) Retrieve(ctx context.Context, q *Query) ([]Document, error) {
	docs, err := r.searchChunks(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(docs) > 0 {
		return docs, nil
	}
	return r.recentLogs(ctx, q)
}

func (r *Retriever) searchChunks(ctx context.Context, q *Query) ([]Document, error) {
	if r.searcher == nil {
		return nil, nil
	}
	vecs, err := r.embedder.Embed(ctx, []string{q.Raw})
	if err != nil {
		return nil, apierr.Upstream("embed", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, apierr.Upstream("embed", fmt.Errorf("empty embedding"))
	}

	topK := q.TopK
	if topK <= 0 {
		topK = r.cfg.DefaultTopK
	}
	matchCount := max(r.cfg.MinMatchCount, topK)
	minSim := max(r.cfg.SimilarityFloor, q.MinSimilarity)

	matches, err := r.searcher.SearchSimilarChunks(ctx, vecs[0], matchCount, minSim, q.UserID)
	if err != nil {
		return nil, apierr.Upstream("search", err)
	}
	docs := make([]Document, 0, len(matches))
	for _, m := range matches {
		if m.Similarity < minSim {
			continue
		}
		if m.OccurredAt == nil || m.OccurredAt.Before(q.Window.Since) {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		docs = append(docs, Document{
			ID:         m.ID,
			Title:      m.Title,
			Content:    m.Content,
			OccurredAt: m.OccurredAt,
			Kind:       DocKindChunk,
		})
	}
	return docs, nil
}

func (r *Retriever) recentLogs(ctx context.Context, q *Query) ([]Document, error) {
	rows, err := r.logs.ListLogsSince(ctx, q.UserID, q.Window.Since, r.cfg.FallbackLogLimit)
	if err != nil {
		return nil, apierr.Upstream("store", err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		at := row.OccurredAt
		docs = append(docs, Document{
			ID:         row.ID.String(),
			Title:      "Log",
			Content:    row.Meta().Plaintext,
			OccurredAt: &at,
			Kind:       DocKindLog,
		})
	}
	return docs, nil
}

// BuildContext renders one labelled block per document, blank-line separated.
func BuildContext(docs []Document) string {
	blocks := make([]string, 0, len(docs))
	for i, d := range docs {
		switch d.Kind {
		case DocKindLog:
			at := ""
			if d.OccurredAt != nil {
				at = d.OccurredAt.UTC().Format(time.RFC3339)
			}
			blocks = append(blocks, fmt.Sprintf("# Log %d (%s)\n%s", i+1, at, d.Content))
		default:
			blocks = append(blocks, fmt.Sprintf("# Doc %d\n%s", i+1, d.Content))
		}
	}
	return strings.Join(blocks, "\n\n")
}
