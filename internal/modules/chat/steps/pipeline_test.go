package steps

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/questlog-backend/internal/platform/apierr"
)

type harness struct {
	store     *memStore
	embedder  *fakeEmbedder
	completer *fakeCompleter
	searcher  *fakeSearcher
	pipeline  *Pipeline
}

func newHarness(private bool) *harness {
	h := &harness{
		store:     &memStore{},
		embedder:  &fakeEmbedder{vec: []float32{1, 0, 0}},
		completer: &fakeCompleter{reply: "  antwort  "},
		searcher:  &fakeSearcher{},
	}
	deps := PipelineDeps{
		Logs:     h.store,
		Areas:    h.store,
		Streaks:  h.store,
		Searcher: h.searcher,
		Config:   DefaultConfig(),
		Now:      func() time.Time { return testNow },
	}
	if private {
		deps.Embedder, deps.Completer = Disabled{}, Disabled{}
	} else {
		deps.Embedder, deps.Completer = h.embedder, h.completer
	}
	h.pipeline = NewPipeline(deps)
	return h
}

func at(ago time.Duration) *time.Time {
	t := testNow.Add(-ago)
	return &t
}

func TestIntentMatchNeverCallsAI(t *testing.T) {
	h := newHarness(false)
	user := uuid.New()
	h.store.add(user, days(1), 30, 5, "a")

	ans, err := h.pipeline.Answer(context.Background(), Input{UserID: user, Query: "How many activities in the last 7 days?"})
	require.NoError(t, err)
	assert.Equal(t, "Du hast in den letzten 7 Tagen 1 Aktivität erfasst.", ans.Text)
	assert.Zero(t, h.embedder.calls)
	assert.Empty(t, h.completer.calls)
	assert.Empty(t, h.searcher.calls)
}

func TestRetrievalUsesFloorAndMatchCount(t *testing.T) {
	h := newHarness(false)
	user := uuid.New()
	h.searcher.matches = []ChunkMatch{
		{ID: "c1", Title: "Log", Content: "Intervalllauf 5 km", Similarity: 0.8, OccurredAt: at(days(2))},
		{ID: "c2", Title: "Log", Content: "kaum relevant", Similarity: 0.15, OccurredAt: at(days(1))},
		{ID: "c3", Title: "Log", Content: "zu alt", Similarity: 0.9, OccurredAt: at(days(20))},
		{ID: "c4", Title: "Log", Content: "ohne datum", Similarity: 0.9},
	}

	ans, err := h.pipeline.Answer(context.Background(), Input{UserID: user, Query: "Was stand in meinen Notizen?", MinSimilarity: 0.05})
	require.NoError(t, err)

	require.Len(t, h.searcher.calls, 1)
	call := h.searcher.calls[0]
	assert.Equal(t, 12, call.matchCount)
	assert.InDelta(t, 0.2, call.minSimilarity, 1e-9)
	assert.Equal(t, user, call.userID)

	assert.Equal(t, ModeData, ans.Mode)
	assert.Equal(t, "antwort", ans.Text)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "c1", ans.Sources[0].ID)

	require.Len(t, h.completer.calls, 1)
	c := h.completer.calls[0]
	assert.InDelta(t, DataTemperature, c.temperature, 1e-9)
	assert.Contains(t, c.user, "Kontext:\n# Doc 1\nIntervalllauf 5 km\n\nFrage: Was stand in meinen Notizen?")
	assert.NotContains(t, c.user, "kaum relevant")
}

func TestRetrievalFloorCannotBeLowered(t *testing.T) {
	searcher := &fakeSearcher{matches: []ChunkMatch{
		{ID: "c1", Title: "Log", Content: "kaum relevant", Similarity: 0.05, OccurredAt: at(days(1))},
	}}
	cfg := DefaultConfig()
	cfg.SimilarityFloor = 0.01
	r := NewRetriever(&fakeEmbedder{vec: []float32{1, 0}}, searcher, &memStore{}, cfg)

	docs, err := r.Retrieve(context.Background(), NewQuery(uuid.New(), "meine notizen", testNow))
	require.NoError(t, err)
	assert.Empty(t, docs)
	require.Len(t, searcher.calls, 1)
	assert.InDelta(t, MinSimilarityFloor, searcher.calls[0].minSimilarity, 1e-9)
}

func TestRetrievalRespectsLargerRequests(t *testing.T) {
	h := newHarness(false)
	_, err := h.pipeline.Answer(context.Background(), Input{UserID: uuid.New(), Query: "meine notizen", TopK: 20, MinSimilarity: 0.5})
	require.NoError(t, err)
	require.Len(t, h.searcher.calls, 1)
	assert.Equal(t, 20, h.searcher.calls[0].matchCount)
	assert.InDelta(t, 0.5, h.searcher.calls[0].minSimilarity, 1e-9)
}

func TestRetrievalFallsBackToRecentLogs(t *testing.T) {
	h := newHarness(false)
	user := uuid.New()
	h.store.add(user, days(1), 30, 5, `[{"insert":"Kraft Training\n"}]`)
	h.store.add(user, days(3), 20, 5, "Spaziergang")
	h.store.add(user, days(9), 20, 5, "außerhalb")

	ans, err := h.pipeline.Answer(context.Background(), Input{UserID: user, Query: "Was habe ich in meinen Notizen geschrieben?"})
	require.NoError(t, err)
	assert.Equal(t, ModeData, ans.Mode)
	require.Len(t, ans.Sources, 2)
	for _, s := range ans.Sources {
		assert.Equal(t, "Log", s.Title)
		require.NotNil(t, s.OccurredAt)
	}

	prompt := h.completer.calls[0].user
	assert.Contains(t, prompt, "# Log 1 (2026-03-14T12:00:00Z)\nKraft Training\n")
	assert.Contains(t, prompt, "\n\n# Log 2 (2026-03-12T12:00:00Z)\nSpaziergang")
	assert.NotContains(t, prompt, "außerhalb")
}

func TestBuildContext(t *testing.T) {
	docs := []Document{
		{Content: "erster", Kind: DocKindChunk},
		{Content: "zweiter", Kind: DocKindLog, OccurredAt: at(days(1))},
	}
	assert.Equal(t, "# Doc 1\nerster\n\n# Log 2 (2026-03-14T12:00:00Z)\nzweiter", BuildContext(docs))
	assert.Equal(t, "", BuildContext(nil))
}

func TestSmalltalkSkipsRetrieval(t *testing.T) {
	h := newHarness(false)
	ans, err := h.pipeline.Answer(context.Background(), Input{UserID: uuid.New(), Query: "Hallo, wie geht's?"})
	require.NoError(t, err)

	assert.Equal(t, ModeSmalltalk, ans.Mode)
	assert.Equal(t, "antwort", ans.Text)
	require.NotNil(t, ans.Sources)
	assert.Empty(t, ans.Sources)
	assert.Zero(t, h.embedder.calls)
	require.Len(t, h.completer.calls, 1)
	assert.Equal(t, "Hallo, wie geht's?", h.completer.calls[0].user)
	assert.InDelta(t, SmalltalkTemperature, h.completer.calls[0].temperature, 1e-9)
}

func TestPrivateModeNeverCallsAI(t *testing.T) {
	h := newHarness(true)
	user := uuid.New()
	h.store.add(user, days(1), 30, 5, "Lauf")
	assert.False(t, h.pipeline.AIEnabled())

	ans, err := h.pipeline.Answer(context.Background(), Input{UserID: user, Query: "Erzähl mir einen Witz"})
	require.NoError(t, err)
	assert.Equal(t, AIDisabledMessage, ans.Text)
	assert.Equal(t, ModeDisabled, ans.Mode)
	assert.Empty(t, ans.Sources)

	ans, err = h.pipeline.Answer(context.Background(), Input{UserID: user, Query: "Zeig meine Notizen"})
	require.NoError(t, err)
	assert.Equal(t, IntentRecentList, ans.Intent)
	assert.True(t, strings.HasPrefix(ans.Text, "Letzte Aktivitäten (ca. 7 Tage):\n- 2026-03-14 · 30 Min · +5 XP · Lauf"), ans.Text)

	assert.Zero(t, h.embedder.calls)
	assert.Empty(t, h.completer.calls)
	assert.Empty(t, h.searcher.calls)
}

func TestUpstreamFailures(t *testing.T) {
	h := newHarness(false)
	h.embedder.err = errors.New("embedding quota exceeded")
	_, err := h.pipeline.Answer(context.Background(), Input{UserID: uuid.New(), Query: "meine notizen"})
	require.Error(t, err)
	assert.True(t, apierr.IsUpstream(err))
	assert.Contains(t, err.Error(), "embedding quota exceeded")
	assert.Empty(t, h.completer.calls)

	h = newHarness(false)
	h.completer.err = errors.New("status=429")
	_, err = h.pipeline.Answer(context.Background(), Input{UserID: uuid.New(), Query: "Hallo"})
	require.Error(t, err)
	assert.True(t, apierr.IsUpstream(err))
	assert.Contains(t, err.Error(), "status=429")
}
