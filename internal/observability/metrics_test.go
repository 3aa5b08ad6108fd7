package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAPI("GET", "/health", 200, time.Millisecond)
		m.ApiInflightInc()
		m.IncChatAnswer("count", "deterministic")
		m.ObserveUpstream("embed", time.Second, nil)
		m.AddIngestedChunks("ok", 3)
		m.IncEmbeddingCache(true)
	})
	require.NoError(t, m.WritePrometheus(&bytes.Buffer{}))

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsRecordAndExpose(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/chat", 200, 30*time.Millisecond)
	m.ObserveAPI("POST", "/chat", 200, 3*time.Second)
	m.IncChatAnswer("", "smalltalk")
	m.IncChatAnswer("count", "deterministic")
	m.ObserveUpstream("complete", time.Second, errors.New("boom"))
	m.ObserveUpstream("embed", time.Second, context.DeadlineExceeded)
	m.AddIngestedChunks("ok", 4)
	m.ApiInflightInc()
	m.ApiInflightInc()
	m.ApiInflightDec()

	assert.Equal(t, 2.0, m.apiRequests.Value("POST", "/chat", "200"))
	assert.Equal(t, uint64(2), m.apiLatency.Count("POST", "/chat", "200"))
	assert.Equal(t, 1.0, m.chatAnswers.Value("none", "smalltalk"))
	assert.Equal(t, 1.0, m.upstreamCalls.Value("complete", "error"))
	assert.Equal(t, 1.0, m.upstreamCalls.Value("embed", "timeout"))
	assert.Equal(t, 4.0, m.ingestChunks.Value("ok"))
	assert.Equal(t, 1.0, m.apiInflight.Value())

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()
	assert.Contains(t, out, "# TYPE ql_api_requests_total counter\n")
	assert.Contains(t, out, `ql_api_requests_total{method="POST",route="/chat",status="200"} 2`)
	assert.Contains(t, out, `ql_api_request_duration_seconds_bucket{method="POST",route="/chat",status="200",le="0.05"} 1`)
	assert.Contains(t, out, `ql_api_request_duration_seconds_bucket{method="POST",route="/chat",status="200",le="+Inf"} 2`)
	assert.Contains(t, out, `ql_chat_answers_total{intent="count",mode="deterministic"} 1`)
	assert.Contains(t, out, "ql_api_inflight_requests 1\n")
}

func TestEscapeLabel(t *testing.T) {
	assert.Equal(t, `{route="a\"b\\c\n"}`, labelString([]string{"route"}, []string{"a\"b\\c\n"}))
	assert.Equal(t, `{le="1"}`, withLe("", "1"))
}
