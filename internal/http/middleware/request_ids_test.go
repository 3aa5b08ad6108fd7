package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/questlog-backend/internal/platform/ctxutil"
)

func runRequestIDs(t *testing.T, hdr map[string]string) (*httptest.ResponseRecorder, *ctxutil.TraceData) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(RequestIDs())
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestRequestIDsGenerated(t *testing.T) {
	w, td := runRequestIDs(t, nil)
	if td == nil {
		t.Fatalf("expected trace data on context")
	}
	if td.RequestID == "" || td.TraceID != td.RequestID {
		t.Fatalf("unexpected ids: %+v", td)
	}
	if got := w.Header().Get(HeaderRequestID); got != td.RequestID {
		t.Fatalf("request id header=%q want=%q", got, td.RequestID)
	}
}

func TestRequestIDsKeepsClientValues(t *testing.T) {
	_, td := runRequestIDs(t, map[string]string{
		HeaderRequestID: "req-1",
		HeaderTraceID:   "trace-1",
	})
	if td.RequestID != "req-1" || td.TraceID != "trace-1" {
		t.Fatalf("unexpected ids: %+v", td)
	}
}

func TestRequestIDsRejectsUnprintableClientValues(t *testing.T) {
	_, td := runRequestIDs(t, map[string]string{
		HeaderRequestID: "bad id",
		HeaderTraceID:   strings.Repeat("a", maxClientIDLen+1),
	})
	if td.RequestID == "bad id" {
		t.Fatalf("unprintable request id was accepted")
	}
	if td.TraceID != td.RequestID {
		t.Fatalf("oversized trace id should fall back to the request id: %+v", td)
	}
}
