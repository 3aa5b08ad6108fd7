package handlers

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/questlog-backend/internal/http/response"
	"github.com/yungbote/questlog-backend/internal/modules/ingest"
	"github.com/yungbote/questlog-backend/internal/platform/apierr"
	"github.com/yungbote/questlog-backend/internal/platform/ctxutil"
)

type IngestHandler struct {
	ingest ingest.Usecases
}

func NewIngestHandler(uc ingest.Usecases) *IngestHandler {
	return &IngestHandler{ingest: uc}
}

type ingestReq struct {
	Since *string `json:"since"`
}

// POST /ingest, POST /api/ingest. The body is optional.
func (h *IngestHandler) Run(c *gin.Context) {
	var req ingestReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, apierr.Validation("invalid JSON body"))
		return
	}
	in := ingest.Input{UserID: ctxutil.UserID(c.Request.Context())}
	if req.Since != nil && strings.TrimSpace(*req.Since) != "" {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.Since))
		if err != nil {
			response.RespondError(c, apierr.Validation("since must be an RFC3339 timestamp"))
			return
		}
		in.Since = &t
	}
	out, err := h.ingest.Run(c.Request.Context(), in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}
