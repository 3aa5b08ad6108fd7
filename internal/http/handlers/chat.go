package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/questlog-backend/internal/http/response"
	"github.com/yungbote/questlog-backend/internal/modules/chat"
	"github.com/yungbote/questlog-backend/internal/platform/apierr"
	"github.com/yungbote/questlog-backend/internal/platform/ctxutil"
)

const (
	defaultMaxQueryChars = 2000
	maxTopK              = 100
)

type ChatHandler struct {
	chat          chat.Usecases
	maxQueryChars int
}

func NewChatHandler(uc chat.Usecases, maxQueryChars int) *ChatHandler {
	if maxQueryChars <= 0 {
		maxQueryChars = defaultMaxQueryChars
	}
	return &ChatHandler{chat: uc, maxQueryChars: maxQueryChars}
}

type chatReq struct {
	Query         *string  `json:"query"`
	TopK          *float64 `json:"top_k"`
	MinSimilarity *float64 `json:"min_similarity"`
}

type chatResp struct {
	Answer  string        `json:"answer"`
	Sources []chat.Source `json:"sources"`
}

// POST /chat, POST /api/chat
func (h *ChatHandler) Ask(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.Validation("invalid JSON body"))
		return
	}
	if req.Query == nil || strings.TrimSpace(*req.Query) == "" {
		response.RespondError(c, apierr.Validation("query is required"))
		return
	}
	if utf8.RuneCountInString(*req.Query) > h.maxQueryChars {
		response.RespondError(c, apierr.Validation(fmt.Sprintf("query too long (max %d chars)", h.maxQueryChars)))
		return
	}
	in := chat.AnswerInput{
		UserID: ctxutil.UserID(c.Request.Context()),
		Query:  *req.Query,
	}
	in.TopK = topK(req.TopK)
	if req.MinSimilarity != nil && *req.MinSimilarity > 0 {
		in.MinSimilarity = *req.MinSimilarity
	}

	ans, err := h.chat.Answer(c.Request.Context(), in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	sources := ans.Sources
	if sources == nil {
		sources = []chat.Source{}
	}
	response.RespondOK(c, chatResp{Answer: ans.Text, Sources: sources})
}

// topK truncates the requested count and caps it at maxTopK. Missing or
// non-positive values mean the default.
func topK(v *float64) int {
	if v == nil || !(*v > 0) {
		return 0
	}
	if *v >= maxTopK {
		return maxTopK
	}
	return int(*v)
}
