package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/questlog-backend/internal/http/response"
	"github.com/yungbote/questlog-backend/internal/platform/apierr"
)

// CORS rejects origins outside the allow-list with 403 and hands the rest to
// gin-contrib/cors, which answers preflights with 204. A request without an
// Origin header only passes when "*" is listed.
func CORS(allowed []string) gin.HandlerFunc {
	list := make([]string, 0, len(allowed))
	wildcard := false
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			wildcard = true
		}
		list = append(list, o)
	}

	cfg := cors.Config{
		AllowMethods:  []string{"POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id", "X-Trace-Id"},
	}
	if wildcard {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOriginFunc = func(origin string) bool { return OriginAllowed(origin, list) }
	}
	inner := cors.New(cfg)

	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin == "" && !wildcard {
			response.AbortWithError(c, apierr.OriginForbidden())
			return
		}
		if origin != "" && !OriginAllowed(origin, list) {
			response.AbortWithError(c, apierr.OriginForbidden())
			return
		}
		inner(c)
	}
}

// OriginAllowed compares scheme, host and port against each entry that parses
// as a URL; other entries must match literally.
func OriginAllowed(origin string, allowed []string) bool {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return false
	}
	o, oErr := url.Parse(origin)
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "*" {
			return true
		}
		e, err := url.Parse(entry)
		if err == nil && e.Scheme != "" && e.Host != "" && oErr == nil && o.Host != "" {
			if strings.EqualFold(e.Scheme, o.Scheme) &&
				strings.EqualFold(e.Hostname(), o.Hostname()) &&
				effectivePort(e) == effectivePort(o) {
				return true
			}
			continue
		}
		if strings.TrimRight(entry, "/") == strings.TrimRight(origin, "/") {
			return true
		}
	}
	return false
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return "443"
	case "http":
		return "80"
	}
	return ""
}
