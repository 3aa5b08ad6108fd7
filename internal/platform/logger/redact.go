package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const redacted = "[REDACTED]"

type fieldPolicy int

const (
	policyKeep fieldPolicy = iota
	policyRedact
	policyHash
)

// Log lines never carry what a user wrote: queries, notes, chunk bodies and
// prompts are dropped, credentials too. User ids are hashed so lines from one
// user can still be correlated.
var (
	redactExact     = []string{"query", "notes", "content", "prompt", "answer"}
	redactSubstring = []string{"token", "authorization", "password", "secret", "api_key", "apikey"}
	hashSubstring   = []string{"user_id"}
)

// redactor applies the field policy. A nil redactor passes fields through.
type redactor struct {
	salt string
}

func policyFor(key string) fieldPolicy {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return policyKeep
	}
	for _, k := range redactExact {
		if key == k {
			return policyRedact
		}
	}
	for _, k := range redactSubstring {
		if strings.Contains(key, k) {
			return policyRedact
		}
	}
	for _, k := range hashSubstring {
		if strings.Contains(key, k) {
			return policyHash
		}
	}
	return policyKeep
}

func (r *redactor) fields(kv []interface{}) []interface{} {
	if r == nil || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		out[i+1] = r.value(stringify(out[i]), out[i+1])
	}
	return out
}

func (r *redactor) value(key string, v interface{}) interface{} {
	switch policyFor(key) {
	case policyRedact:
		return redacted
	case policyHash:
		return r.hash(v)
	}
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = r.value(k, inner)
		}
		return m
	case string:
		if looksLikeJWT(t) {
			return redacted
		}
	}
	return v
}

func (r *redactor) hash(v interface{}) string {
	raw := stringify(v)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
