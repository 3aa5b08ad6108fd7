package ingest

import "strings"

const (
	defaultChunkSize    = 2000
	defaultChunkOverlap = 200
)

// ChunkText splits text into windows of at most maxLen runes, each starting
// overlap runes before the end of the previous one. Blank text yields no
// chunks.
func ChunkText(text string, maxLen, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = defaultChunkSize
	}
	if overlap < 0 || overlap >= maxLen {
		overlap = 0
	}
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); {
		end := i + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
		i = end - overlap
	}
	return out
}
