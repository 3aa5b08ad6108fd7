package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkText(t *testing.T) {
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, ChunkText("abcdefghij", 4, 1))
	assert.Equal(t, []string{"abc", "def"}, ChunkText("abcdef", 3, 3))
	assert.Equal(t, []string{"short"}, ChunkText("short", 2000, 200))
	assert.Nil(t, ChunkText(" \n\t", 10, 2))
}

func TestChunkTextIsRuneSafe(t *testing.T) {
	assert.Equal(t, []string{"äöü", "üßä", "äöü"}, ChunkText("äöüßäöü", 3, 1))
}

func TestChunkTextDefaults(t *testing.T) {
	text := strings.Repeat("x", 4500)
	chunks := ChunkText(text, 0, defaultChunkOverlap)
	if assert.Len(t, chunks, 3) {
		assert.Len(t, chunks[0], 2000)
		assert.Len(t, chunks[1], 2000)
		assert.Len(t, chunks[2], 900)
	}
}
