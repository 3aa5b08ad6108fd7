package lifelog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotesShapes(t *testing.T) {
	cases := []struct {
		name  string
		notes string
		want  NoteMeta
	}{
		{name: "empty", notes: "", want: NoteMeta{}},
		{name: "plain", notes: "Lauf am Fluss\nschön", want: NoteMeta{Plaintext: "Lauf am Fluss\nschön"}},
		{
			name:  "delta array",
			notes: `[{"insert":"Kapitel 3 "},{"insert":{"image":"x.png"}},{"insert":"gelesen\n"}]`,
			want:  NoteMeta{Plaintext: "Kapitel 3 gelesen\n"},
		},
		{
			name:  "wrapped",
			notes: `{"title":"Dune","area":"Lesen","category":"Bildung","delta":[{"insert":"Arrakis\n"}]}`,
			want:  NoteMeta{Title: "Dune", Area: "Lesen", Category: "Bildung", Plaintext: "Arrakis\n"},
		},
		{
			name:  "name as title",
			notes: `{"name":"Intervalle","area":"Fitness","text":"5x400m"}`,
			want:  NoteMeta{Title: "Intervalle", Area: "Fitness", Plaintext: "5x400m"},
		},
		{name: "broken json", notes: `{"area":`, want: NoteMeta{Plaintext: `{"area":`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseNotes(tc.notes))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "erste", FirstLine("\n  erste \nzweite"))
	assert.Equal(t, "", FirstLine(" \n\t"))
}

func TestIndexTextHeader(t *testing.T) {
	got := IndexText(`{"title":"Dune","area":"Lesen","category":"Bildung","delta":[{"insert":"Arrakis"}]}`, "2026-03-01T10:00:00Z")
	assert.Equal(t, "Titel: Dune\nBereich: Lesen/Bildung\nDatum: 2026-03-01T10:00:00Z\nArrakis", got)

	assert.Equal(t, "Datum: 2026-03-01T10:00:00Z\nnur text", IndexText("nur text", "2026-03-01T10:00:00Z"))
}

func TestActivityLogMinutes(t *testing.T) {
	var l ActivityLog
	assert.Equal(t, 0, l.Minutes())
	neg := -5
	l.DurationMin = &neg
	assert.Equal(t, 0, l.Minutes())
	d := 45
	l.DurationMin = &d
	assert.Equal(t, 45, l.Minutes())
}

func TestDocumentChunkVectorRoundTrip(t *testing.T) {
	c := &DocumentChunk{UserID: uuid.New(), OccurredAt: ptrTime(time.Now())}
	assert.Nil(t, c.Vector())
	require.NoError(t, c.SetVector([]float32{0.5, -1, 2}))
	assert.Equal(t, []float32{0.5, -1, 2}, c.Vector())
}

func ptrTime(t time.Time) *time.Time { return &t }
