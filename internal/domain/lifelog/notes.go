package lifelog

import (
	"encoding/json"
	"strings"
)

// NoteMeta is what the notes column carries besides its text. Notes are stored
// either as plain text, as a rich-text delta (an array of ops), or wrapped as
// {"title"|"name", "area", "category", "delta": [...]}.
type NoteMeta struct {
	Title     string
	Area      string
	Category  string
	Plaintext string
}

type deltaOp struct {
	Insert any `json:"insert"`
}

// ParseNotes never fails: anything that is not a recognised JSON shape is
// treated as plain text.
func ParseNotes(notes string) NoteMeta {
	var meta NoteMeta
	if strings.TrimSpace(notes) == "" {
		return meta
	}
	raw := []byte(notes)

	var ops []deltaOp
	if err := json.Unmarshal(raw, &ops); err == nil {
		meta.Plaintext = joinInserts(ops)
		return meta
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		meta.Plaintext = notes
		return meta
	}
	meta.Title = stringField(obj, "title")
	if meta.Title == "" {
		meta.Title = stringField(obj, "name")
	}
	meta.Area = stringField(obj, "area")
	meta.Category = stringField(obj, "category")

	if d, ok := obj["delta"]; ok {
		var wrapped []deltaOp
		if err := json.Unmarshal(d, &wrapped); err == nil {
			meta.Plaintext = joinInserts(wrapped)
		}
	}
	if meta.Plaintext == "" {
		if txt := stringField(obj, "text"); txt != "" {
			meta.Plaintext = txt
		} else {
			meta.Plaintext = notes
		}
	}
	return meta
}

// Plaintext is shorthand for ParseNotes(notes).Plaintext.
func Plaintext(notes string) string {
	return ParseNotes(notes).Plaintext
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

// IndexText renders the text that gets chunked and embedded for one log: a
// small header (title, area, date) followed by the note body.
func IndexText(notes string, occurredAt string) string {
	meta := ParseNotes(notes)
	var parts []string
	if meta.Title != "" {
		parts = append(parts, "Titel: "+meta.Title)
	}
	if meta.Area != "" || meta.Category != "" {
		area := meta.Area
		if meta.Category != "" {
			area += "/" + meta.Category
		}
		parts = append(parts, "Bereich: "+area)
	}
	if occurredAt != "" {
		parts = append(parts, "Datum: "+occurredAt)
	}
	if meta.Plaintext != "" {
		parts = append(parts, meta.Plaintext)
	}
	return strings.Join(parts, "\n")
}

func joinInserts(ops []deltaOp) string {
	var b strings.Builder
	for _, op := range ops {
		if s, ok := op.Insert.(string); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

func stringField(obj map[string]json.RawMessage, key string) string {
	v, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
