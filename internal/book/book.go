package book

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"
)

// UntitledTitle is shown in place of a missing document or chapter title.
const UntitledTitle = "Untitled"

// Chapter is a titled segment of a document's text.
type Chapter struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens,omitempty"`
}

// Document is a title plus an ordered list of chapters.
type Document struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Source      string    `json:"source,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Sample      bool      `json:"sample,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	Chapters    []Chapter `json:"chapters"`
}

// Summary is the list view of a stored document.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	Sample    bool      `json:"sample,omitempty"`
	Chapters  int       `json:"chapters"`
	Chars     int       `json:"chars"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalize trims titles and fills in the document title placeholder.
// Chapter order and bodies are left as they are.
func (d *Document) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		d.Title = UntitledTitle
	}
	for i := range d.Chapters {
		d.Chapters[i].Title = strings.TrimSpace(d.Chapters[i].Title)
	}
}

// Text joins every chapter body, used for content hashing.
func (d Document) Text() string {
	var sb strings.Builder
	for _, ch := range d.Chapters {
		if ch.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(ch.Text)
	}
	return sb.String()
}

// Summarize returns the list view of d.
func (d Document) Summarize() Summary {
	chars := 0
	for _, ch := range d.Chapters {
		chars += utf8.RuneCountInString(ch.Text)
	}
	return Summary{
		ID:        d.ID,
		Title:     d.Title,
		Source:    d.Source,
		Sample:    d.Sample,
		Chapters:  len(d.Chapters),
		Chars:     chars,
		CreatedAt: d.CreatedAt,
	}
}

// ContentHash is the hex SHA-256 of text, used to detect re-uploads of the
// same book.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
