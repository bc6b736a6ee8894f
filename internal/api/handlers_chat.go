package api

import (
	"net/http"

	"github.com/dgallion1/bookplay/internal/book"
	"github.com/dgallion1/bookplay/internal/chat"
	"github.com/dgallion1/bookplay/internal/llm"
	"github.com/dgallion1/bookplay/internal/retrieval"
)

type chapterBody struct {
	Title string `json:"title" validate:"max=500"`
	Text  string `json:"text"`
}

type documentBody struct {
	Title    string        `json:"title" validate:"max=500"`
	Chapters []chapterBody `json:"chapters" validate:"max=5000,dive"`
}

func (d *documentBody) toDocument() *book.Document {
	if d == nil {
		return nil
	}
	doc := &book.Document{Title: d.Title, Chapters: make([]book.Chapter, len(d.Chapters))}
	for i, ch := range d.Chapters {
		doc.Chapters[i] = book.Chapter{Title: ch.Title, Text: ch.Text}
	}
	return doc
}

type historyMessage struct {
	Role    string `json:"role" validate:"required,max=20"`
	Content string `json:"content" validate:"max=20000"`
}

type chatRequest struct {
	Question string           `json:"question" validate:"required,max=4000"`
	History  []historyMessage `json:"history" validate:"max=200,dive"`
	Document *documentBody    `json:"document"`
	DocID    string           `json:"doc_id" validate:"max=100"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	history := make([]llm.Message, len(req.History))
	for i, m := range req.History {
		history[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := s.chats.Ask(r.Context(), chat.Request{
		Question: req.Question,
		History:  history,
		Document: req.Document.toDocument(),
		DocID:    req.DocID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectRequest struct {
	Question string        `json:"question" validate:"max=4000"`
	Document *documentBody `json:"document"`
	DocID    string        `json:"doc_id" validate:"max=100"`
	MaxChars int           `json:"max_chars" validate:"gte=0,lte=1000000"`
}

// handleSelect runs only the context selector, for inspecting what a
// question would send to the model.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.chats.Resolve(r.Context(), chat.Request{Document: req.Document.toDocument(), DocID: req.DocID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	maxChars := req.MaxChars
	if maxChars == 0 {
		maxChars = s.cfg.ContextMaxChars
	}
	writeJSON(w, http.StatusOK, retrieval.Select(doc, req.Question, maxChars))
}
