package llm

import (
	"fmt"
	"regexp"
	"strings"
)

const gamePromptHeader = `Ты — генератор 2D-игр на JavaScript с HTML5 Canvas.
Создай интерактивную 2D-игру по этому тексту:`

const gamePromptRules = `Требования:
- Один самодостаточный файл index.html: HTML + CSS + JavaScript + Canvas, без внешних библиотек.
- Игровое поле 1:1, аккуратный современный дизайн.
- В игре должны быть: счёт, кнопка «Стоп», кнопка «Выход», подсказки, экран завершения с финальным счётом.
- Плавные анимации.
- Персонажи, предметы и цели игры должны быть взяты из текста.
- Ответь только кодом index.html, без пояснений.`

// BuildGamePrompt creates the game-generation prompt for a piece of book
// text.
func BuildGamePrompt(bookText string) string {
	var sb strings.Builder
	sb.WriteString(gamePromptHeader)
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(bookText))
	sb.WriteString("\n\n")
	sb.WriteString(gamePromptRules)
	return sb.String()
}

const chatSystemPrompt = `You answer questions about the book %q.
Use only the excerpts below. If they do not contain the answer, say so.
Answer in the language of the question.

Excerpts:
`

// BuildChatSystemPrompt embeds the selected chapters into the system
// message for document chat.
func BuildChatSystemPrompt(title, excerpts string) string {
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	return fmt.Sprintf(chatSystemPrompt, title) + excerpts
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:html|HTML)?[ \\t]*\\r?\\n(.*?)\\s*```")

// ExtractHTML returns the HTML document from a model reply. Replies
// wrapped in a Markdown code fence are unwrapped; anything else is
// returned trimmed.
func ExtractHTML(reply string) string {
	s := strings.TrimSpace(reply)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
