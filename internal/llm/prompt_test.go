package llm

import (
	"strings"
	"testing"
)

func TestBuildGamePrompt(t *testing.T) {
	p := BuildGamePrompt("  Рельсы пели всю ночь.  ")
	if !strings.Contains(p, "\n\nРельсы пели всю ночь.\n\n") {
		t.Errorf("expected trimmed book text between header and rules, got %q", p)
	}
	for _, want := range []string{"Canvas", "счёт", "«Стоп»", "«Выход»", "подсказки", "экран завершения", "анимации"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}
}

func TestBuildChatSystemPrompt(t *testing.T) {
	p := BuildChatSystemPrompt("Смотритель маяка", "### Глава 1\nОстров.")
	if !strings.Contains(p, `"Смотритель маяка"`) {
		t.Errorf("expected quoted title, got %q", p)
	}
	if !strings.HasSuffix(p, "### Глава 1\nОстров.") {
		t.Errorf("expected context at the end, got %q", p)
	}

	if p := BuildChatSystemPrompt(" ", "ctx 100%"); !strings.Contains(p, `"Untitled"`) || !strings.HasSuffix(p, "ctx 100%") {
		t.Errorf("unexpected prompt for blank title: %q", p)
	}
}

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  <html></html>\n", "<html></html>"},
		{"html fence", "```html\n<html>x</html>\n```", "<html>x</html>"},
		{"bare fence", "```\n<canvas></canvas>\n```", "<canvas></canvas>"},
		{"fence with prose", "Вот игра:\n```html\n<html>y</html>\n```\nУдачи!", "<html>y</html>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractHTML(tc.in); got != tc.want {
				t.Errorf("ExtractHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
