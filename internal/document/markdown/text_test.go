package markdown

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"heading and paragraph", "# Supports\n\nPipe *supports* carry **weight**.\n", "Supports\n\nPipe supports carry weight."},
		{"soft break", "line one\nline two\n", "line one line two"},
		{"list", "- anchors\n- guides\n", "anchors\n\nguides"},
		{"link keeps label", "See [clause 300.2](https://example.com/300-2).", "See clause 300.2."},
		{"code block", "```\nS = 20000\n```\n", "S = 20000"},
		{"raw html dropped", "<div>drop</div>\n\nkeep <b>this</b>\n", "keep this"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText([]byte(tt.in)); got != tt.want {
				t.Errorf("PlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsMarkdownPath(t *testing.T) {
	for path, want := range map[string]bool{
		"notes.md":       true,
		"NOTES.Markdown": true,
		"notes.txt":      false,
		"md":             false,
	} {
		if got := IsMarkdownPath(path); got != want {
			t.Errorf("IsMarkdownPath(%q) = %v, want %v", path, got, want)
		}
	}
}
