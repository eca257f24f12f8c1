package richtext

import (
	"strings"
	"testing"
)

func TestParsePlain(t *testing.T) {
	spans := Parse("just words")
	if len(spans) != 1 || spans[0].Text != "just words" || spans[0].Style != 0 {
		t.Errorf("got %+v", spans)
	}
}

func TestParseStyles(t *testing.T) {
	spans := Parse(`Try our <strong>audit <em>tool</em></strong> or <a href="https://b.example/x">the guide</a>.`)

	want := []Span{
		{Text: "Try our "},
		{Text: "audit ", Style: Bold},
		{Text: "tool", Style: Bold | Italic},
		{Text: " or "},
		{Text: "the guide", Style: Link, Href: "https://b.example/x"},
		{Text: "."},
	}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans %+v, want %d", len(spans), spans, len(want))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func TestParseDropsActiveContent(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"script", `safe<script>alert(1)</script> text`, "safe text"},
		{"style", `<style>body{}</style>visible`, "visible"},
		{"iframe", `a<iframe src="https://evil"></iframe>b`, "ab"},
		{"handler attribute", `<b onclick="steal()">bold</b>`, "bold"},
		{"entities", `Tom &amp; Jerry &lt;3`, "Tom & Jerry <3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plain(Parse(tt.markup))
			if got != tt.want {
				t.Errorf("Plain = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnsafeHrefDropped(t *testing.T) {
	for _, href := range []string{"javascript:alert(1)", " JAVASCRIPT:x", "data:text/html,hi", "vbscript:x"} {
		spans := Parse(`<a href="` + href + `">click</a>`)
		if len(spans) != 1 {
			t.Fatalf("%q: got %+v", href, spans)
		}
		if spans[0].Href != "" {
			t.Errorf("%q: href kept as %q", href, spans[0].Href)
		}
		if spans[0].Style != Link {
			t.Errorf("%q: link style lost", href)
		}
	}

	spans := Parse(`<a href="/pricing">pricing</a>`)
	if spans[0].Href != "/pricing" {
		t.Errorf("relative href = %q", spans[0].Href)
	}
}

func TestBlocksBreakLines(t *testing.T) {
	got := Plain(Parse("<p>first</p><p>second<br>third</p>"))
	if got != "first\nsecond\nthird" {
		t.Errorf("got %q", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("trailing breaks should be trimmed")
	}
}

func TestParseEmpty(t *testing.T) {
	if spans := Parse(""); len(spans) != 0 {
		t.Errorf("got %+v", spans)
	}
}

func TestCleanRemovesControlSequences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clipboard write", "See \x1b]52;c;ZXZpbA==\x07this", "See this"},
		{"hyperlink", "\x1b]8;;https://evil.example\x1b\\click\x1b]8;;\x1b\\", "click"},
		{"clear screen", "clear\x1b[2Jscreen", "clearscreen"},
		{"colors", "\x1b[31mred\x1b[0m", "red"},
		{"bell and nul", "a\x07b\x00c", "abc"},
		{"carriage return and del", "over\rwrite\x7f", "overwrite"},
		{"c1 control", "x\u0085y", "xy"},
		{"layout kept", "line one\n\tline two", "line one\n\tline two"},
		{"unicode kept", "café · 日本", "café · 日本"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseStripsControlSequences(t *testing.T) {
	spans := Parse("<p>See \x1b]52;c;ZXZpbA==\x07<a href=\"https://t.example/\x1b[2J\">x\x1b[2J</a></p>")
	for _, s := range spans {
		if strings.ContainsAny(s.Text+s.Href, "\x1b\x07") {
			t.Errorf("control bytes survived in %+v", s)
		}
	}
	if got := Plain(spans); got != "See x" {
		t.Errorf("Plain = %q, want %q", got, "See x")
	}
}
