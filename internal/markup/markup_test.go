package markup

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSpans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []Span
	}{
		{
			name: "bold and italic",
			src:  "**bold** and *italic*",
			want: []Span{
				{Text: "bold", Bold: true},
				{Text: " and "},
				{Text: "italic", Italic: true},
			},
		},
		{
			name: "nested emphasis",
			src:  "***both***",
			want: []Span{{Text: "both", Bold: true, Italic: true}},
		},
		{
			name: "code span",
			src:  "run `go test` now",
			want: []Span{
				{Text: "run "},
				{Text: "go test", Code: true},
				{Text: " now"},
			},
		},
		{
			name: "link keeps text",
			src:  "see [my site](https://example.com)",
			want: []Span{{Text: "see my site"}},
		},
		{
			name: "escaped markers",
			src:  `\*not italic\*`,
			want: []Span{{Text: "*not italic*"}},
		},
		{
			name: "soft break",
			src:  "line one\nline two",
			want: []Span{{Text: "line one\nline two"}},
		},
		{
			name: "empty",
			src:  "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Spans(tt.src)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Spans(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"round trip", "**bold** and *italic*", "bold and italic"},
		{"chinese emphasis", "负责 **支付系统** 的架构设计", "负责 支付系统 的架构设计"},
		{"pipe title", "**Acme** | Engineer | 2019 - 2021", "Acme | Engineer | 2019 - 2021"},
		{"strikethrough", "~~old~~ new", "old new"},
		{"entity", "R&amp;D", "R&D"},
		{"leading cjk punctuation", "，。开头", "开头"},
		{"list marker", "- item", "item"},
		{"heading marker", "### Title", "Title"},
		{"autolink", "see https://example.com", "see https://example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Plain(tt.src); got != tt.want {
				t.Errorf("Plain(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestPlain_NoDecorationLeft(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"**a** *b* **c**",
		"*一* 和 **二**",
		"mixed **bold *and italic* inside**",
	}
	for _, in := range inputs {
		got := Plain(in)
		if strings.Contains(got, "*") {
			t.Errorf("Plain(%q) = %q still contains '*'", in, got)
		}
	}
}

func TestIsWhollyEmphasised(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want bool
	}{
		{"*Acme Corp, 2019 - 2021*", true},
		{"**北京大学**", true},
		{"  *padded*  ", true},
		{"**Acme** | Engineer", false},
		{"*a* *b*", false},
		{"plain text", false},
		{"`code`", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			if got := IsWhollyEmphasised(tt.src); got != tt.want {
				t.Errorf("IsWhollyEmphasised(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestInlineHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        string
		want       []string
		notWant    []string
		exactMatch string
	}{
		{
			name:       "single paragraph is unwrapped",
			src:        "**bold** text",
			exactMatch: "<strong>bold</strong> text",
		},
		{
			name:    "italic and code",
			src:     "*it* and `x`",
			want:    []string{"<em>it</em>", "<code>x</code>"},
			notWant: []string{"<p>", "*"},
		},
		{
			name:    "raw html is dropped",
			src:     "hi <script>alert(1)</script>",
			notWant: []string{"<script>"},
		},
		{
			name: "two paragraphs keep wrappers",
			src:  "one\n\ntwo",
			want: []string{"<p>one</p>", "<p>two</p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := InlineHTML(context.Background(), tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.exactMatch != "" && got != tt.exactMatch {
				t.Errorf("got %q, want %q", got, tt.exactMatch)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output %q missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("output %q should not contain %q", got, w)
				}
			}
		})
	}
}

func TestInlineHTML_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTMLConverter().InlineHTML(ctx, "text")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
