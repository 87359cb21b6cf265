package nodes

import (
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

func delimiters(open, close string) (func(*model.Mark) string, func(*model.Mark) string) {
	return func(*model.Mark) string { return open }, func(*model.Mark) string { return close }
}

// Link - ссылка.
func Link() model.MarkSpec {
	return model.MarkSpec{
		Name: MarkLink,
		Attrs: map[string]model.AttributeSpec{
			"href":  {Required: true, Validate: model.IsString},
			"title": {Default: nil, Validate: model.IsString},
		},
		ParseDOM: []model.ParseRule{{
			Tag: "a",
			Match: func(el model.DOMElement) bool {
				_, ok := el.Attr("href")
				return ok
			},
			GetAttrs: func(el model.DOMElement) model.Attrs {
				href, _ := el.Attr("href")
				return model.Attrs{"href": href, "title": attrOrNil(el, "title")}
			},
		}},
		ToDOM: func(m *model.Mark) model.DOMSpec {
			attrs := []model.DOMAttr{{Key: "href", Val: m.Attrs().String("href")}}
			if title := m.Attrs().String("title"); title != "" {
				attrs = append(attrs, model.DOMAttr{Key: "title", Val: title})
			}
			return model.DOMSpec{Tag: "a", Attrs: attrs, Hole: true}
		},
		Markdown: model.MarkMarkdown{
			Token: "link",
			Open:  func(*model.Mark) string { return "[" },
			Close: func(m *model.Mark) string {
				return "](" + markdownURL(m.Attrs().String("href")) + markdownTitle(m.Attrs().String("title")) + ")"
			},
			GetAttrs: func(tok model.MarkdownToken) model.Attrs {
				return model.Attrs{"href": tok.Meta["href"], "title": metaOrNil(tok, "title")}
			},
		},
	}
}

func notNormalWeight(el model.DOMElement) bool {
	return el.Style("font-weight") != "normal"
}

// Strong - полужирный текст.
func Strong() model.MarkSpec {
	open, close := delimiters("**", "**")
	return model.MarkSpec{
		Name: MarkStrong,
		ParseDOM: []model.ParseRule{
			{Tag: "strong"},
			{Tag: "b", Match: notNormalWeight},
		},
		ToDOM: func(*model.Mark) model.DOMSpec {
			return model.DOMSpec{Tag: "strong", Hole: true}
		},
		Markdown: model.MarkMarkdown{Token: "strong", Open: open, Close: close, ExpelEnclosingWhitespace: true},
	}
}

// Em - курсив.
func Em() model.MarkSpec {
	open, close := delimiters("*", "*")
	return model.MarkSpec{
		Name: MarkEm,
		ParseDOM: []model.ParseRule{
			{Tag: "em"},
			{Tag: "i", Match: func(el model.DOMElement) bool { return el.Style("font-style") != "normal" }},
		},
		ToDOM: func(*model.Mark) model.DOMSpec {
			return model.DOMSpec{Tag: "em", Hole: true}
		},
		Markdown: model.MarkMarkdown{Token: "em", Open: open, Close: close, ExpelEnclosingWhitespace: true},
	}
}

// Strikethrough - зачеркнутый текст.
func Strikethrough() model.MarkSpec {
	open, close := delimiters("~~", "~~")
	return model.MarkSpec{
		Name: MarkStrikethrough,
		ParseDOM: []model.ParseRule{
			{Tag: "s"},
			{Tag: "del"},
			{Tag: "strike"},
		},
		ToDOM: func(*model.Mark) model.DOMSpec {
			return model.DOMSpec{Tag: "s", Hole: true}
		},
		Markdown: model.MarkMarkdown{Token: "strikethrough", Open: open, Close: close, ExpelEnclosingWhitespace: true},
	}
}

// CodeInline - код в строке. Исключает все остальные марки.
func CodeInline() model.MarkSpec {
	return model.MarkSpec{
		Name:     MarkCodeInline,
		Excludes: model.Set("_"),
		ParseDOM: []model.ParseRule{{
			Tag: "code",
			Match: func(el model.DOMElement) bool {
				class, _ := el.Attr("class")
				return !strings.Contains(class, "language-")
			},
		}},
		ToDOM: func(*model.Mark) model.DOMSpec {
			return model.DOMSpec{Tag: "code", Hole: true}
		},
		Markdown: model.MarkMarkdown{Token: "code_inline", Code: true},
	}
}
