package nodes

import (
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Text - текстовый узел.
func Text() model.NodeSpec {
	return model.NodeSpec{
		Name:   NameText,
		Group:  "inline",
		Inline: true,
	}
}

// HardBreak - принудительный перенос строки.
func HardBreak() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameHardBreak,
		Group:    "inline",
		Inline:   true,
		LeafText: func(*model.Node) string { return "\n" },
		ParseDOM: []model.ParseRule{{Tag: "br"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "br"}
		},
		// В ячейке таблицы и в заголовке перевод строки завершил бы блок, поэтому пишется <br>.
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			parent, _ := w.Siblings()
			if w.InTable() || (parent != nil && parent.Type().Name() == NameHeading) {
				w.Write("<br>")
				return
			}
			w.Write("\\\n")
		},
		ParseMarkdown: model.MarkdownRule{Token: "hardbreak"},
	}
}

// Image - изображение.
func Image() model.NodeSpec {
	return model.NodeSpec{
		Name:   NameImage,
		Group:  "inline",
		Inline: true,
		Attrs: map[string]model.AttributeSpec{
			"src":   {Required: true, Validate: model.IsString},
			"alt":   {Default: nil, Validate: model.IsString},
			"title": {Default: nil, Validate: model.IsString},
		},
		ParseDOM: []model.ParseRule{{
			Tag: "img",
			Match: func(el model.DOMElement) bool {
				src, _ := el.Attr("src")
				return src != ""
			},
			GetAttrs: func(el model.DOMElement) model.Attrs {
				return model.Attrs{
					"src":   attrOrNil(el, "src"),
					"alt":   attrOrNil(el, "alt"),
					"title": attrOrNil(el, "title"),
				}
			},
		}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			attrs := []model.DOMAttr{{Key: "src", Val: n.Attrs().String("src")}}
			for _, key := range []string{"alt", "title"} {
				if v := n.Attrs().String(key); v != "" {
					attrs = append(attrs, model.DOMAttr{Key: key, Val: v})
				}
			}
			return model.DOMSpec{Tag: "img", Attrs: attrs}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			attrs := n.Attrs()
			w.Write("![" + w.Esc(attrs.String("alt"), false) + "](" + markdownURL(attrs.String("src")) + markdownTitle(attrs.String("title")) + ")")
		},
		ParseMarkdown: model.MarkdownRule{
			Token: "image",
			GetAttrs: func(tok model.MarkdownToken) model.Attrs {
				return model.Attrs{
					"src":   tok.Meta["src"],
					"alt":   metaOrNil(tok, "alt"),
					"title": metaOrNil(tok, "title"),
				}
			},
		},
	}
}

var urlEscaper = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "<", `\<`, ">", `\>`)

// markdownURL экранирует адрес ссылки; адреса с пробелами заключаются в угловые скобки.
func markdownURL(url string) string {
	if url == "" || strings.ContainsAny(url, " \t") {
		return "<" + strings.NewReplacer(`\`, `\\`, "<", `\<`, ">", `\>`).Replace(url) + ">"
	}
	return urlEscaper.Replace(url)
}

func markdownTitle(title string) string {
	if title == "" {
		return ""
	}
	return ` "` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(title) + `"`
}
