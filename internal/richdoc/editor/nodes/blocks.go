package nodes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Heading - заголовок уровня 1-6.
func Heading() model.NodeSpec {
	var rules []model.ParseRule
	for level := 1; level <= 6; level++ {
		rules = append(rules, model.ParseRule{
			Tag: "h" + strconv.Itoa(level),
			GetAttrs: func(el model.DOMElement) model.Attrs {
				attrs := blockAttrsFromDOM(el)
				attrs["level"] = level
				return attrs
			},
		})
	}

	return model.NodeSpec{
		Name:     NameHeading,
		Content:  "inline*",
		Group:    "block",
		Attrs:    blockAttrs(map[string]model.AttributeSpec{"level": {Default: 1, Validate: model.IntRange(1, 6)}}),
		ParseDOM: rules,
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "h" + strconv.Itoa(n.Attrs().Int("level")), Attrs: blockDOMAttrs(n), Hole: true}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			w.Write(w.Repeat("#", n.Attrs().Int("level")) + " ")
			w.RenderInline(n)
			w.Attributes(n)
			w.CloseBlock(n)
		},
		ParseMarkdown: model.MarkdownRule{
			Token: "heading",
			GetAttrs: func(tok model.MarkdownToken) model.Attrs {
				return model.Attrs{"level": metaInt(tok, "level", 1)}
			},
		},
	}
}

// Blockquote - цитата. Атрибутов не объявляет.
func Blockquote() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameBlockquote,
		Content:  "block+",
		Group:    "block",
		ParseDOM: []model.ParseRule{{Tag: "blockquote"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "blockquote", Hole: true}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			w.WrapBlock("> ", "", n, func() { w.RenderContent(n) })
		},
		ParseMarkdown: model.MarkdownRule{Token: "blockquote"},
	}
}

var (
	languageClass = regexp.MustCompile(`(?:^|\s)language-([\w+#.-]+)`)
	backtickFence = regexp.MustCompile("`{3,}")
)

func validLanguage(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	if strings.ContainsAny(s, " \t\n`") {
		return fmt.Errorf("language %q contains whitespace or backticks", s)
	}
	return nil
}

// CodeBlock - блок кода с необязательным языком.
func CodeBlock() model.NodeSpec {
	return model.NodeSpec{
		Name:    NameCodeBlock,
		Content: "text*",
		Group:   "block",
		Marks:   model.Set(""),
		Code:    true,
		Attrs: map[string]model.AttributeSpec{
			"language": {Default: nil, Validate: validLanguage},
		},
		ParseDOM: []model.ParseRule{{
			Tag:          "pre",
			PreserveText: true,
			GetAttrs: func(el model.DOMElement) model.Attrs {
				if lang, ok := el.Attr("data-language"); ok && lang != "" {
					return model.Attrs{"language": lang}
				}
				for _, child := range el.ChildElements() {
					if child.Tag() != "code" {
						continue
					}
					class, _ := child.Attr("class")
					if m := languageClass.FindStringSubmatch(class); m != nil {
						return model.Attrs{"language": m[1]}
					}
				}
				return nil
			},
		}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			code := model.DOMSpec{Tag: "code", Hole: true}
			if lang := n.Attrs().String("language"); lang != "" {
				code.Attrs = []model.DOMAttr{{Key: "class", Val: "language-" + lang}}
			}
			return model.DOMSpec{Tag: "pre", Children: []model.DOMSpec{code}}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			text := n.TextContent()
			fence := "```"
			for _, run := range backtickFence.FindAllString(text, -1) {
				if len(run) >= len(fence) {
					fence = run + "`"
				}
			}
			w.Write(fence + n.Attrs().String("language") + "\n")
			// Последний перевод строки содержимого goldmark отбрасывает, поэтому пишется еще один.
			w.Text(text+"\n", false)
			w.Write(fence)
			w.CloseBlock(n)
		},
		ParseMarkdown: model.MarkdownRule{
			Token: "code_block",
			GetAttrs: func(tok model.MarkdownToken) model.Attrs {
				return model.Attrs{"language": metaOrNil(tok, "language")}
			},
		},
	}
}

// HorizontalRule - горизонтальная линия.
func HorizontalRule() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameHorizontalRule,
		Group:    "block",
		ParseDOM: []model.ParseRule{{Tag: "hr"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "hr"}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			w.Write("---")
			w.CloseBlock(n)
		},
		ParseMarkdown: model.MarkdownRule{Token: "hr"},
	}
}

// UnknownBlock хранит исходный HTML блока, для которого не нашлось типа.
// Правил разбора DOM у него нет: парсер создает его сам.
func UnknownBlock() model.NodeSpec {
	return model.NodeSpec{
		Name:  NameUnknownBlock,
		Group: "block",
		Atom:  true,
		Attrs: map[string]model.AttributeSpec{
			"html": {Default: "", Validate: model.IsString},
		},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Raw: n.Attrs().String("html")}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			w.Text(n.Attrs().String("html"), false)
			w.CloseBlock(n)
		},
		ParseMarkdown: model.MarkdownRule{
			Token: "html_block",
			GetAttrs: func(tok model.MarkdownToken) model.Attrs {
				return model.Attrs{"html": tok.Meta["html"]}
			},
		},
	}
}
