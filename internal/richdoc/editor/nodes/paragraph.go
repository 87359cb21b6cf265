package nodes

import (
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Paragraph - абзац с направлением текста и выравниванием.
func Paragraph() model.NodeSpec {
	return model.NodeSpec{
		Name:    NameParagraph,
		Content: "inline*",
		Group:   "block",
		Attrs:   blockAttrs(nil),
		ParseDOM: []model.ParseRule{
			{Tag: "p", GetAttrs: blockAttrsFromDOM},
		},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "p", Attrs: blockDOMAttrs(n), Hole: true}
		},
		ToMarkdown:    paragraphToMarkdown,
		ParseMarkdown: model.MarkdownRule{Token: "paragraph"},
	}
}

// paragraphToMarkdown пишет пустой абзац как "\" с переводом строки, чтобы он пережил
// повторную загрузку. В ячейке таблицы пустой абзац не пишет ничего.
func paragraphToMarkdown(w model.MarkdownWriter, n *model.Node) {
	if IsBlank(n) {
		if w.InTable() {
			return
		}
		w.Write("\\\n")
		w.Attributes(n)
		w.CloseBlock(n)
		return
	}

	w.RenderInline(n)
	if !w.InTable() {
		w.Attributes(n)
		w.CloseBlock(n)
	}
}

// IsBlank - в текстовом блоке только пробелы и переносы строк.
func IsBlank(n *model.Node) bool {
	for _, c := range n.Children() {
		switch {
		case c.IsText():
			if strings.TrimSpace(c.Text()) != "" {
				return false
			}
		case c.Type().Name() == NameHardBreak:
		default:
			return false
		}
	}
	return true
}
