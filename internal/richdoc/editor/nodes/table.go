package nodes

import (
	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Table - таблица. Первая строка в markdown всегда заголовочная.
func Table() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameTable,
		Content:  "table_row+",
		Group:    "block",
		ParseDOM: []model.ParseRule{{Tag: "table"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "table", Children: []model.DOMSpec{{Tag: "tbody", Hole: true}}}
		},
		ToMarkdown:    tableToMarkdown,
		ParseMarkdown: model.MarkdownRule{Token: "table"},
	}
}

func tableToMarkdown(w model.MarkdownWriter, n *model.Node) {
	cols := 0
	for _, row := range n.Children() {
		cols = max(cols, row.ChildCount())
	}

	w.Table(func() {
		for i, row := range n.Children() {
			w.Write("|")
			for j := 0; j < cols; j++ {
				w.Write(" ")
				if cell := row.MaybeChild(j); cell != nil {
					w.RenderContent(cell)
				}
				w.Write(" |")
			}
			w.EnsureNewLine()
			if i == 0 {
				w.Write("|" + w.Repeat(" --- |", cols))
				w.EnsureNewLine()
			}
		}
	})
	w.CloseBlock(n)
}

// TableRow - строка таблицы.
func TableRow() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameTableRow,
		Content:  "(table_cell | table_header)+",
		ParseDOM: []model.ParseRule{{Tag: "tr"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "tr", Hole: true}
		},
		ParseMarkdown: model.MarkdownRule{Token: "table_row"},
	}
}

// TableHeader - заголовочная ячейка.
func TableHeader() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameTableHeader,
		Content:  "paragraph",
		ParseDOM: []model.ParseRule{{Tag: "th"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "th", Hole: true}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			w.RenderContent(n)
		},
		ParseMarkdown: model.MarkdownRule{Token: "table_header"},
	}
}

// TableCell - обычная ячейка.
func TableCell() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameTableCell,
		Content:  "paragraph",
		ParseDOM: []model.ParseRule{{Tag: "td"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "td", Hole: true}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			w.RenderContent(n)
		},
		ParseMarkdown: model.MarkdownRule{Token: "table_cell"},
	}
}
