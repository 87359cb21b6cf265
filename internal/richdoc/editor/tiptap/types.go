// Пакет tiptap переводит документы между JSON-форматом редактора TipTap и деревом model.Node.
//
// Основные возможности:
//   - Разбор TipTap JSON в документ с проверкой схемы (ParseJSON).
//   - Сериализация документа обратно в TipTap JSON (Serialize).
//   - Тип Content для хранения документа в колонке базы данных.
//
// Имена узлов и марок TipTap (camelCase) отображаются на имена реестра, например
// codeBlock -> code_block, bold -> strong.
package tiptap

import (
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

// TipTapDocument представляет корневой документ TipTap.
type TipTapDocument struct {
	Type    string       `json:"type"`
	Content []TipTapNode `json:"content,omitempty"`
}

// TipTapNode представляет узел в дереве документа TipTap.
type TipTapNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []TipTapNode   `json:"content,omitempty"`
	Marks   []TipTapMark   `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// TipTapMark представляет форматирование текста (bold, italic, link и т.д.).
type TipTapMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// nodeNames - имена узлов TipTap и соответствующие имена реестра.
var nodeNames = map[string]string{
	"doc":            nodes.NameDoc,
	"paragraph":      nodes.NameParagraph,
	"heading":        nodes.NameHeading,
	"blockquote":     nodes.NameBlockquote,
	"codeBlock":      nodes.NameCodeBlock,
	"horizontalRule": nodes.NameHorizontalRule,
	"bulletList":     nodes.NameBulletList,
	"orderedList":    nodes.NameOrderedList,
	"taskList":       nodes.NameCheckboxList,
	"listItem":       nodes.NameListItem,
	"taskItem":       nodes.NameCheckboxItem,
	"table":          nodes.NameTable,
	"tableRow":       nodes.NameTableRow,
	"tableHeader":    nodes.NameTableHeader,
	"tableCell":      nodes.NameTableCell,
	"unknownBlock":   nodes.NameUnknownBlock,
	"text":           nodes.NameText,
	"hardBreak":      nodes.NameHardBreak,
	"image":          nodes.NameImage,
	"imageResize":    nodes.NameImage,
}

// markNames - имена марок TipTap и соответствующие имена реестра.
var markNames = map[string]string{
	"link":   nodes.MarkLink,
	"bold":   nodes.MarkStrong,
	"italic": nodes.MarkEm,
	"strike": nodes.MarkStrikethrough,
	"code":   nodes.MarkCodeInline,
}

// attrNames - атрибуты, которые в TipTap называются иначе.
var attrNames = map[string]map[string]string{
	nodes.NameOrderedList: {"start": "order"},
}

// tiptapNames строит обратное отображение. Для типов с несколькими именами TipTap берется имя из preferred.
func tiptapNames(names map[string]string, preferred ...string) map[string]string {
	res := make(map[string]string, len(names))
	for _, tt := range preferred {
		res[names[tt]] = tt
	}
	for tt, name := range names {
		if _, ok := res[name]; !ok {
			res[name] = tt
		}
	}
	return res
}

var (
	nodeTipTapNames = tiptapNames(nodeNames, "image")
	markTipTapNames = tiptapNames(markNames)
)
