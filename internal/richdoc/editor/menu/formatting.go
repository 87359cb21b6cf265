// Пакет menu описывает пункты панели форматирования для текущего состояния редактора.
// Отрисовкой пакет не занимается: он только решает, какие пункты видимы и активны.
package menu

import (
	"github.com/aisa-it/richdoc/internal/richdoc/editor/commands"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

// Separator - имя пункта-разделителя.
const Separator = "separator"

// Item - пункт панели форматирования.
type Item struct {
	Name     string      `json:"name"`
	Tooltip  string      `json:"tooltip,omitempty"`
	Icon     string      `json:"icon,omitempty"`
	Label    string      `json:"label,omitempty"`
	Keywords string      `json:"keywords,omitempty"`
	Active   bool        `json:"active"`
	Visible  bool        `json:"visible"`
	Attrs    model.Attrs `json:"attrs,omitempty"`
}

// Options - контекст, в котором открыта панель.
type Options struct {
	IsTemplate      bool
	IsMobile        bool
	IsCommentEditor bool
}

// FormattingItems возвращает пункты панели форматирования для состояния s.
// Марки и узлы, которых нет в реестре, никогда не бывают активными.
func FormattingItems(s *commands.State, opts Options, d Dictionary) []Item {
	reg := s.Registry()
	isTable := commands.IsInTable(s)
	isList := commands.IsInList(s)
	isCode := commands.IsInCode(s, false)
	isCodeBlock := commands.IsInCode(s, true)
	allowBlocks := !isTable && !isList

	mark := func(name string) bool {
		mt, err := reg.Mark(name)
		if err != nil {
			return false
		}
		return commands.IsMarkActive(s, mt)
	}
	node := func(name string, attrs model.Attrs) bool {
		nt, err := reg.Get(name)
		if err != nil {
			return false
		}
		return commands.IsNodeActive(s, nt, attrs)
	}
	attr := func(key, value string) bool {
		return commands.IsAttrActiveOnSelection(s, key, value)
	}

	var comment string
	if isCodeBlock {
		comment = d.Comment
	}

	return []Item{
		{Name: "placeholder", Tooltip: d.Placeholder, Icon: "InputIcon", Active: mark("placeholder"), Visible: opts.IsTemplate},
		{Name: Separator, Visible: opts.IsTemplate},
		{Name: nodes.MarkStrong, Tooltip: d.Strong, Icon: "BoldIcon", Active: mark(nodes.MarkStrong), Visible: !isCode},
		{Name: nodes.MarkEm, Tooltip: d.Em, Icon: "ItalicIcon", Active: mark(nodes.MarkEm), Visible: !isCode},
		{Name: nodes.MarkStrikethrough, Tooltip: d.Strikethrough, Icon: "StrikethroughIcon", Active: mark(nodes.MarkStrikethrough), Visible: !isCode},
		{Name: "highlight", Tooltip: d.Mark, Icon: "HighlightIcon", Active: mark("highlight"), Visible: !opts.IsTemplate && !isCode},
		{Name: nodes.MarkCodeInline, Tooltip: d.CodeInline, Icon: "CodeIcon", Active: mark(nodes.MarkCodeInline), Visible: !isCodeBlock},
		{Name: Separator, Visible: allowBlocks && !isCode},
		{Name: nodes.NameHeading, Tooltip: d.Heading, Icon: "Heading1Icon", Active: node(nodes.NameHeading, model.Attrs{"level": 1}),
			Attrs: model.Attrs{"level": 1}, Visible: allowBlocks && !isCode},
		{Name: nodes.NameHeading, Tooltip: d.Subheading, Icon: "Heading2Icon", Active: node(nodes.NameHeading, model.Attrs{"level": 2}),
			Attrs: model.Attrs{"level": 2}, Visible: allowBlocks && !isCode},
		{Name: nodes.NameHeading, Tooltip: d.Subheading, Icon: "Heading3Icon", Active: node(nodes.NameHeading, model.Attrs{"level": 3}),
			Attrs: model.Attrs{"level": 3}, Visible: allowBlocks && !isCode},
		// Цитата атрибутов не имеет.
		{Name: nodes.NameBlockquote, Tooltip: d.Quote, Icon: "BlockQuoteIcon", Active: node(nodes.NameBlockquote, nil), Visible: allowBlocks && !isCode},
		{Name: Separator, Visible: true},
		{Name: "left_to_right", Tooltip: d.LeftToRight, Icon: "LtrIcon", Active: attr("dir", "ltr"), Visible: true},
		{Name: "right_to_left", Tooltip: d.RightToLeft, Icon: "RtlIcon", Active: attr("dir", "rtl"), Visible: true},
		{Name: Separator, Visible: !opts.IsCommentEditor},
		{Name: "align_left", Tooltip: d.AlignLeft, Icon: "AlignLeftIcon", Active: attr("textAlign", "left"), Visible: !opts.IsCommentEditor},
		{Name: "align_center", Tooltip: d.AlignCenter, Icon: "AlignCenterIcon", Active: attr("textAlign", "center"), Visible: !opts.IsCommentEditor},
		{Name: "align_right", Tooltip: d.AlignRight, Icon: "AlignRightIcon", Active: attr("textAlign", "right"), Visible: !opts.IsCommentEditor},
		{Name: Separator, Visible: (allowBlocks || isList) && !isCode},
		{Name: nodes.NameCheckboxList, Tooltip: d.CheckboxList, Icon: "TodoListIcon", Keywords: "checklist checkbox task",
			Active: node(nodes.NameCheckboxList, nil), Visible: (allowBlocks || isList) && !isCode},
		{Name: nodes.NameBulletList, Tooltip: d.BulletList, Icon: "BulletedListIcon", Active: node(nodes.NameBulletList, nil), Visible: (allowBlocks || isList) && !isCode},
		{Name: nodes.NameOrderedList, Tooltip: d.OrderedList, Icon: "OrderedListIcon", Active: node(nodes.NameOrderedList, nil), Visible: (allowBlocks || isList) && !isCode},
		{Name: "outdentList", Tooltip: d.Outdent, Icon: "OutdentIcon", Visible: isList && opts.IsMobile},
		{Name: "indentList", Tooltip: d.Indent, Icon: "IndentIcon", Visible: isList && opts.IsMobile},
		{Name: Separator, Visible: !isCode},
		{Name: nodes.MarkLink, Tooltip: d.CreateLink, Icon: "LinkIcon", Active: mark(nodes.MarkLink), Attrs: model.Attrs{"href": ""}, Visible: !isCode},
		{Name: "comment", Tooltip: d.Comment, Icon: "CommentIcon", Label: comment, Active: mark("comment"), Visible: true},
		{Name: Separator, Visible: isCode && !isCodeBlock},
		{Name: "copyToClipboard", Tooltip: d.Copy, Icon: "CopyIcon", Visible: isCode && !isCodeBlock},
	}
}

// Visible оставляет только видимые пункты.
func Visible(items []Item) []Item {
	var res []Item
	for _, it := range items {
		if it.Visible {
			res = append(res, it)
		}
	}
	return res
}
