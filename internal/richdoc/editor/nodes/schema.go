// Пакет nodes объявляет типы узлов и марок редактора и собирает из них реестр.
//
// Порядок регистрации важен: при разборе DOM выигрывает первое подходящее правило,
// поэтому более специфичные типы (список задач) регистрируются раньше общих (маркированный список).
package nodes

import (
	"fmt"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Имена типов узлов.
const (
	NameDoc            = model.TopTypeName
	NameParagraph      = "paragraph"
	NameHeading        = "heading"
	NameBlockquote     = "blockquote"
	NameCodeBlock      = "code_block"
	NameHorizontalRule = "horizontal_rule"
	NameCheckboxList   = "checkbox_list"
	NameBulletList     = "bullet_list"
	NameOrderedList    = "ordered_list"
	NameCheckboxItem   = "checkbox_item"
	NameListItem       = "list_item"
	NameTable          = "table"
	NameTableRow       = "table_row"
	NameTableHeader    = "table_header"
	NameTableCell      = "table_cell"
	NameUnknownBlock   = "unknown_block"
	NameText           = model.TextTypeName
	NameHardBreak      = "hard_break"
	NameImage          = "image"
)

// Имена марок.
const (
	MarkLink          = "link"
	MarkStrong        = "strong"
	MarkEm            = "em"
	MarkStrikethrough = "strikethrough"
	MarkCodeInline    = "code_inline"
)

// Doc - корневой узел документа.
func Doc() model.NodeSpec {
	return model.NodeSpec{
		Name:    NameDoc,
		Content: "block+",
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			w.RenderContent(n)
		},
	}
}

// NodeSpecs возвращает декларации узлов в порядке регистрации.
func NodeSpecs() []model.NodeSpec {
	return []model.NodeSpec{
		Doc(),
		Paragraph(),
		Heading(),
		Blockquote(),
		CodeBlock(),
		HorizontalRule(),
		CheckboxList(),
		BulletList(),
		OrderedList(),
		CheckboxItem(),
		ListItem(),
		Table(),
		TableRow(),
		TableHeader(),
		TableCell(),
		UnknownBlock(),
		Text(),
		HardBreak(),
		Image(),
	}
}

// MarkSpecs возвращает декларации марок. Порядок задает вложенность: первые марки внешние.
func MarkSpecs() []model.MarkSpec {
	return []model.MarkSpec{
		Link(),
		Strong(),
		Em(),
		Strikethrough(),
		CodeInline(),
	}
}

// NewSchema регистрирует все узлы и марки и проверяет выражения контента.
// Ошибка здесь фатальна для запуска.
func NewSchema() (*model.Registry, error) {
	reg := model.NewRegistry()
	for _, spec := range NodeSpecs() {
		if _, err := reg.Register(spec); err != nil {
			return nil, fmt.Errorf("register node %s: %w", spec.Name, err)
		}
	}
	for _, spec := range MarkSpecs() {
		if _, err := reg.RegisterMark(spec); err != nil {
			return nil, fmt.Errorf("register mark %s: %w", spec.Name, err)
		}
	}
	if err := reg.Check(); err != nil {
		return nil, fmt.Errorf("check schema: %w", err)
	}
	return reg, nil
}

// MustSchema - NewSchema для тестов и инициализации пакетов.
func MustSchema() *model.Registry {
	reg, err := NewSchema()
	if err != nil {
		panic(err)
	}
	return reg
}

// EmptyDocument возвращает документ из одного пустого абзаца.
func EmptyDocument(reg *model.Registry) (*model.Node, error) {
	p, err := reg.MustGet(NameParagraph).Create(nil, nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := reg.MustGet(NameDoc).Create(nil, []*model.Node{p}, nil)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
