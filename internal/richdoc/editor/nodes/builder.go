package nodes

import (
	"fmt"
	"maps"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Builder собирает документы компактной записью, например b.Doc(b.P("text")).
// Аргументы: строки превращаются в текст, model.Attrs задают атрибуты, *model.Node - потомки.
// Ошибки схемы приводят к панике, поэтому Builder предназначен для тестов и фиксированных документов.
type Builder struct {
	reg *model.Registry
}

// NewBuilder создает Builder поверх реестра.
func NewBuilder(reg *model.Registry) *Builder {
	return &Builder{reg: reg}
}

// Node создает узел типа name.
func (b *Builder) Node(name string, args ...any) *model.Node {
	attrs, content := b.split(args)
	n, err := b.reg.MustGet(name).Create(attrs, content, nil)
	if err != nil {
		panic(fmt.Errorf("build %s: %w", name, err))
	}
	return n
}

// Text создает текстовый узел с марками.
func (b *Builder) Text(text string, marks ...*model.Mark) *model.Node {
	n, err := b.reg.Text(text, marks...)
	if err != nil {
		panic(err)
	}
	return n
}

// Mark создает марку.
func (b *Builder) Mark(name string, attrs model.Attrs) *model.Mark {
	mt, err := b.reg.Mark(name)
	if err != nil {
		panic(err)
	}
	m, err := mt.Create(attrs)
	if err != nil {
		panic(err)
	}
	return m
}

// Marked применяет марку ко всем строчным аргументам.
func (b *Builder) Marked(mark *model.Mark, args ...any) []*model.Node {
	_, content := b.split(args)
	res := make([]*model.Node, len(content))
	for i, n := range content {
		res[i] = n.Mark(mark.AddToSet(n.Marks()))
	}
	return res
}

func (b *Builder) split(args []any) (model.Attrs, []*model.Node) {
	var attrs model.Attrs
	var content []*model.Node
	for _, a := range args {
		switch v := a.(type) {
		case model.Attrs:
			if attrs == nil {
				attrs = model.Attrs{}
			}
			maps.Copy(attrs, v)
		case string:
			content = append(content, b.Text(v))
		case *model.Node:
			content = append(content, v)
		case []*model.Node:
			content = append(content, v...)
		default:
			panic(fmt.Sprintf("builder: unsupported argument %T", a))
		}
	}
	return attrs, content
}

func (b *Builder) Doc(args ...any) *model.Node        { return b.Node(NameDoc, args...) }
func (b *Builder) P(args ...any) *model.Node          { return b.Node(NameParagraph, args...) }
func (b *Builder) Blockquote(args ...any) *model.Node { return b.Node(NameBlockquote, args...) }
func (b *Builder) Ul(args ...any) *model.Node         { return b.Node(NameBulletList, args...) }
func (b *Builder) Ol(args ...any) *model.Node         { return b.Node(NameOrderedList, args...) }
func (b *Builder) Li(args ...any) *model.Node         { return b.Node(NameListItem, args...) }
func (b *Builder) Tasks(args ...any) *model.Node      { return b.Node(NameCheckboxList, args...) }
func (b *Builder) Table(args ...any) *model.Node      { return b.Node(NameTable, args...) }
func (b *Builder) Tr(args ...any) *model.Node         { return b.Node(NameTableRow, args...) }
func (b *Builder) Th(args ...any) *model.Node         { return b.Node(NameTableHeader, args...) }
func (b *Builder) Td(args ...any) *model.Node         { return b.Node(NameTableCell, args...) }
func (b *Builder) Hr() *model.Node                    { return b.Node(NameHorizontalRule) }
func (b *Builder) Br() *model.Node                    { return b.Node(NameHardBreak) }

// H создает заголовок уровня level.
func (b *Builder) H(level int, args ...any) *model.Node {
	return b.Node(NameHeading, append([]any{model.Attrs{"level": level}}, args...)...)
}

// Task создает пункт списка задач.
func (b *Builder) Task(checked bool, args ...any) *model.Node {
	return b.Node(NameCheckboxItem, append([]any{model.Attrs{"checked": checked}}, args...)...)
}

// Code создает блок кода.
func (b *Builder) Code(language string, text string) *model.Node {
	var args []any
	if language != "" {
		args = append(args, model.Attrs{"language": language})
	}
	if text != "" {
		args = append(args, text)
	}
	return b.Node(NameCodeBlock, args...)
}

// Img создает изображение.
func (b *Builder) Img(src string) *model.Node {
	return b.Node(NameImage, model.Attrs{"src": src})
}

// Strong, Em, Strike и CodeText размечают текст.
func (b *Builder) Strong(args ...any) []*model.Node {
	return b.Marked(b.Mark(MarkStrong, nil), args...)
}

func (b *Builder) Em(args ...any) []*model.Node {
	return b.Marked(b.Mark(MarkEm, nil), args...)
}

func (b *Builder) Strike(args ...any) []*model.Node {
	return b.Marked(b.Mark(MarkStrikethrough, nil), args...)
}

func (b *Builder) CodeText(args ...any) []*model.Node {
	return b.Marked(b.Mark(MarkCodeInline, nil), args...)
}

// A размечает текст ссылкой.
func (b *Builder) A(href string, args ...any) []*model.Node {
	return b.Marked(b.Mark(MarkLink, model.Attrs{"href": href}), args...)
}
