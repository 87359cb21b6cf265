// Пакет dom связывает модель документа с DOM из golang.org/x/net/html.
//
// Основные возможности:
//   - Сериализация узлов в элементы по ToDOM: атрибуты, inline-стили, марки вокруг текста.
//   - Разбор DOM по правилам ParseDOM: первое подходящее правило в порядке регистрации типов.
//   - Сохранение неизвестных блочных элементов как unknown_block с исходным HTML.
//   - Очистка недоверенного HTML (bluemonday) и минификация результата (tdewolff/minify).
package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Serializer строит DOM из узлов документа.
type Serializer struct {
	reg *model.Registry
}

// NewSerializer создает сериализатор для реестра.
func NewSerializer(reg *model.Registry) *Serializer {
	return &Serializer{reg: reg}
}

// Fragment возвращает DOM-узлы содержимого документа.
func (s *Serializer) Fragment(doc *model.Node) ([]*html.Node, error) {
	holder := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	if err := s.appendContent(holder, doc); err != nil {
		return nil, err
	}
	var res []*html.Node
	for c := holder.FirstChild; c != nil; {
		next := c.NextSibling
		holder.RemoveChild(c)
		res = append(res, c)
		c = next
	}
	return res, nil
}

// Node возвращает DOM одного узла. Для текстовых узлов это текст, обернутый в элементы марок.
func (s *Serializer) Node(n *model.Node) (*html.Node, error) {
	holder := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	var err error
	if n.IsInline() {
		err = s.appendInline(holder, []*model.Node{n})
	} else {
		err = s.appendNode(holder, n)
	}
	if err != nil {
		return nil, err
	}
	if holder.FirstChild == nil || holder.FirstChild != holder.LastChild {
		return nil, fmt.Errorf("dom: %s does not render to a single node", n.Type().Name())
	}
	c := holder.FirstChild
	holder.RemoveChild(c)
	return c, nil
}

// RenderHTML рендерит содержимое документа в строку HTML.
func (s *Serializer) RenderHTML(doc *model.Node) (string, error) {
	nodes, err := s.Fragment(doc)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (s *Serializer) appendContent(target *html.Node, parent *model.Node) error {
	if parent.Type().InlineContent() {
		return s.appendInline(target, parent.Children())
	}
	for _, child := range parent.Children() {
		if err := s.appendNode(target, child); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) appendNode(target *html.Node, n *model.Node) error {
	toDOM := n.Type().Spec().ToDOM
	if toDOM == nil {
		return fmt.Errorf("dom: node type %s has no DOM representation", n.Type().Name())
	}
	spec := toDOM(n)
	if spec.Raw != "" {
		return appendRaw(target, spec.Raw)
	}
	el, hole := buildSpec(spec)
	target.AppendChild(el)
	if hole == nil {
		return nil
	}
	return s.appendContent(hole, n)
}

type openMark struct {
	mark *model.Mark
	el   *html.Node
}

// appendInline оборачивает строчные узлы в элементы марок; соседние узлы с общими марками
// разделяют одни и те же элементы.
func (s *Serializer) appendInline(target *html.Node, content []*model.Node) error {
	var active []openMark
	for _, child := range content {
		marks := child.Marks()
		keep := 0
		for keep < len(active) && keep < len(marks) && active[keep].mark.Eq(marks[keep]) {
			keep++
		}
		active = active[:keep]

		parent := target
		if keep > 0 {
			parent = active[keep-1].el
		}
		for _, m := range marks[keep:] {
			toDOM := m.Type().Spec().ToDOM
			if toDOM == nil {
				return fmt.Errorf("dom: mark type %s has no DOM representation", m.Type().Name())
			}
			el, hole := buildSpec(toDOM(m))
			parent.AppendChild(el)
			if hole == nil {
				hole = el
			}
			active = append(active, openMark{mark: m, el: hole})
			parent = hole
		}

		if child.IsText() {
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: child.Text()})
			continue
		}
		if err := s.appendNode(parent, child); err != nil {
			return err
		}
	}
	return nil
}

// buildSpec создает элемент по DOMSpec и возвращает его вместе с элементом-местом для содержимого.
func buildSpec(spec model.DOMSpec) (*html.Node, *html.Node) {
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     spec.Tag,
		DataAtom: atom.Lookup([]byte(spec.Tag)),
	}
	for _, a := range spec.Attrs {
		el.Attr = append(el.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	if spec.Text != "" {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: spec.Text})
	}

	var hole *html.Node
	if spec.Hole {
		hole = el
	}
	for _, child := range spec.Children {
		c, h := buildSpec(child)
		el.AppendChild(c)
		if h != nil {
			hole = h
		}
	}
	return el, hole
}

func appendRaw(target *html.Node, raw string) error {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(raw), context)
	if err != nil {
		return fmt.Errorf("dom: parse raw html: %w", err)
	}
	for _, n := range nodes {
		target.AppendChild(n)
	}
	return nil
}
