package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Node - неизменяемый узел документа. Все изменения возвращают новый узел.
type Node struct {
	typ     *NodeType
	attrs   Attrs
	content []*Node
	text    string
	marks   []*Mark
}

func (n *Node) Type() *NodeType { return n.typ }

// Attrs возвращает копию атрибутов.
func (n *Node) Attrs() Attrs { return n.attrs.Clone() }

// Attr возвращает значение атрибута.
func (n *Node) Attr(key string) any { return n.attrs.Get(key) }

// Marks возвращает марки узла.
func (n *Node) Marks() []*Mark { return slices.Clone(n.marks) }

// Text возвращает текст текстового узла.
func (n *Node) Text() string { return n.text }

func (n *Node) IsText() bool      { return n.typ.IsText() }
func (n *Node) IsInline() bool    { return n.typ.IsInline() }
func (n *Node) IsBlock() bool     { return n.typ.IsBlock() }
func (n *Node) IsTextblock() bool { return n.typ.IsTextblock() }
func (n *Node) IsLeaf() bool      { return n.typ.IsLeaf() }
func (n *Node) IsAtom() bool      { return n.typ.IsAtom() }

// ChildCount возвращает число дочерних узлов.
func (n *Node) ChildCount() int { return len(n.content) }

// Child возвращает i-й дочерний узел.
func (n *Node) Child(i int) *Node { return n.content[i] }

// MaybeChild возвращает i-й дочерний узел или nil.
func (n *Node) MaybeChild(i int) *Node {
	if i < 0 || i >= len(n.content) {
		return nil
	}
	return n.content[i]
}

// Children возвращает копию списка дочерних узлов.
func (n *Node) Children() []*Node { return slices.Clone(n.content) }

func (n *Node) FirstChild() *Node { return n.MaybeChild(0) }
func (n *Node) LastChild() *Node  { return n.MaybeChild(len(n.content) - 1) }

// ContentSize - размер содержимого в позициях.
func (n *Node) ContentSize() int {
	if n.IsText() {
		return utf8.RuneCountInString(n.text)
	}
	size := 0
	for _, c := range n.content {
		size += c.NodeSize()
	}
	return size
}

// NodeSize - размер узла: длина текста, 1 для листа, иначе содержимое плюс 2.
func (n *Node) NodeSize() int {
	switch {
	case n.IsText():
		return utf8.RuneCountInString(n.text)
	case n.IsLeaf():
		return 1
	}
	return n.ContentSize() + 2
}

// TextContent возвращает текст всех потомков.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.text
	}
	if n.IsLeaf() {
		if n.typ.spec.LeafText != nil {
			return n.typ.spec.LeafText(n)
		}
		return ""
	}
	var sb strings.Builder
	for _, c := range n.content {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// SameMarkup сравнивает тип, атрибуты и марки.
func (n *Node) SameMarkup(other *Node) bool {
	return n.HasMarkup(other.typ, other.attrs, other.marks)
}

// HasMarkup проверяет тип, атрибуты и марки узла.
func (n *Node) HasMarkup(t *NodeType, attrs Attrs, marks []*Mark) bool {
	return n.typ == t && n.attrs.Equal(attrs) && SameMarkSet(n.marks, marks)
}

// Eq - структурное равенство узлов.
func (n *Node) Eq(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if !n.SameMarkup(other) || n.text != other.text || len(n.content) != len(other.content) {
		return false
	}
	for i := range n.content {
		if !n.content[i].Eq(other.content[i]) {
			return false
		}
	}
	return true
}

// Copy создает узел той же разметки с новым содержимым.
func (n *Node) Copy(content []*Node) (*Node, error) {
	content = joinText(content)
	if err := n.typ.ValidContent(content); err != nil {
		return nil, err
	}
	return &Node{typ: n.typ, attrs: n.attrs, content: content, marks: n.marks}, nil
}

// Mark возвращает копию узла с другим набором марок.
func (n *Node) Mark(marks []*Mark) *Node {
	c := *n
	c.marks = MarkSet(marks)
	return &c
}

// WithText возвращает текстовый узел с теми же марками и новым текстом.
func (n *Node) WithText(text string) (*Node, error) {
	if !n.IsText() {
		return nil, fmt.Errorf("model: WithText on %s node", n.typ.Name())
	}
	if text == "" {
		return nil, ErrEmptyText
	}
	c := *n
	c.text = text
	return &c, nil
}

// ReplaceChild возвращает копию узла с замененным i-м потомком.
func (n *Node) ReplaceChild(i int, child *Node) (*Node, error) {
	content := slices.Clone(n.content)
	content[i] = child
	return n.Copy(content)
}

// RemoveChild возвращает копию узла без i-го потомка.
func (n *Node) RemoveChild(i int) (*Node, error) {
	return n.Copy(slices.Delete(slices.Clone(n.content), i, i+1))
}

// CanReplaceWith проверяет, допустимо ли заменить потомков [from, to) одним узлом типа t.
func (n *Node) CanReplaceWith(from, to int, t *NodeType) bool {
	match, err := n.typ.ContentMatch()
	if err != nil {
		return false
	}
	types := make([]*NodeType, 0, len(n.content)+1)
	for _, c := range n.content[:from] {
		types = append(types, c.typ)
	}
	types = append(types, t)
	for _, c := range n.content[to:] {
		types = append(types, c.typ)
	}
	return match.Matches(types)
}

// Descendants обходит всех потомков в прямом порядке. f возвращает false, чтобы не спускаться глубже.
func (n *Node) Descendants(f func(node *Node, pos int, parent *Node, index int) bool) {
	n.NodesBetween(0, n.ContentSize(), f)
}

// String - отладочное представление вида doc(paragraph("text")).
func (n *Node) String() string {
	var s string
	if n.IsText() {
		s = strconv.Quote(n.text)
	} else {
		s = n.typ.Name()
		if len(n.content) > 0 {
			parts := make([]string, len(n.content))
			for i, c := range n.content {
				parts[i] = c.String()
			}
			s += "(" + strings.Join(parts, ", ") + ")"
		}
	}
	for i := len(n.marks) - 1; i >= 0; i-- {
		s = n.marks[i].typ.Name() + "(" + s + ")"
	}
	return s
}

// joinText склеивает соседние текстовые узлы с одинаковыми марками.
func joinText(content []*Node) []*Node {
	var res []*Node
	for _, c := range content {
		if c == nil {
			continue
		}
		if last := len(res) - 1; last >= 0 && c.IsText() && res[last].IsText() && SameMarkSet(c.marks, res[last].marks) {
			merged := *res[last]
			merged.text += c.text
			res[last] = &merged
			continue
		}
		res = append(res, c)
	}
	return res
}

// CreateAndFill создает узел с минимальным допустимым содержимым, например list_item(paragraph).
func (t *NodeType) CreateAndFill(attrs Attrs) (*Node, error) {
	return t.createAndFill(attrs, 0)
}

func (t *NodeType) createAndFill(attrs Attrs, depth int) (*Node, error) {
	n, err := t.Create(attrs, nil, nil)
	if err == nil || depth > 8 {
		return n, err
	}
	match, merr := t.ContentMatch()
	if merr != nil {
		return nil, merr
	}
	for _, ct := range match.Types() {
		if ct.IsText() {
			continue
		}
		child, cerr := ct.createAndFill(nil, depth+1)
		if cerr != nil {
			continue
		}
		if filled, ferr := t.Create(attrs, []*Node{child}, nil); ferr == nil {
			return filled, nil
		}
	}
	return nil, err
}
