package commands

import (
	"slices"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

var listTypes = []string{nodes.NameBulletList, nodes.NameOrderedList, nodes.NameCheckboxList}

// IsMarkActive проверяет марку под курсором или в любой части выделенного диапазона.
func IsMarkActive(s *State, mt *model.MarkType) bool {
	if mt == nil {
		return false
	}
	if s.Selection.Empty() {
		rp, err := s.Doc.Resolve(s.Selection.Head)
		if err != nil {
			return false
		}
		return mt.IsInSet(rp.Marks()) != nil
	}
	found := false
	s.Doc.NodesBetween(s.Selection.From(), s.Selection.To(), func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if found {
			return false
		}
		if n.IsInline() && mt.IsInSet(n.Marks()) != nil {
			found = true
		}
		return !found
	})
	return found
}

// IsNodeActive проверяет, есть ли среди предков начала выделения узел типа nt.
// Если переданы attrs, сравниваются и они: узел должен иметь указанные значения.
func IsNodeActive(s *State, nt *model.NodeType, attrs model.Attrs) bool {
	n := findParent(s, func(n *model.Node) bool { return n.Type() == nt })
	if n == nil {
		return false
	}
	for key, v := range attrs {
		if n.Attr(key) != v {
			return false
		}
	}
	return true
}

// IsAttrActiveOnSelection проверяет, что хотя бы у одного узла под выделением
// атрибут key имеет значение value.
func IsAttrActiveOnSelection(s *State, key string, value any) bool {
	found := false
	s.Doc.NodesBetween(s.Selection.From(), s.Selection.To(), func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if _, declared := n.Type().AttrSpecs()[key]; declared && n.Attr(key) == value {
			found = true
		}
		return !found
	})
	return found
}

// IsInTable - выделение внутри таблицы.
func IsInTable(s *State) bool {
	return findParent(s, func(n *model.Node) bool { return n.Type().Name() == nodes.NameTable }) != nil
}

// IsInList - выделение внутри списка любого вида.
func IsInList(s *State) bool {
	return findParent(s, func(n *model.Node) bool { return slices.Contains(listTypes, n.Type().Name()) }) != nil
}

// IsInCode - выделение в блоке кода или, если onlyBlock false, под строчной маркой кода.
func IsInCode(s *State, onlyBlock bool) bool {
	if findParent(s, func(n *model.Node) bool { return n.Type().IsCode() }) != nil {
		return true
	}
	if onlyBlock {
		return false
	}
	for _, mt := range s.Registry().MarkTypes() {
		if mt.Spec().Markdown.Code && IsMarkActive(s, mt) {
			return true
		}
	}
	return false
}

// findParent ищет ближайшего предка начала выделения, удовлетворяющего условию.
func findParent(s *State, pred func(*model.Node) bool) *model.Node {
	rp, err := s.Doc.Resolve(s.Selection.From())
	if err != nil {
		return nil
	}
	for d := rp.Depth(); d > 0; d-- {
		if n := rp.Node(d); pred(n) {
			return n
		}
	}
	return nil
}
