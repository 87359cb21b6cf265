package commands

import (
	"log/slog"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

// Command - команда редактирования. Возвращает новое состояние и true,
// либо исходное состояние и false, если команда неприменима. Ошибок команды не возвращают.
type Command func(s *State) (*State, bool)

// Chain пробует команды по очереди и возвращает результат первой примененной.
func Chain(cmds ...Command) Command {
	return func(s *State) (*State, bool) {
		for _, cmd := range cmds {
			if next, ok := cmd(s); ok {
				return next, true
			}
		}
		return s, false
	}
}

// SetBlockType превращает текстовые блоки под выделением в блоки типа nt с атрибутами attrs.
// Строчное содержимое сохраняется: марки и узлы, недопустимые в новом типе, отбрасываются,
// переносы строк в блоке кода становятся символом "\n".
func SetBlockType(nt *model.NodeType, attrs model.Attrs) Command {
	return func(s *State) (*State, bool) {
		if !nt.IsTextblock() {
			return s, false
		}
		target, err := nt.ComputeAttrs(attrs)
		if err != nil {
			slog.Debug("Set block type with invalid attrs", "type", nt.Name(), "err", err)
			return s, false
		}
		from, to := s.Selection.From(), s.Selection.To()

		doc, changed := mapTextblocks(s.Doc, from, to, 0, func(tb, parent *model.Node, index int) *model.Node {
			if tb.HasMarkup(nt, target, tb.Marks()) || !parent.CanReplaceWith(index, index+1, nt) {
				return nil
			}
			converted, err := nt.Create(target, convertInline(nt, tb), tb.Marks())
			if err != nil {
				slog.Debug("Set block type skipped block", "from", tb.Type().Name(), "to", nt.Name(), "err", err)
				return nil
			}
			return converted
		})
		if !changed {
			return s, false
		}
		return &State{Doc: doc, Selection: s.Selection.clamp(doc.ContentSize())}, true
	}
}

// convertInline подгоняет строчное содержимое блока под новый тип.
func convertInline(nt *model.NodeType, tb *model.Node) []*model.Node {
	match, err := nt.ContentMatch()
	if err != nil {
		return nil
	}
	allowed := make(map[*model.NodeType]bool)
	for _, t := range match.Types() {
		allowed[t] = true
	}

	var content []*model.Node
	for _, child := range tb.Children() {
		if nt.IsCode() && child.Type().Name() == nodes.NameHardBreak {
			if text, err := nt.Registry().Text("\n"); err == nil {
				content = append(content, text)
			}
			continue
		}
		if !allowed[child.Type()] {
			continue
		}
		content = append(content, child.Mark(nt.AllowedMarks(child.Marks())))
	}
	return content
}

// mapTextblocks обходит текстовые блоки, пересекающие диапазон [from, to), и заменяет те,
// для которых f вернула не nil. Возвращает новое дерево и признак изменения.
func mapTextblocks(n *model.Node, from, to, start int, f func(tb, parent *model.Node, index int) *model.Node) (*model.Node, bool) {
	content := n.Children()
	changed := false
	pos := start
	for i, child := range content {
		end := pos + child.NodeSize()
		if pos >= to || end <= from {
			pos = end
			continue
		}
		switch {
		case child.IsTextblock():
			if replaced := f(child, n, i); replaced != nil {
				content[i] = replaced
				changed = true
			}
		case !child.IsLeaf() && !child.IsInline():
			if mapped, ok := mapTextblocks(child, from, to, pos+1, f); ok {
				content[i] = mapped
				changed = true
			}
		}
		pos = end
	}
	if !changed {
		return n, false
	}
	copied, err := n.Copy(content)
	if err != nil {
		slog.Debug("Set block type produced invalid content", "type", n.Type().Name(), "err", err)
		return n, false
	}
	return copied, true
}

// DeleteEmptyFirstParagraph удаляет пустой первый абзац документа, когда курсор стоит в нем
// и за ним есть другой блок. Курсор переходит в начало нового первого блока.
func DeleteEmptyFirstParagraph(s *State) (*State, bool) {
	if !s.Selection.Empty() || s.Selection.Head != 1 {
		return s, false
	}
	first := s.Doc.FirstChild()
	if first == nil || first.Type().Name() != nodes.NameParagraph || first.ChildCount() != 0 || s.Doc.ChildCount() < 2 {
		return s, false
	}
	doc, err := s.Doc.RemoveChild(0)
	if err != nil {
		return s, false
	}
	return &State{Doc: doc, Selection: Cursor(StartOf(doc))}, true
}
