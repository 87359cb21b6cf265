// Пакет commands содержит команды редактирования документа и запросы к состоянию.
//
// Основные возможности:
//   - Состояние редактора: документ и текстовое выделение.
//   - Команды вида func(*State) (*State, bool): false означает, что команда неприменима.
//   - Цепочки команд и раскладки клавиш.
//   - Запросы для меню: активные марки, узлы и атрибуты под выделением.
package commands

import (
	"fmt"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Selection - текстовое выделение. Anchor - неподвижный конец, Head - подвижный.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// Cursor возвращает пустое выделение в позиции pos.
func Cursor(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

// From - меньший конец выделения.
func (s Selection) From() int { return min(s.Anchor, s.Head) }

// To - больший конец выделения.
func (s Selection) To() int { return max(s.Anchor, s.Head) }

// Empty - выделение схлопнуто в курсор.
func (s Selection) Empty() bool { return s.Anchor == s.Head }

// clamp ограничивает выделение размером документа.
func (s Selection) clamp(size int) Selection {
	return Selection{Anchor: min(max(s.Anchor, 0), size), Head: min(max(s.Head, 0), size)}
}

// State - неизменяемое состояние редактора. Команды возвращают новое состояние.
type State struct {
	Doc       *model.Node
	Selection Selection
}

// NewState создает состояние с курсором в начале документа.
func NewState(doc *model.Node) *State {
	return &State{Doc: doc, Selection: Cursor(StartOf(doc))}
}

// WithSelection создает состояние с заданным выделением. Позиции проверяются по документу.
func WithSelection(doc *model.Node, sel Selection) (*State, error) {
	for _, pos := range []int{sel.Anchor, sel.Head} {
		if _, err := doc.Resolve(pos); err != nil {
			return nil, fmt.Errorf("selection: %w", err)
		}
	}
	return &State{Doc: doc, Selection: sel}, nil
}

// Registry возвращает реестр типов документа.
func (s *State) Registry() *model.Registry {
	return s.Doc.Type().Registry()
}

// StartOf возвращает первую позицию текста в документе: начало первого текстового блока
// или 0, если документ начинается с листового блока.
func StartOf(doc *model.Node) int {
	pos := 0
	for n := doc; ; {
		if n.IsTextblock() {
			return pos
		}
		first := n.FirstChild()
		if first == nil || first.IsLeaf() {
			if n == doc {
				return 0
			}
			return pos
		}
		n = first
		pos++
	}
}
