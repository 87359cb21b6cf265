package model

// findIndex находит индекс потомка, содержащего позицию pos внутри содержимого, и его смещение.
func (n *Node) findIndex(pos int) (index int, offset int) {
	if pos == 0 {
		return 0, 0
	}
	if pos == n.ContentSize() {
		return len(n.content), pos
	}
	cur := 0
	for i, c := range n.content {
		end := cur + c.NodeSize()
		if end >= pos {
			if end == pos {
				return i + 1, end
			}
			return i, cur
		}
		cur = end
	}
	return len(n.content), cur
}

// NodesBetween вызывает f для каждого узла, пересекающего диапазон [from, to) содержимого.
// Если f возвращает false, потомки узла не обходятся.
func (n *Node) NodesBetween(from, to int, f func(node *Node, pos int, parent *Node, index int) bool) {
	n.nodesBetween(from, to, f, 0)
}

func (n *Node) nodesBetween(from, to int, f func(*Node, int, *Node, int) bool, nodeStart int) {
	pos := 0
	for i := 0; pos < to && i < len(n.content); i++ {
		child := n.content[i]
		end := pos + child.NodeSize()
		if end > from && f(child, nodeStart+pos, n, i) && !child.IsText() && child.ContentSize() > 0 {
			start := pos + 1
			child.nodesBetween(max(0, from-start), min(child.ContentSize(), to-start), f, nodeStart+start)
		}
		pos = end
	}
}

// resolvedLevel - один уровень пути от корня к позиции.
type resolvedLevel struct {
	node  *Node
	index int
	// childPos - абсолютная позиция начала потомка index.
	childPos int
}

// ResolvedPos - позиция, разрешенная относительно дерева документа.
type ResolvedPos struct {
	Pos          int
	ParentOffset int
	path         []resolvedLevel
}

// Resolve разрешает позицию в документе.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > n.ContentSize() {
		return nil, &PositionError{Pos: pos, Size: n.ContentSize()}
	}
	var path []resolvedLevel
	start, parentOffset := 0, pos
	for node := n; ; {
		index, offset := node.findIndex(parentOffset)
		rem := parentOffset - offset
		path = append(path, resolvedLevel{node: node, index: index, childPos: start + offset})
		if rem == 0 {
			break
		}
		node = node.content[index]
		if node.IsText() {
			break
		}
		parentOffset = rem - 1
		start += offset + 1
	}
	return &ResolvedPos{Pos: pos, ParentOffset: parentOffset, path: path}, nil
}

// Depth - глубина родителя позиции (0 - корень).
func (p *ResolvedPos) Depth() int { return len(p.path) - 1 }

// Parent - узел, в содержимом которого находится позиция.
func (p *ResolvedPos) Parent() *Node { return p.path[len(p.path)-1].node }

// Doc - корень документа.
func (p *ResolvedPos) Doc() *Node { return p.path[0].node }

// Node возвращает предка на глубине depth.
func (p *ResolvedPos) Node(depth int) *Node { return p.path[depth].node }

// Index возвращает индекс потомка на глубине depth, в который указывает позиция.
func (p *ResolvedPos) Index(depth int) int { return p.path[depth].index }

// Start - позиция начала содержимого предка на глубине depth.
func (p *ResolvedPos) Start(depth int) int {
	if depth == 0 {
		return 0
	}
	return p.path[depth-1].childPos + 1
}

// End - позиция конца содержимого предка на глубине depth.
func (p *ResolvedPos) End(depth int) int {
	return p.Start(depth) + p.path[depth].node.ContentSize()
}

// Before - позиция перед предком на глубине depth (depth >= 1).
func (p *ResolvedPos) Before(depth int) int {
	return p.Start(depth) - 1
}

// After - позиция после предка на глубине depth (depth >= 1).
func (p *ResolvedPos) After(depth int) int {
	return p.End(depth) + 1
}

// TextOffset - смещение позиции внутри текстового узла, 0 если позиция между узлами.
func (p *ResolvedPos) TextOffset() int {
	last := p.path[len(p.path)-1]
	return p.Pos - last.childPos
}

// NodeAfter возвращает узел сразу после позиции или nil.
func (p *ResolvedPos) NodeAfter() *Node {
	parent := p.Parent()
	index := p.Index(p.Depth())
	if index >= parent.ChildCount() {
		return nil
	}
	child := parent.Child(index)
	if off := p.TextOffset(); off > 0 {
		rest := []rune(child.text)[off:]
		c := *child
		c.text = string(rest)
		return &c
	}
	return child
}

// NodeBefore возвращает узел сразу перед позицией или nil.
func (p *ResolvedPos) NodeBefore() *Node {
	parent := p.Parent()
	index := p.Index(p.Depth())
	if off := p.TextOffset(); off > 0 {
		child := parent.Child(index)
		c := *child
		c.text = string([]rune(child.text)[:off])
		return &c
	}
	if index == 0 {
		return nil
	}
	return parent.Child(index - 1)
}

// Marks возвращает марки, действующие в позиции.
func (p *ResolvedPos) Marks() []*Mark {
	parent := p.Parent()
	if parent.ChildCount() == 0 {
		return nil
	}
	if p.TextOffset() > 0 {
		return parent.Child(p.Index(p.Depth())).Marks()
	}
	main := p.NodeBefore()
	if main == nil {
		main = p.NodeAfter()
	}
	if main == nil {
		return nil
	}
	return main.Marks()
}
