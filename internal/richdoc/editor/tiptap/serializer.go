package tiptap

import (
	"encoding/json"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// Serialize сериализует документ в TipTap JSON. Узел, не являющийся документом,
// сериализуется как отдельная нода.
func Serialize(n *model.Node) ([]byte, error) {
	if n.Type().Name() != model.TopTypeName {
		return json.Marshal(SerializeNode(n))
	}
	tipTapDoc := TipTapDocument{
		Type:    "doc",
		Content: make([]TipTapNode, 0, n.ChildCount()),
	}
	for _, child := range n.Children() {
		tipTapDoc.Content = append(tipTapDoc.Content, SerializeNode(child))
	}
	return json.Marshal(tipTapDoc)
}

// SerializeNode преобразует узел в TipTap ноду. Атрибуты со значением nil не пишутся.
func SerializeNode(n *model.Node) TipTapNode {
	name := n.Type().Name()
	node := TipTapNode{Type: tiptapName(nodeTipTapNames, name)}

	if n.IsText() {
		node.Text = n.Text()
	}

	rename := reverse(attrNames[name])
	for key, v := range n.Attrs() {
		if v == nil {
			continue
		}
		if node.Attrs == nil {
			node.Attrs = make(map[string]any)
		}
		if renamed, ok := rename[key]; ok {
			key = renamed
		}
		node.Attrs[key] = v
	}

	for _, m := range n.Marks() {
		node.Marks = append(node.Marks, serializeMark(m))
	}

	for _, child := range n.Children() {
		node.Content = append(node.Content, SerializeNode(child))
	}
	return node
}

// serializeMark преобразует марку в TipTap марку.
func serializeMark(m *model.Mark) TipTapMark {
	mark := TipTapMark{Type: tiptapName(markTipTapNames, m.Type().Name())}
	for key, v := range m.Attrs() {
		if v == nil {
			continue
		}
		if mark.Attrs == nil {
			mark.Attrs = make(map[string]any)
		}
		mark.Attrs[key] = v
	}
	return mark
}

// tiptapName возвращает имя TipTap или имя реестра, если соответствия нет.
func tiptapName(names map[string]string, name string) string {
	if tt, ok := names[name]; ok {
		return tt
	}
	return name
}

func reverse(m map[string]string) map[string]string {
	res := make(map[string]string, len(m))
	for k, v := range m {
		res[v] = k
	}
	return res
}
