package tiptap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

// ParseJSON парсит JSON контент TipTap редактора в документ реестра reg.
// Неизвестные узлы и марки пропускаются, недопустимые атрибуты отбрасываются.
func ParseJSON(reg *model.Registry, r io.Reader) (*model.Node, error) {
	var tipTapDoc TipTapDocument
	if err := json.NewDecoder(r).Decode(&tipTapDoc); err != nil {
		return nil, fmt.Errorf("decode tiptap json: %w", err)
	}
	if tipTapDoc.Type != "doc" {
		return nil, fmt.Errorf("tiptap: root node type %q, want doc", tipTapDoc.Type)
	}

	p := &parser{reg: reg}
	content := p.parseContent(tipTapDoc.Content)
	if len(content) == 0 {
		return nodes.EmptyDocument(reg)
	}

	docType, err := reg.TopNodeType()
	if err != nil {
		return nil, err
	}
	doc, err := p.create(docType, model.Attrs{}, content)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}
	return doc, nil
}

type parser struct {
	reg *model.Registry
}

// parseContent парсит список дочерних узлов, пропуская те, что не удалось построить.
func (p *parser) parseContent(content []TipTapNode) []*model.Node {
	res := make([]*model.Node, 0, len(content))
	for _, child := range content {
		if n := p.parseNode(child); n != nil {
			res = append(res, n)
		}
	}
	return res
}

// parseNode парсит отдельную ноду TipTap. nil - нода пропущена.
func (p *parser) parseNode(node TipTapNode) *model.Node {
	name, ok := nodeNames[node.Type]
	if !ok {
		slog.Warn("Unknown node type", "type", node.Type)
		return nil
	}
	nt, err := p.reg.Get(name)
	if err != nil {
		slog.Warn("Node type is not registered", "type", node.Type, "err", err)
		return nil
	}

	marks := p.parseMarks(node.Marks)
	if nt.IsText() {
		if node.Text == "" {
			return nil
		}
		text, err := p.reg.Text(node.Text, marks...)
		if err != nil {
			return nil
		}
		return text
	}

	n, err := p.create(nt, p.parseAttrs(nt, node.Attrs), p.parseContent(node.Content))
	if err != nil {
		slog.Warn("Skip invalid node", "type", node.Type, "err", err)
		return nil
	}
	if nt.IsInline() && len(marks) > 0 {
		n = n.Mark(marks)
	}
	return n
}

// parseAttrs оставляет только объявленные типом атрибуты, переименовывая атрибуты TipTap.
func (p *parser) parseAttrs(nt *model.NodeType, raw map[string]any) model.Attrs {
	specs := nt.AttrSpecs()
	rename := attrNames[nt.Name()]
	attrs := model.Attrs{}
	for key, v := range raw {
		if renamed, ok := rename[key]; ok {
			key = renamed
		}
		if _, declared := specs[key]; !declared || v == nil {
			continue
		}
		attrs[key] = v
	}
	return attrs
}

// parseMarks переводит марки TipTap в марки реестра.
func (p *parser) parseMarks(marks []TipTapMark) []*model.Mark {
	var res []*model.Mark
	for _, mark := range marks {
		name, ok := markNames[mark.Type]
		if !ok {
			slog.Debug("Unknown mark type", "type", mark.Type)
			continue
		}
		mt, err := p.reg.Mark(name)
		if err != nil {
			slog.Debug("Mark type is not registered", "type", mark.Type)
			continue
		}
		m, err := mt.Create(p.markAttrs(mt, mark.Attrs))
		if err != nil {
			slog.Debug("Skip invalid mark", "type", mark.Type, "err", err)
			continue
		}
		res = m.AddToSet(res)
	}
	return res
}

func (p *parser) markAttrs(mt *model.MarkType, raw map[string]any) model.Attrs {
	specs := mt.AttrSpecs()
	attrs := model.Attrs{}
	for key, v := range raw {
		if _, declared := specs[key]; declared && v != nil {
			attrs[key] = v
		}
	}
	return attrs
}

// create строит узел. Недопустимые атрибуты отбрасываются по одному, марки потомков,
// запрещенные в узле, снимаются, пустое содержимое заполняется минимальным.
func (p *parser) create(nt *model.NodeType, attrs model.Attrs, content []*model.Node) (*model.Node, error) {
	for i, child := range content {
		if child.IsInline() {
			content[i] = child.Mark(nt.AllowedMarks(child.Marks()))
		}
	}
	if isCell(nt) && len(content) > 1 {
		if merged := p.mergeParagraphs(content); merged != nil {
			content = []*model.Node{merged}
		}
	}

	for {
		n, err := nt.Create(attrs, content, nil)
		if err == nil {
			return n, nil
		}
		var invalid *model.InvalidAttributeError
		if errors.As(err, &invalid) {
			if _, ok := attrs[invalid.Attr]; ok {
				slog.Debug("Drop invalid attribute", "type", nt.Name(), "attr", invalid.Attr, "err", err)
				delete(attrs, invalid.Attr)
				continue
			}
		}
		if len(content) == 0 {
			return nt.CreateAndFill(attrs)
		}
		return nil, err
	}
}

func isCell(nt *model.NodeType) bool {
	return nt.Name() == nodes.NameTableCell || nt.Name() == nodes.NameTableHeader
}

// mergeParagraphs склеивает абзацы ячейки в один через жесткие переносы.
func (p *parser) mergeParagraphs(content []*model.Node) *model.Node {
	br, err := p.reg.MustGet(nodes.NameHardBreak).Create(nil, nil, nil)
	if err != nil {
		return nil
	}
	var inline []*model.Node
	for i, c := range content {
		if c.Type().Name() != nodes.NameParagraph {
			return nil
		}
		if i > 0 {
			inline = append(inline, br)
		}
		inline = append(inline, c.Children()...)
	}
	merged, err := content[0].Copy(inline)
	if err != nil {
		return nil
	}
	return merged
}
