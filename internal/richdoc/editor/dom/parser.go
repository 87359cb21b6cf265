package dom

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// NoMatchingNodeTypeError - ни одно правило разбора не подошло к элементу.
type NoMatchingNodeTypeError struct {
	Tag string
}

func (e *NoMatchingNodeTypeError) Error() string {
	return fmt.Sprintf("dom: no node type matches <%s>", e.Tag)
}

const (
	paragraphType    = "paragraph"
	unknownBlockType = "unknown_block"
)

// Элементы, которые разбираются как их содержимое.
var transparentTags = []string{
	"html", "body", "div", "section", "article", "main", "header", "footer", "nav", "aside",
	"figure", "figcaption", "tbody", "thead", "tfoot", "span", "font", "label", "u", "sub", "sup",
	"small", "big", "mark", "abbr", "cite", "q", "ins", "kbd", "samp", "var", "time", "center",
}

// Элементы, которые пропускаются вместе с содержимым.
var ignoredTags = []string{
	"head", "script", "style", "template", "noscript", "meta", "link", "title", "colgroup", "col", "input", "button",
}

var whitespace = regexp.MustCompile(`[ \t\r\n\f]+`)

type nodeRule struct {
	typ  *model.NodeType
	rule model.ParseRule
}

type markRule struct {
	typ  *model.MarkType
	rule model.ParseRule
}

// Parser строит документ из DOM по правилам ParseDOM зарегистрированных типов.
type Parser struct {
	reg       *model.Registry
	styles    StyleReader
	nodeRules []nodeRule
	markRules []markRule
	paragraph *model.NodeType
	unknown   *model.NodeType
	doc       *model.NodeType
}

// Option настраивает Parser.
type Option func(p *Parser)

// WithStyleReader задает способ чтения CSS-свойств элементов.
func WithStyleReader(r StyleReader) Option {
	return func(p *Parser) {
		p.styles = r
	}
}

// NewParser собирает правила разбора в порядке регистрации типов, затем в порядке объявления правил.
func NewParser(reg *model.Registry, opts ...Option) (*Parser, error) {
	p := &Parser{reg: reg, styles: InlineStyleReader}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	if p.doc, err = reg.TopNodeType(); err != nil {
		return nil, err
	}
	if p.paragraph, err = reg.Get(paragraphType); err != nil {
		return nil, err
	}
	if p.unknown, err = reg.Get(unknownBlockType); err != nil {
		return nil, err
	}

	for _, t := range reg.NodeTypes() {
		for _, r := range t.ParseRules() {
			p.nodeRules = append(p.nodeRules, nodeRule{typ: t, rule: r})
		}
	}
	for _, t := range reg.MarkTypes() {
		for _, r := range t.ParseRules() {
			p.markRules = append(p.markRules, markRule{typ: t, rule: r})
		}
	}
	return p, nil
}

func (p *Parser) wrap(node *html.Node) *element {
	return &element{node: node, styles: p.styles}
}

// ParseElement определяет тип узла и атрибуты элемента. Выигрывает первое подходящее правило.
// Атрибуты, не заданные правилом, получают значения по умолчанию.
func (p *Parser) ParseElement(node *html.Node) (*model.NodeType, model.Attrs, error) {
	t, attrs, _, err := p.matchNode(node)
	return t, attrs, err
}

func (p *Parser) matchNode(node *html.Node) (*model.NodeType, model.Attrs, model.ParseRule, error) {
	el := p.wrap(node)
	for _, nr := range p.nodeRules {
		if !nr.rule.Matches(el) {
			continue
		}
		var given model.Attrs
		if nr.rule.GetAttrs != nil {
			given = nr.rule.GetAttrs(el)
		}
		attrs, err := nr.typ.ComputeAttrs(given)
		if err != nil {
			slog.Debug("Skip parse rule", "type", nr.typ.Name(), "tag", el.Tag(), "err", err)
			continue
		}
		return nr.typ, attrs, nr.rule, nil
	}
	return nil, nil, model.ParseRule{}, &NoMatchingNodeTypeError{Tag: el.Tag()}
}

func (p *Parser) matchMark(node *html.Node) (*model.Mark, bool) {
	el := p.wrap(node)
	for _, mr := range p.markRules {
		if !mr.rule.Matches(el) {
			continue
		}
		var given model.Attrs
		if mr.rule.GetAttrs != nil {
			given = mr.rule.GetAttrs(el)
		}
		m, err := mr.typ.Create(given)
		if err != nil {
			slog.Debug("Skip mark rule", "mark", mr.typ.Name(), "tag", el.Tag(), "err", err)
			continue
		}
		return m, true
	}
	return nil, false
}

// Parse разбирает HTML-документ или фрагмент.
func (p *Parser) Parse(r io.Reader) (*model.Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	body := getBody(root)
	if body == nil {
		body = root
	}
	return p.ParseNode(body)
}

// ParseString разбирает HTML из строки.
func (p *Parser) ParseString(s string) (*model.Node, error) {
	return p.Parse(strings.NewReader(s))
}

// ParseNode строит документ из содержимого элемента root.
func (p *Parser) ParseNode(root *html.Node) (*model.Node, error) {
	content := p.parseContent(p.doc, root, nil)
	doc, err := p.create(p.doc, nil, content)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Parser) parseContent(container *model.NodeType, parent *html.Node, marks []*model.Mark) []*model.Node {
	b := &contentBuilder{p: p, container: container}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		p.addNode(b, c, marks)
	}
	return b.finish()
}

func (p *Parser) addNode(b *contentBuilder, node *html.Node, marks []*model.Mark) {
	switch node.Type {
	case html.TextNode:
		b.addText(node.Data, marks)
		return
	case html.ElementNode:
	default:
		return
	}

	tag := strings.ToLower(node.Data)
	if slices.Contains(ignoredTags, tag) {
		return
	}

	t, attrs, rule, err := p.matchNode(node)
	if err == nil {
		if rule.Ignore {
			return
		}
		p.addTyped(b, node, t, attrs, rule, marks)
		return
	}

	if m, ok := p.matchMark(node); ok {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			p.addNode(b, c, m.AddToSet(marks))
		}
		return
	}

	if slices.Contains(transparentTags, tag) || b.inline() {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			p.addNode(b, c, marks)
		}
		return
	}

	slog.Debug("Keep unknown block", "tag", tag)
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		slog.Warn("Render unknown block", "tag", tag, "err", err)
		return
	}
	n, err := p.unknown.Create(model.Attrs{"html": buf.String()}, nil, nil)
	if err != nil {
		slog.Warn("Create unknown block", "tag", tag, "err", err)
		return
	}
	b.addBlock(n)
}

func (p *Parser) addTyped(b *contentBuilder, node *html.Node, t *model.NodeType, attrs model.Attrs, rule model.ParseRule, marks []*model.Mark) {
	if t.IsInline() {
		n, err := t.Create(attrs, nil, b.allowedMarks(marks))
		if err != nil {
			slog.Warn("Create inline node", "type", t.Name(), "err", err)
			return
		}
		b.addInline(n)
		return
	}

	if b.inline() {
		slog.Debug("Flatten block inside inline content", "type", t.Name())
		b.addText(textContent(node), marks)
		return
	}

	var content []*model.Node
	if rule.PreserveText {
		if text := textContent(node); text != "" {
			tn, err := p.reg.Text(text)
			if err == nil {
				content = append(content, tn)
			}
		}
	} else {
		content = p.parseContent(t, node, marks)
	}

	n, err := p.create(t, attrs, content)
	if err != nil {
		slog.Warn("Drop invalid block", "type", t.Name(), "err", err)
		if text := strings.TrimSpace(textContent(node)); text != "" {
			b.addText(text, nil)
		}
		return
	}
	b.addBlock(n)
}

// create создает узел, при необходимости приводя содержимое к выражению контента.
func (p *Parser) create(t *model.NodeType, attrs model.Attrs, content []*model.Node) (*model.Node, error) {
	n, err := t.Create(attrs, content, nil)
	if err == nil {
		return n, nil
	}
	for _, candidate := range p.fitContent(t, content) {
		if n, ferr := t.Create(attrs, candidate, nil); ferr == nil {
			return n, nil
		}
	}
	if len(content) == 0 {
		return t.CreateAndFill(attrs)
	}
	return nil, err
}

// fitContent предлагает исправленные варианты содержимого.
func (p *Parser) fitContent(t *model.NodeType, content []*model.Node) [][]*model.Node {
	match, err := t.ContentMatch()
	if err != nil {
		return nil
	}
	allowed := match.Types()

	var filtered []*model.Node
	for _, c := range content {
		if slices.Contains(allowed, c.Type()) {
			filtered = append(filtered, c)
			continue
		}
		if retyped := p.retypeItem(c, allowed); retyped != nil {
			filtered = append(filtered, retyped)
			continue
		}
		slog.Debug("Drop misplaced node", "type", c.Type().Name(), "parent", t.Name())
	}

	candidates := [][]*model.Node{filtered}
	if empty, err := p.paragraph.Create(nil, nil, nil); err == nil {
		candidates = append(candidates, append([]*model.Node{empty}, filtered...))
	}
	if merged := p.mergeParagraphs(filtered); merged != nil {
		candidates = append(candidates, []*model.Node{merged})
	}
	if len(filtered) == 0 {
		if filled, err := t.CreateAndFill(nil); err == nil {
			candidates = append(candidates, filled.Children())
		}
	}
	return candidates
}

// retypeItem превращает пункт списка в пункт другого вида, если родитель ждет именно его.
func (p *Parser) retypeItem(n *model.Node, allowed []*model.NodeType) *model.Node {
	if n.IsInline() || n.IsTextblock() {
		return nil
	}
	for _, t := range allowed {
		if t.IsInline() || t.IsTextblock() || t.IsLeaf() {
			continue
		}
		if retyped, err := t.Create(nil, n.Children(), nil); err == nil {
			return retyped
		}
	}
	return nil
}

// mergeParagraphs склеивает несколько абзацев в один через жесткие переносы (для ячеек таблиц).
func (p *Parser) mergeParagraphs(content []*model.Node) *model.Node {
	if len(content) < 2 {
		return nil
	}
	br, err := p.reg.Get("hard_break")
	if err != nil {
		return nil
	}
	var inline []*model.Node
	for i, c := range content {
		if !c.IsTextblock() {
			return nil
		}
		if i > 0 {
			if brNode, err := br.Create(nil, nil, nil); err == nil {
				inline = append(inline, brNode)
			}
		}
		inline = append(inline, c.Children()...)
	}
	merged, err := p.paragraph.Create(nil, inline, nil)
	if err != nil {
		return nil
	}
	return merged
}
