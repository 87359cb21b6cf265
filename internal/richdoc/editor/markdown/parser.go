package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

var (
	escapeOrEntity = regexp.MustCompile(`\\[!-/:-@\[-` + "`" + `{-~]|&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[A-Za-z][A-Za-z0-9]{1,31});`)
	brTag          = regexp.MustCompile(`(?i)^<br\s*/?>$`)
	taskPrefix     = regexp.MustCompile(`^\[[ xX]\][ \t]*`)
)

// Parser строит документ из markdown. Узлы goldmark сопоставляются типам реестра по имени токена.
type Parser struct {
	reg       *model.Registry
	md        goldmark.Markdown
	nodes     map[string]*model.NodeType
	marks     map[string]*model.MarkType
	doc       *model.NodeType
	paragraph *model.NodeType
}

// NewParser создает парсер для реестра.
func NewParser(reg *model.Registry, opts ...Option) (*Parser, error) {
	o := buildOptions(opts)
	if err := reg.Check(); err != nil {
		return nil, err
	}

	exts := []goldmark.Extender{extension.Table, extension.Strikethrough, extension.TaskList}
	if o.extensions {
		exts = append(exts, IALExtension)
	}
	p := &Parser{
		reg:   reg,
		md:    goldmark.New(goldmark.WithExtensions(exts...)),
		nodes: map[string]*model.NodeType{},
		marks: map[string]*model.MarkType{},
	}

	for _, t := range reg.NodeTypes() {
		tok := t.Spec().ParseMarkdown.Token
		if _, dup := p.nodes[tok]; tok != "" && !dup {
			p.nodes[tok] = t
		}
	}
	for _, t := range reg.MarkTypes() {
		tok := t.Spec().Markdown.Token
		if _, dup := p.marks[tok]; tok != "" && !dup {
			p.marks[tok] = t
		}
	}

	var err error
	if p.doc, err = reg.TopNodeType(); err != nil {
		return nil, err
	}
	var ok bool
	if p.paragraph, ok = p.nodes["paragraph"]; !ok {
		return nil, fmt.Errorf("markdown: no node type for token %q", "paragraph")
	}
	return p, nil
}

// Parse разбирает markdown. Блок, который не удалось построить, заменяется абзацем с его текстом.
func (p *Parser) Parse(src string) (*model.Node, error) {
	source := []byte(src)
	root := p.md.Parser().Parse(text.NewReader(source))

	c := &converter{p: p, source: source}
	doc, err := c.fit(p.doc, nil, c.blocks(root))
	if err != nil {
		return nil, fmt.Errorf("markdown: build document: %w", err)
	}
	return doc, nil
}

type converter struct {
	p      *Parser
	source []byte
}

func (c *converter) blocks(parent ast.Node) []*model.Node {
	var res []*model.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if ial, ok := n.(*IAL); ok {
			if len(res) > 0 {
				updated, err := applyIAL(res[len(res)-1], ial.Attrs)
				if err == nil {
					res[len(res)-1] = updated
					continue
				}
				slog.Debug("Keep attribute line as text", "err", err)
			}
			if para := c.textParagraph(string(ial.Raw)); para != nil {
				res = append(res, para)
			}
			continue
		}
		if b := c.block(n); b != nil {
			res = append(res, b)
		}
	}
	return res
}

// applyIAL переносит атрибуты строки {: ...} на блок. Допускаются только расширенные атрибуты типа.
func applyIAL(n *model.Node, attrs []IALAttr) (*model.Node, error) {
	specs := n.Type().AttrSpecs()
	merged := model.Attrs{}
	maps.Copy(merged, n.Attrs())
	for _, a := range attrs {
		if spec, ok := specs[a.Key]; !ok || !spec.Extension {
			return nil, fmt.Errorf("%s has no extension attribute %s", n.Type().Name(), a.Key)
		}
		merged[a.Key] = a.Value
	}
	return n.Type().Create(merged, n.Children(), n.Marks())
}

func (c *converter) block(n ast.Node) *model.Node {
	var (
		token   string
		meta    map[string]string
		content []*model.Node
	)
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return c.paragraph(n)
	case *ast.Heading:
		token = "heading"
		meta = map[string]string{"level": strconv.Itoa(node.Level)}
		content = c.inlines(n)
	case *ast.Blockquote:
		token = "blockquote"
		content = c.blocks(n)
	case *ast.List:
		return c.list(node)
	case *ast.FencedCodeBlock:
		token = "code_block"
		meta = map[string]string{"language": string(node.Language(c.source))}
		content = c.codeText(n)
	case *ast.CodeBlock:
		token = "code_block"
		content = c.codeText(n)
	case *ast.ThematicBreak:
		token = "hr"
	case *ast.HTMLBlock:
		token = "html_block"
		meta = map[string]string{"html": c.htmlBlock(node)}
	case *east.Table:
		return c.table(node)
	default:
		slog.Warn("Unsupported markdown block", "kind", n.Kind().String())
		return c.textParagraph(c.plainText(n))
	}
	return c.create(n, token, meta, content)
}

// create строит узел по токену. При ошибке блок деградирует до абзаца с текстом.
func (c *converter) create(n ast.Node, token string, meta map[string]string, content []*model.Node) *model.Node {
	t, ok := c.p.nodes[token]
	if !ok {
		slog.Warn("No node type for markdown token", "token", token)
		return c.textParagraph(c.plainText(n))
	}
	var attrs model.Attrs
	if getAttrs := t.Spec().ParseMarkdown.GetAttrs; getAttrs != nil {
		attrs = getAttrs(model.MarkdownToken{Name: token, Meta: meta})
	}
	node, err := c.fit(t, attrs, content)
	if err != nil {
		slog.Warn("Degrade markdown block", "token", token, "err", err)
		return c.textParagraph(c.plainText(n))
	}
	return node
}

// fit создает узел, дополняя пустое содержимое и добавляя пустой абзац перед
// содержимым, которое не может начинать узел.
func (c *converter) fit(t *model.NodeType, attrs model.Attrs, content []*model.Node) (*model.Node, error) {
	n, err := t.Create(attrs, content, nil)
	if err == nil {
		return n, nil
	}
	if len(content) == 0 {
		return t.CreateAndFill(attrs)
	}
	if empty := c.textParagraph(""); empty != nil {
		if n, ferr := t.Create(attrs, append([]*model.Node{empty}, content...), nil); ferr == nil {
			return n, nil
		}
	}
	return nil, err
}

func (c *converter) paragraph(n ast.Node) *model.Node {
	if c.isEmptyMarker(n) {
		return c.textParagraph("")
	}
	return c.create(n, "paragraph", nil, c.inlines(n))
}

// isEmptyMarker - абзац состоит из одного "\", так записывается пустой абзац.
func (c *converter) isEmptyMarker(n ast.Node) bool {
	raw := strings.TrimSpace(string(c.lines(n)))
	if _, ok := n.FirstChild().(*east.TaskCheckBox); ok {
		raw = taskPrefix.ReplaceAllString(raw, "")
	}
	return raw == `\`
}

func (c *converter) list(l *ast.List) *model.Node {
	token, itemToken := "bullet_list", "list_item"
	meta := map[string]string{}
	switch {
	case l.IsOrdered():
		token = "ordered_list"
		meta["start"] = strconv.Itoa(l.Start)
	case taskCheckBox(l.FirstChild()) != nil:
		token, itemToken = "checkbox_list", "checkbox_item"
	}

	var items []*model.Node
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		itemMeta := map[string]string{}
		if cb := taskCheckBox(item); cb != nil && cb.IsChecked {
			itemMeta["checked"] = "true"
		}
		items = append(items, c.create(item, itemToken, itemMeta, c.blocks(item)))
	}
	return c.create(l, token, meta, items)
}

func taskCheckBox(item ast.Node) *east.TaskCheckBox {
	if item == nil || item.FirstChild() == nil {
		return nil
	}
	cb, _ := item.FirstChild().FirstChild().(*east.TaskCheckBox)
	return cb
}

// table строит таблицу: строка заголовка goldmark дает table_header, остальные - table_cell.
func (c *converter) table(t *east.Table) *model.Node {
	var rows []*model.Node
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		cellToken := "table_cell"
		if _, ok := r.(*east.TableHeader); ok {
			cellToken = "table_header"
		}
		var cells []*model.Node
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			para := c.create(cell, "paragraph", nil, c.inlines(cell))
			cells = append(cells, c.create(cell, cellToken, nil, []*model.Node{para}))
		}
		rows = append(rows, c.create(r, "table_row", nil, cells))
	}
	return c.create(t, "table", nil, rows)
}

func (c *converter) codeText(n ast.Node) []*model.Node {
	s := strings.TrimSuffix(string(c.lines(n)), "\n")
	if s == "" {
		return nil
	}
	t, err := c.p.reg.Text(s)
	if err != nil {
		return nil
	}
	return []*model.Node{t}
}

func (c *converter) htmlBlock(n *ast.HTMLBlock) string {
	var buf bytes.Buffer
	buf.Write(c.lines(n))
	if n.HasClosure() {
		buf.Write(n.ClosureLine.Value(c.source))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (c *converter) lines(n ast.Node) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(c.source))
	}
	return buf.Bytes()
}

// plainText - текст узла без разметки, для деградации блока до абзаца.
func (c *converter) plainText(n ast.Node) string {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return strings.TrimSpace(string(c.lines(n)))
	}
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			b.WriteString(unescape(t.Segment.Value(c.source)))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func (c *converter) textParagraph(s string) *model.Node {
	var content []*model.Node
	if s != "" {
		if t, err := c.p.reg.Text(s); err == nil {
			content = append(content, t)
		}
	}
	n, err := c.p.paragraph.Create(nil, content, nil)
	if err != nil {
		slog.Warn("Create text paragraph", "err", err)
		return nil
	}
	return n
}

func (c *converter) inlines(parent ast.Node) []*model.Node {
	var out []*model.Node
	c.inline(parent, nil, &out)
	return out
}

func (c *converter) inline(parent ast.Node, marks []*model.Mark, out *[]*model.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Text:
			value := node.Segment.Value(c.source)
			if node.IsRaw() {
				c.addText(out, string(value), marks)
			} else {
				c.addText(out, unescape(value), marks)
			}
			switch {
			case node.HardLineBreak():
				c.addNode(out, "hardbreak", nil, marks)
			case node.SoftLineBreak():
				c.addText(out, "\n", marks)
			}
		case *ast.String:
			if node.IsRaw() || node.IsCode() {
				c.addText(out, string(node.Value), marks)
			} else {
				c.addText(out, unescape(node.Value), marks)
			}
		case *ast.CodeSpan:
			c.withMark("code_inline", nil, marks, func(marks []*model.Mark) {
				c.addText(out, c.codeSpanText(node), marks)
			})
		case *ast.Emphasis:
			token := "em"
			if node.Level >= 2 {
				token = "strong"
			}
			c.withMark(token, nil, marks, func(marks []*model.Mark) { c.inline(n, marks, out) })
		case *east.Strikethrough:
			c.withMark("strikethrough", nil, marks, func(marks []*model.Mark) { c.inline(n, marks, out) })
		case *ast.Link:
			meta := map[string]string{"href": unescape(node.Destination), "title": unescape(node.Title)}
			c.withMark("link", meta, marks, func(marks []*model.Mark) { c.inline(n, marks, out) })
		case *ast.AutoLink:
			url := string(node.URL(c.source))
			href := url
			if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
				href = "mailto:" + url
			}
			c.withMark("link", map[string]string{"href": href}, marks, func(marks []*model.Mark) {
				c.addText(out, string(node.Label(c.source)), marks)
			})
		case *ast.Image:
			c.addNode(out, "image", map[string]string{
				"src":   unescape(node.Destination),
				"alt":   c.plainText(node),
				"title": unescape(node.Title),
			}, marks)
		case *ast.RawHTML:
			raw := c.rawHTML(node)
			if brTag.MatchString(raw) {
				c.addNode(out, "hardbreak", nil, marks)
			} else {
				c.addText(out, raw, marks)
			}
		case *east.TaskCheckBox:
			// Состояние уже перенесено в атрибут пункта.
		default:
			c.inline(n, marks, out)
		}
	}
}

func (c *converter) withMark(token string, meta map[string]string, marks []*model.Mark, f func(marks []*model.Mark)) {
	mt, ok := c.p.marks[token]
	if !ok {
		f(marks)
		return
	}
	var attrs model.Attrs
	if getAttrs := mt.Spec().Markdown.GetAttrs; getAttrs != nil {
		attrs = getAttrs(model.MarkdownToken{Name: token, Meta: meta})
	}
	m, err := mt.Create(attrs)
	if err != nil {
		slog.Debug("Skip mark", "mark", mt.Name(), "err", err)
		f(marks)
		return
	}
	f(m.AddToSet(marks))
}

func (c *converter) addText(out *[]*model.Node, s string, marks []*model.Mark) {
	if s == "" {
		return
	}
	t, err := c.p.reg.Text(s, marks...)
	if err != nil {
		return
	}
	*out = append(*out, t)
}

func (c *converter) addNode(out *[]*model.Node, token string, meta map[string]string, marks []*model.Mark) {
	t, ok := c.p.nodes[token]
	if !ok {
		return
	}
	var attrs model.Attrs
	if getAttrs := t.Spec().ParseMarkdown.GetAttrs; getAttrs != nil {
		attrs = getAttrs(model.MarkdownToken{Name: token, Meta: meta})
	}
	n, err := t.Create(attrs, nil, marks)
	if err != nil {
		slog.Warn("Drop inline node", "token", token, "err", err)
		return
	}
	*out = append(*out, n)
}

func (c *converter) codeSpanText(n *ast.CodeSpan) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(c.source))
		case *ast.String:
			b.Write(t.Value)
		}
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

func (c *converter) rawHTML(n *ast.RawHTML) string {
	var b strings.Builder
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		b.Write(seg.Value(c.source))
	}
	return b.String()
}

// unescape снимает экранирование markdown и раскрывает HTML-сущности за один проход,
// чтобы "\&amp;" осталось текстом "&amp;".
func unescape(b []byte) string {
	return string(escapeOrEntity.ReplaceAllFunc(b, func(m []byte) []byte {
		if m[0] == '\\' {
			return m[1:]
		}
		return util.ResolveEntityNames(util.ResolveNumericReferences(m))
	}))
}
