package markdown

import (
	"bytes"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// IALContract - версия синтаксиса строк атрибутов.
const IALContract = "richdoc-ial/1"

// Строка атрибутов в стиле kramdown: {: dir="rtl" textAlign="center"}
var (
	ialLine = regexp.MustCompile(`^\{:((?:[ \t]+[A-Za-z][\w-]*="[^"]*")+)[ \t]*\}$`)
	ialPair = regexp.MustCompile(`([A-Za-z][\w-]*)="([^"]*)"`)

	ialEscaper   = strings.NewReplacer("&", "&amp;", `"`, "&quot;")
	ialUnescaper = strings.NewReplacer("&quot;", `"`, "&amp;", "&")
)

// IALAttr - пара ключ-значение строки атрибутов.
type IALAttr struct {
	Key   string
	Value string
}

// KindIAL - вид узла goldmark для строки атрибутов.
var KindIAL = ast.NewNodeKind("IAL")

// IAL - строка атрибутов, относящаяся к предыдущему блоку.
type IAL struct {
	ast.BaseBlock
	Attrs []IALAttr
	Raw   []byte
}

func (n *IAL) Kind() ast.NodeKind {
	return KindIAL
}

func (n *IAL) Dump(source []byte, level int) {
	kv := make(map[string]string, len(n.Attrs))
	for _, a := range n.Attrs {
		kv[a.Key] = a.Value
	}
	ast.DumpHelper(n, source, level, kv, nil)
}

// ParseIAL разбирает строку атрибутов. Второе значение false - строка не является IAL.
func ParseIAL(line string) ([]IALAttr, bool) {
	m := ialLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, false
	}
	var attrs []IALAttr
	for _, pair := range ialPair.FindAllStringSubmatch(m[1], -1) {
		attrs = append(attrs, IALAttr{Key: pair[1], Value: ialUnescaper.Replace(pair[2])})
	}
	return attrs, true
}

// FormatIAL возвращает строку атрибутов блока: расширенные атрибуты со значениями не по умолчанию,
// ключи по алфавиту. Пустая строка - писать нечего.
func FormatIAL(n *model.Node) string {
	specs := n.Type().AttrSpecs()
	var parts []string
	for _, key := range slices.Sorted(maps.Keys(specs)) {
		spec := specs[key]
		v := n.Attr(key)
		if !spec.Extension || v == nil || v == spec.Default {
			continue
		}
		parts = append(parts, key+`="`+ialEscaper.Replace(fmt.Sprint(v))+`"`)
	}
	if len(parts) == 0 {
		return ""
	}
	return "{: " + strings.Join(parts, " ") + "}"
}

type ialParser struct{}

func (p *ialParser) Trigger() []byte {
	return []byte{'{'}
}

func (p *ialParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	raw := bytes.TrimSpace(line)
	attrs, ok := ParseIAL(string(raw))
	if !ok {
		return nil, parser.NoChildren
	}
	reader.Advance(segment.Len() - 1)
	return &IAL{Attrs: attrs, Raw: bytes.Clone(raw)}, parser.NoChildren
}

func (p *ialParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (p *ialParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *ialParser) CanInterruptParagraph() bool {
	return true
}

func (p *ialParser) CanAcceptIndentedLine() bool {
	return false
}

type ialExtension struct{}

// IALExtension - расширение goldmark, распознающее строки атрибутов как отдельные блоки.
var IALExtension goldmark.Extender = &ialExtension{}

func (e *ialExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&ialParser{}, 50),
	))
}
