// Пакет markdown переводит документ в markdown и обратно.
//
// Основные возможности:
//   - Сериализация через функции ToMarkdown типов узлов и состояние MarkdownWriter.
//   - Разбор на goldmark (таблицы, зачеркивание, списки задач) с сопоставлением токенов типам реестра.
//   - Атрибуты dir и textAlign, которых нет в markdown, передаются строкой {: ...} после блока.
//   - Пустой абзац записывается как "\" и восстанавливается при разборе.
package markdown

import (
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

const hardBreakType = "hard_break"

type options struct {
	extensions bool
}

// Option настраивает Serializer и Parser.
type Option func(o *options)

// WithoutExtensions отключает строки атрибутов {: ...}. Значения dir и textAlign при этом теряются.
func WithoutExtensions() Option {
	return func(o *options) {
		o.extensions = false
	}
}

func buildOptions(opts []Option) options {
	o := options{extensions: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Serializer пишет документ в markdown.
type Serializer struct {
	reg  *model.Registry
	opts options
}

// NewSerializer создает сериализатор для реестра.
func NewSerializer(reg *model.Registry, opts ...Option) *Serializer {
	return &Serializer{reg: reg, opts: buildOptions(opts)}
}

// Serialize возвращает markdown узла. Для корневого узла пишется его содержимое.
// Завершающие пустые строки отбрасываются, перевод строки после "\\" пустого абзаца остается.
func (s *Serializer) Serialize(n *model.Node) string {
	w := &writer{extensions: s.opts.extensions}
	if n.Type().Name() == model.TopTypeName {
		w.RenderContent(n)
	} else {
		w.render(n, nil, 0)
	}
	return trimTrailing(w.out.String())
}

// trimTrailing убирает переводы строк в конце. Нечетное число "\\" перед ними - это
// маркер пустого абзаца, а не экранированный символ, и его перевод строки сохраняется.
func trimTrailing(s string) string {
	trimmed := strings.TrimRight(s, "\n")
	if len(trimmed) == len(s) {
		return s
	}
	body := strings.TrimRight(trimmed, `\`)
	if (len(trimmed)-len(body))%2 == 1 {
		return trimmed + "\n"
	}
	return trimmed
}

var (
	inlineEscape     = regexp.MustCompile("[`*\\\\~\\[\\]_<&#|]")
	lineStartEscape  = regexp.MustCompile(`^[>+=\-{]`)
	lineStartOrdered = regexp.MustCompile(`^(\d{1,9})([.)])(\s|$)`)
	softBreak        = regexp.MustCompile(`\s*\n\s*`)
	backticks        = regexp.MustCompile("`+")
)

type sibling struct {
	parent *model.Node
	index  int
}

// writer - состояние сериализации. Блок, закрытый CloseBlock, отделяется от следующего
// пустой строкой только при следующей записи, поэтому в конце документа лишних строк нет.
type writer struct {
	extensions   bool
	out          strings.Builder
	delim        string
	closed       *model.Node
	inTable      bool
	atBlockStart bool
	stack        []sibling
	// flank - закрывающий ограничитель стоит после знака препинания, и буква сразу за ним
	// не дала бы ему закрыться.
	flank bool
}

var _ model.MarkdownWriter = (*writer)(nil)

func (w *writer) atBlank() bool {
	s := w.out.String()
	return s == "" || strings.HasSuffix(s, "\n")
}

func (w *writer) flushClose(size int) {
	if w.closed == nil {
		return
	}
	if !w.atBlank() {
		w.out.WriteByte('\n')
	}
	delimMin := strings.TrimRight(w.delim, " \t")
	for i := 1; i < size; i++ {
		w.out.WriteString(delimMin + "\n")
	}
	w.closed = nil
}

func (w *writer) write(content string) {
	w.flushClose(2)
	if w.delim != "" && w.atBlank() {
		w.out.WriteString(w.delim)
	}
	w.out.WriteString(content)
}

func (w *writer) Write(s string) {
	w.write(s)
	w.atBlockStart = false
}

func (w *writer) Text(s string, escape bool) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		startOfLine := w.atBlockStart || i > 0
		w.write("")
		if escape {
			line = w.Esc(line, startOfLine)
		}
		w.out.WriteString(line)
		w.atBlockStart = false
		if i < len(lines)-1 {
			w.out.WriteByte('\n')
		}
	}
}

func (w *writer) EnsureNewLine() {
	if !w.atBlank() {
		w.out.WriteByte('\n')
	}
}

func (w *writer) CloseBlock(n *model.Node) {
	w.closed = n
}

func (w *writer) WrapBlock(delim string, firstDelim string, n *model.Node, f func()) {
	old := w.delim
	if firstDelim == "" {
		firstDelim = delim
	}
	w.Write(firstDelim)
	w.delim += delim
	f()
	w.delim = old
	w.CloseBlock(n)
}

func (w *writer) RenderContent(parent *model.Node) {
	for i, child := range parent.Children() {
		w.render(child, parent, i)
	}
}

// RenderList пишет пункты без пустых строк между ними.
func (w *writer) RenderList(n *model.Node, delim string, marker func(i int) string) {
	for i, item := range n.Children() {
		if i > 0 {
			w.flushClose(1)
		}
		w.WrapBlock(delim, marker(i), n, func() { w.render(item, n, i) })
	}
}

func (w *writer) Table(f func()) {
	old := w.inTable
	w.inTable = true
	f()
	w.inTable = old
}

func (w *writer) InTable() bool {
	return w.inTable
}

// Esc экранирует символы разметки. В начале строки дополнительно экранируются
// маркеры блоков: заголовков, цитат, списков и строк атрибутов.
func (w *writer) Esc(s string, startOfLine bool) string {
	s = inlineEscape.ReplaceAllString(s, `\$0`)
	if startOfLine {
		s = lineStartEscape.ReplaceAllString(s, `\$0`)
		s = lineStartOrdered.ReplaceAllString(s, `${1}\${2}${3}`)
	}
	return s
}

func (w *writer) Repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}

func (w *writer) Attributes(n *model.Node) {
	if !w.extensions || w.inTable {
		return
	}
	line := FormatIAL(n)
	if line == "" {
		return
	}
	w.EnsureNewLine()
	w.Write(line)
}

func (w *writer) Siblings() (*model.Node, int) {
	if len(w.stack) == 0 {
		return nil, 0
	}
	top := w.stack[len(w.stack)-1]
	return top.parent, top.index
}

func (w *writer) render(n *model.Node, parent *model.Node, index int) {
	w.stack = append(w.stack, sibling{parent: parent, index: index})
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	if toMarkdown := n.Type().Spec().ToMarkdown; toMarkdown != nil {
		toMarkdown(w, n)
		return
	}
	if n.IsText() {
		w.Text(n.Text(), true)
		return
	}
	slog.Debug("No markdown for node", "type", n.Type().Name())
	w.RenderContent(n)
}

// inlineItem - строчный узел, подготовленный к записи.
type inlineItem struct {
	node  *model.Node
	index int
	text  string
	marks []*model.Mark
}

func (it inlineItem) isText() bool {
	return it.node.IsText()
}

func (it inlineItem) isCode() bool {
	return it.node.IsText() && codeMark(it.marks) != nil
}

func codeMark(marks []*model.Mark) *model.Mark {
	for _, m := range marks {
		if m.Type().Spec().Markdown.Code {
			return m
		}
	}
	return nil
}

func expels(m *model.Mark) bool {
	return m.Type().Spec().Markdown.ExpelEnclosingWhitespace
}

func (w *writer) RenderInline(parent *model.Node) {
	items := inlineItems(parent)
	w.atBlockStart = !w.inTable
	w.flank = false
	defer func() { w.flank = false }()

	var active []*model.Mark
	for i, it := range items {
		if it.isCode() {
			active = w.closeMarks(active, 0)
			w.flank = false
			w.writeCode(it.text)
			continue
		}

		keep := 0
		for keep < len(active) && active[keep].IsInSet(it.marks) {
			keep++
		}
		active = w.closeMarks(active, keep)

		var opening []*model.Mark
		for _, m := range it.marks {
			if !m.IsInSet(active) {
				opening = append(opening, m)
			}
		}
		// Марки, которые тянутся дальше, открываются раньше и оказываются снаружи.
		slices.SortStableFunc(opening, func(a, b *model.Mark) int {
			if la, lb := runLength(items, i, a), runLength(items, i, b); la != lb {
				return lb - la
			}
			return a.Type().Rank() - b.Type().Rank()
		})
		text := it.text
		if w.inTable {
			text = strings.ReplaceAll(text, "\n", " ")
		}
		if len(opening) > 0 {
			w.flankOpening(opening, it, text)
			w.flank = false
		}
		for _, m := range opening {
			w.openMark(m)
			active = append(active, m)
		}

		if it.isText() {
			if r, size := utf8.DecodeRuneInString(text); w.flank && size > 0 && isWordRune(r) {
				w.Write(charRef(r))
				text = text[size:]
			}
			w.flank = false
			w.Text(text, true)
			continue
		}
		w.flank = false
		w.render(it.node, parent, it.index)
	}
	w.closeMarks(active, 0)
}

func (w *writer) openMark(m *model.Mark) {
	open := m.Type().Spec().Markdown.Open
	if open == nil {
		return
	}
	s := open(m)
	// "!" перед "[" превратил бы ссылку в изображение.
	if strings.HasPrefix(s, "[") {
		out := w.out.String()
		if strings.HasSuffix(out, "!") && !strings.HasSuffix(out, `\!`) {
			w.out.Reset()
			w.out.WriteString(out[:len(out)-1] + `\!`)
		}
	}
	w.Write(s)
}

func (w *writer) closeMarks(active []*model.Mark, keep int) []*model.Mark {
	var runPrev rune
	inRun := false
	for j := len(active) - 1; j >= keep; j-- {
		closeFn := active[j].Type().Spec().Markdown.Close
		if closeFn == nil {
			continue
		}
		if expels(active[j]) {
			if !inRun {
				w.write("")
				runPrev = w.lastRune()
			}
			inRun = true
		} else {
			inRun = false
		}
		w.Write(closeFn(active[j]))
	}
	if keep < len(active) {
		w.flank = inRun && isPunct(runPrev)
	}
	return active[:keep]
}

// flankOpening проверяет, что открывающий ограничитель перед знаком препинания сможет
// открыться. Если перед ним буква, она записывается числовой ссылкой "&#NN;".
func (w *writer) flankOpening(opening []*model.Mark, it inlineItem, text string) {
	if !expels(opening[0]) {
		return
	}
	nextPunct := true
	if !slices.ContainsFunc(opening, func(m *model.Mark) bool { return !expels(m) }) && it.isText() {
		r, _ := utf8.DecodeRuneInString(text)
		nextPunct = isPunct(r)
	}
	if !nextPunct {
		return
	}
	w.write("")
	out := w.out.String()
	r, size := utf8.DecodeLastRuneInString(out)
	if size == 0 || !isWordRune(r) {
		return
	}
	w.out.Reset()
	w.out.WriteString(out[:len(out)-size] + charRef(r))
}

func (w *writer) lastRune() rune {
	r, _ := utf8.DecodeLastRuneInString(w.out.String())
	return r
}

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// isPunct - знак препинания или символ в широком смысле: лишняя ссылка безвредна,
// пропущенная теряет разметку.
func isPunct(r rune) bool {
	return strings.ContainsRune(asciiPunct, r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// isWordRune - не пробел и не знак препинания в смысле CommonMark.
func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && !strings.ContainsRune(asciiPunct, r) && !unicode.IsPunct(r)
}

func charRef(r rune) string {
	return "&#" + strconv.Itoa(int(r)) + ";"
}

func runLength(items []inlineItem, from int, m *model.Mark) int {
	n := 0
	for j := from; j < len(items) && m.IsInSet(items[j].marks); j++ {
		n++
	}
	return n
}

// writeCode пишет код в строке. Ограничитель длиннее самой длинной серии обратных кавычек внутри.
func (w *writer) writeCode(text string) {
	text = strings.ReplaceAll(text, "\n", " ")
	longest := 0
	for _, run := range backticks.FindAllString(text, -1) {
		longest = max(longest, len(run))
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") ||
		(strings.HasPrefix(text, " ") && strings.HasSuffix(text, " ") && strings.Trim(text, " ") != "") {
		text = " " + text + " "
	}
	w.Write(fence + text + fence)
}

// inlineItems готовит строчное содержимое: переносы по краям отбрасываются, пробелы по краям
// текста обрезаются, пробелы на границах размеченного текста выносятся за марку.
func inlineItems(parent *model.Node) []inlineItem {
	var items []inlineItem
	for i, c := range parent.Children() {
		it := inlineItem{node: c, index: i, marks: c.Marks()}
		if c.IsText() {
			it.text = c.Text()
			if !it.isCode() {
				it.text = softBreak.ReplaceAllString(it.text, "\n")
			}
		}
		items = append(items, it)
	}

	for len(items) > 0 {
		first := &items[0]
		if first.isText() && !first.isCode() {
			first.text = strings.TrimLeftFunc(first.text, isSpace)
		}
		if !isDroppable(*first) {
			break
		}
		items = items[1:]
	}
	for len(items) > 0 {
		last := &items[len(items)-1]
		if last.isText() && !last.isCode() {
			last.text = strings.TrimRightFunc(last.text, isSpace)
		}
		if !isDroppable(*last) {
			break
		}
		items = items[:len(items)-1]
	}

	var res []inlineItem
	for i, it := range items {
		if !it.isText() || it.isCode() || !slices.ContainsFunc(it.marks, expels) {
			res = append(res, it)
			continue
		}
		var prev, next *inlineItem
		if len(res) > 0 {
			prev = &res[len(res)-1]
		}
		if i+1 < len(items) {
			next = &items[i+1]
		}

		core := strings.TrimLeftFunc(it.text, isSpace)
		lead := it.text[:len(it.text)-len(core)]
		trimmed := strings.TrimRightFunc(core, isSpace)
		trail := core[len(trimmed):]

		if lead != "" {
			res = append(res, inlineItem{node: it.node, index: it.index, text: lead, marks: sharedMarks(it.marks, prev)})
		}
		if trimmed != "" {
			res = append(res, inlineItem{node: it.node, index: it.index, text: trimmed, marks: it.marks})
		}
		if trail != "" {
			res = append(res, inlineItem{node: it.node, index: it.index, text: trail, marks: sharedMarks(it.marks, next)})
		}
	}
	return res
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// isDroppable - пустой текст или перенос строки на краю текстового блока.
func isDroppable(it inlineItem) bool {
	if it.isText() {
		return it.text == ""
	}
	return it.node.Type().Name() == hardBreakType
}

// sharedMarks оставляет у вынесенного пробела марки, которые не выносят пробелы,
// и марки, общие с соседним узлом.
func sharedMarks(marks []*model.Mark, neighbour *inlineItem) []*model.Mark {
	var res []*model.Mark
	for _, m := range marks {
		if !expels(m) || (neighbour != nil && m.IsInSet(neighbour.marks)) {
			res = append(res, m)
		}
	}
	return res
}
