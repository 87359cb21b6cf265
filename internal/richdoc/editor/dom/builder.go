package dom

import (
	"log/slog"
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// contentBuilder накапливает содержимое одного узла. В блочном контейнере строчные узлы
// собираются в неявный абзац.
type contentBuilder struct {
	p         *Parser
	container *model.NodeType
	blocks    []*model.Node
	run       []*model.Node
}

func (b *contentBuilder) inline() bool {
	return b.container.InlineContent()
}

func (b *contentBuilder) allowedMarks(marks []*model.Mark) []*model.Mark {
	target := b.container
	if !b.inline() {
		target = b.p.paragraph
	}
	return target.AllowedMarks(marks)
}

func (b *contentBuilder) addText(text string, marks []*model.Mark) {
	if !b.container.IsCode() {
		text = whitespace.ReplaceAllString(text, " ")
		if strings.HasPrefix(text, " ") && b.endsWithSpace() {
			text = text[1:]
		}
	}
	if text == "" {
		return
	}
	n, err := b.p.reg.Text(text, b.allowedMarks(marks)...)
	if err != nil {
		slog.Debug("Skip text", "err", err)
		return
	}
	b.addInline(n)
}

// endsWithSpace - в начале строчного содержимого или после пробела ведущий пробел отбрасывается.
func (b *contentBuilder) endsWithSpace() bool {
	if len(b.run) == 0 {
		return true
	}
	last := b.run[len(b.run)-1]
	if !last.IsText() {
		return last.Type().Name() == "hard_break"
	}
	return strings.HasSuffix(last.Text(), " ")
}

func (b *contentBuilder) addInline(n *model.Node) {
	b.run = append(b.run, n)
}

func (b *contentBuilder) addBlock(n *model.Node) {
	if b.inline() {
		slog.Debug("Drop block in inline content", "type", n.Type().Name(), "parent", b.container.Name())
		return
	}
	b.flushRun()
	b.blocks = append(b.blocks, n)
}

// trimRun убирает завершающие пробелы строчного содержимого.
func (b *contentBuilder) trimRun() []*model.Node {
	run := b.run
	b.run = nil
	if b.container.IsCode() {
		return run
	}
	for len(run) > 0 {
		last := run[len(run)-1]
		if !last.IsText() {
			break
		}
		text := strings.TrimRight(last.Text(), " ")
		if text != "" {
			trimmed, _ := last.WithText(text)
			run[len(run)-1] = trimmed
			break
		}
		run = run[:len(run)-1]
	}
	return run
}

func (b *contentBuilder) flushRun() {
	run := b.trimRun()
	if len(run) == 0 {
		return
	}
	p, err := b.p.paragraph.Create(nil, run, nil)
	if err != nil {
		slog.Warn("Create implicit paragraph", "err", err)
		return
	}
	b.blocks = append(b.blocks, p)
}

func (b *contentBuilder) finish() []*model.Node {
	if b.inline() {
		return b.trimRun()
	}
	b.flushRun()
	return b.blocks
}
