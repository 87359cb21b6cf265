// Пакет convert преобразует документы между markdown, HTML и TipTap JSON.
//
// Основные возможности:
//   - Разбор входного документа в дерево узлов реестра.
//   - Вывод дерева в любой из поддерживаемых форматов.
//   - Очистка входного HTML политикой bluemonday и сжатие выходного HTML.
//   - Учет преобразований в метриках.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/dom"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/markdown"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/tiptap"
	"github.com/aisa-it/richdoc/internal/richdoc/metrics"
)

type Format string

const (
	Markdown Format = "markdown"
	HTML     Format = "html"
	JSON     Format = "json"
)

// Formats - поддерживаемые форматы.
var Formats = []Format{Markdown, HTML, JSON}

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyContent      = errors.New("content is empty")
)

// FormatError - неизвестный формат. errors.Is(err, ErrUnsupportedFormat) для нее истинно.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported format %q", e.Format)
}

func (e *FormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// ParseError - ошибка разбора входного документа.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseFormat проверяет имя формата. Допускаются синонимы md и tiptap.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return Markdown, nil
	case "html", "htm":
		return HTML, nil
	case "json", "tiptap":
		return JSON, nil
	}
	return "", &FormatError{Format: s}
}

// Options - параметры одного преобразования.
type Options struct {
	// Sanitize очищает входной HTML перед разбором.
	Sanitize bool
	// Minify сжимает выходной HTML.
	Minify bool
}

// Converter хранит парсеры и сериализаторы одного реестра. Безопасен для конкурентного использования.
type Converter struct {
	reg     *model.Registry
	mdIn    *markdown.Parser
	mdOut   *markdown.Serializer
	htmlIn  *dom.Parser
	htmlOut *dom.Serializer
	metrics *metrics.Metrics
}

// New создает Converter. Параметры markdown применяются и к разбору, и к выводу.
func New(reg *model.Registry, m *metrics.Metrics, mdOpts ...markdown.Option) (*Converter, error) {
	mdIn, err := markdown.NewParser(reg, mdOpts...)
	if err != nil {
		return nil, fmt.Errorf("markdown parser: %w", err)
	}
	htmlIn, err := dom.NewParser(reg)
	if err != nil {
		return nil, fmt.Errorf("dom parser: %w", err)
	}
	return &Converter{
		reg:     reg,
		mdIn:    mdIn,
		mdOut:   markdown.NewSerializer(reg, mdOpts...),
		htmlIn:  htmlIn,
		htmlOut: dom.NewSerializer(reg),
		metrics: m,
	}, nil
}

// Registry - реестр, по которому строятся документы.
func (c *Converter) Registry() *model.Registry { return c.reg }

// Parse строит документ из src в формате from.
func (c *Converter) Parse(from Format, src []byte, opts Options) (*model.Node, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, ErrEmptyContent
	}

	var (
		doc *model.Node
		err error
	)
	switch from {
	case Markdown:
		doc, err = c.mdIn.Parse(string(src))
	case HTML:
		s := string(src)
		if opts.Sanitize {
			s = dom.Sanitize(s)
		}
		doc, err = c.htmlIn.ParseString(s)
	case JSON:
		doc, err = tiptap.ParseJSON(c.reg, bytes.NewReader(src))
	default:
		return nil, &FormatError{Format: string(from)}
	}
	if err != nil {
		return nil, &ParseError{Format: from, Err: err}
	}
	return doc, nil
}

// Render выводит документ в формате to.
func (c *Converter) Render(to Format, doc *model.Node, opts Options) ([]byte, error) {
	switch to {
	case Markdown:
		return []byte(c.mdOut.Serialize(doc)), nil
	case HTML:
		out, err := c.htmlOut.RenderHTML(doc)
		if err != nil {
			return nil, err
		}
		if opts.Minify {
			if out, err = dom.Minify(out); err != nil {
				return nil, err
			}
		}
		return []byte(out), nil
	case JSON:
		return tiptap.Serialize(doc)
	}
	return nil, &FormatError{Format: string(to)}
}

// Convert разбирает src в формате from и выводит в формате to.
func (c *Converter) Convert(from, to Format, src []byte, opts Options) (out []byte, err error) {
	defer func(started time.Time) {
		c.metrics.ObserveConversion(string(from), string(to), started, err)
	}(time.Now())

	doc, err := c.Parse(from, src, opts)
	if err != nil {
		return nil, err
	}
	return c.Render(to, doc, opts)
}
