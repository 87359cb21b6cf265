// Пакет embed сопоставляет ссылки со встраиваемыми провайдерами и строит для них iframe.
package embed

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Match - ссылка, совпавшая с шаблоном провайдера. Matches - группы регулярного выражения.
type Match struct {
	Href    string
	Matches []string
}

// Frame описывает iframe встраиваемого содержимого.
type Frame struct {
	Src          string
	CanonicalURL string
	Title        string
	Icon         string
	Border       bool
}

// Provider - провайдер встраиваемого содержимого.
type Provider struct {
	Name     string
	Patterns []*regexp.Regexp
	Render   func(m Match) Frame
}

// Registry хранит провайдеров в порядке регистрации.
type Registry struct {
	providers []Provider
}

// NewRegistry создает реестр с переданными провайдерами.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// DefaultRegistry - реестр со встроенными провайдерами.
func DefaultRegistry() *Registry {
	return NewRegistry(GoogleSlides)
}

// Register добавляет провайдера в конец списка.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// Match возвращает первого провайдера, один из шаблонов которого совпал со ссылкой.
func (r *Registry) Match(href string) (Provider, Match, bool) {
	href = strings.TrimSpace(href)
	for _, p := range r.providers {
		for _, re := range p.Patterns {
			if m := re.FindStringSubmatch(href); m != nil {
				return p, Match{Href: href, Matches: m}, true
			}
		}
	}
	return Provider{}, Match{}, false
}

// Render строит iframe для ссылки. false - ни один провайдер не подошел.
func (r *Registry) Render(href string) (Frame, bool) {
	p, m, ok := r.Match(href)
	if !ok {
		return Frame{}, false
	}
	return p.Render(m), true
}

// Node возвращает iframe как узел DOM.
func (f Frame) Node() *html.Node {
	attrs := []html.Attribute{
		{Key: "src", Val: f.Src},
		{Key: "title", Val: f.Title},
		{Key: "data-canonical-url", Val: f.CanonicalURL},
		{Key: "allowfullscreen", Val: ""},
	}
	if f.Icon != "" {
		attrs = append(attrs, html.Attribute{Key: "data-icon", Val: f.Icon})
	}
	if f.Border {
		attrs = append(attrs, html.Attribute{Key: "class", Val: "embed-border"})
	}
	return &html.Node{Type: html.ElementNode, DataAtom: atom.Iframe, Data: "iframe", Attr: attrs}
}

// HTML возвращает разметку iframe.
func (f Frame) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, f.Node()); err != nil {
		return "", err
	}
	return buf.String(), nil
}
