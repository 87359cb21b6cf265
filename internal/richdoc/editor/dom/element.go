package dom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// StyleReader читает значение CSS-свойства элемента. Пустая строка - свойство не задано.
type StyleReader func(el *html.Node, property string) string

// InlineStyleReader читает свойства из атрибута style.
func InlineStyleReader(el *html.Node, property string) string {
	for _, style := range parseStyles(strings.Split(getAttrValue("style", el.Attr), ";")) {
		if style.Key == property {
			return style.Val
		}
	}
	return ""
}

// element - model.DOMElement поверх узла html.
type element struct {
	node   *html.Node
	styles StyleReader
}

var _ model.DOMElement = (*element)(nil)

func (e *element) Tag() string {
	return strings.ToLower(e.node.Data)
}

func (e *element) Attr(name string) (string, bool) {
	for _, attr := range e.node.Attr {
		if attr.Namespace == "" && attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

func (e *element) Style(property string) string {
	return strings.TrimSpace(e.styles(e.node, property))
}

func (e *element) TextContent() string {
	return textContent(e.node)
}

func (e *element) ChildElements() []model.DOMElement {
	var res []model.DOMElement
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			res = append(res, &element{node: c, styles: e.styles})
		}
	}
	return res
}

func textContent(node *html.Node) string {
	var sb strings.Builder
	iterNodes(node, func(child *html.Node) bool {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
		return false
	})
	return sb.String()
}

func iterNodes(node *html.Node, f func(child *html.Node) bool) {
	if f(node) {
		return
	}
	for p := node.FirstChild; p != nil; p = p.NextSibling {
		iterNodes(p, f)
	}
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// parseStyles разбирает объявления "ключ: значение". Объявления без значения пропускаются.
func parseStyles(raw []string) []html.Attribute {
	var res []html.Attribute
	for _, styleRaw := range raw {
		key, val, ok := strings.Cut(styleRaw, ":")
		if !ok {
			continue
		}
		style := html.Attribute{
			Key: strings.ToLower(strings.TrimSpace(key)),
			Val: strings.TrimSpace(val),
		}
		if style.Key == "" || style.Val == "" {
			continue
		}
		res = append(res, style)
	}
	return res
}

func findElementByTagName(rootNode *html.Node, tagName string) *html.Node {
	var el *html.Node
	iterNodes(rootNode, func(child *html.Node) bool {
		if el != nil {
			return true
		}
		if child.Type == html.ElementNode && child.Data == tagName {
			el = child
			return true
		}
		return false
	})
	return el
}

func getBody(rootNode *html.Node) *html.Node {
	return findElementByTagName(rootNode, "body")
}
