package nodes

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

var (
	directions = []string{"ltr", "rtl", "auto"}
	alignments = []string{"left", "center", "right", "justify"}
)

// blockAttrs возвращает атрибуты направления и выравнивания, общие для текстовых блоков.
func blockAttrs(extra map[string]model.AttributeSpec) map[string]model.AttributeSpec {
	attrs := map[string]model.AttributeSpec{
		"dir":       {Default: nil, Validate: model.OneOf(directions...), Extension: true},
		"textAlign": {Default: nil, Validate: model.OneOf(alignments...), Extension: true},
	}
	maps.Copy(attrs, extra)
	return attrs
}

// blockAttrsFromDOM читает dir и text-align. Пустые и неизвестные значения считаются незаданными.
func blockAttrsFromDOM(el model.DOMElement) model.Attrs {
	attrs := model.Attrs{}
	if dir, ok := el.Attr("dir"); ok {
		dir = strings.ToLower(strings.TrimSpace(dir))
		if slices.Contains(directions, dir) {
			attrs["dir"] = dir
		}
	}
	if align := strings.ToLower(el.Style("text-align")); slices.Contains(alignments, align) {
		attrs["textAlign"] = align
	}
	return attrs
}

// blockDOMAttrs - атрибуты dir и style для выходного элемента.
func blockDOMAttrs(n *model.Node) []model.DOMAttr {
	var attrs []model.DOMAttr
	if dir := n.Attrs().String("dir"); dir != "" {
		attrs = append(attrs, model.DOMAttr{Key: "dir", Val: dir})
	}
	if style := InlineStyle(map[string]string{"text-align": n.Attrs().String("textAlign")}); style != "" {
		attrs = append(attrs, model.DOMAttr{Key: "style", Val: style})
	}
	return attrs
}

// InlineStyle собирает значение атрибута style, пропуская пустые свойства.
func InlineStyle(props map[string]string) string {
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(props)) {
		if v := props[k]; v != "" {
			parts = append(parts, k+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}

func attrOrNil(el model.DOMElement, name string) any {
	if v, ok := el.Attr(name); ok && v != "" {
		return v
	}
	return nil
}

func metaOrNil(tok model.MarkdownToken, key string) any {
	if v := tok.Meta[key]; v != "" {
		return v
	}
	return nil
}

func metaInt(tok model.MarkdownToken, key string, def int) int {
	if v, err := strconv.Atoi(tok.Meta[key]); err == nil {
		return v
	}
	return def
}

// precedingSiblings считает подряд идущих предыдущих соседей, удовлетворяющих условию.
func precedingSiblings(w model.MarkdownWriter, match func(n *model.Node) bool) int {
	parent, index := w.Siblings()
	if parent == nil {
		return 0
	}
	count := 0
	for i := index - 1; i >= 0 && match(parent.Child(i)); i-- {
		count++
	}
	return count
}
