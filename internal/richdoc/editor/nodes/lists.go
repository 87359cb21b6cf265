package nodes

import (
	"strconv"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

func isTaskList(el model.DOMElement) bool {
	v, _ := el.Attr("data-type")
	return v == "taskList" || v == "checkbox_list"
}

func isTaskItem(el model.DOMElement) bool {
	v, _ := el.Attr("data-type")
	_, checked := el.Attr("data-checked")
	return v == "taskItem" || v == "checkbox_item" || checked
}

// bulletMarker чередует "-" и "*" у соседних маркированных списков,
// иначе markdown склеит их в один список.
func bulletMarker(w model.MarkdownWriter) string {
	n := precedingSiblings(w, func(n *model.Node) bool {
		name := n.Type().Name()
		return name == NameBulletList || name == NameCheckboxList
	})
	if n%2 == 1 {
		return "* "
	}
	return "- "
}

// CheckboxList - список задач. Регистрируется раньше BulletList: оба разбираются из <ul>.
func CheckboxList() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameCheckboxList,
		Content:  "checkbox_item+",
		Group:    "block list",
		ParseDOM: []model.ParseRule{{Tag: "ul", Match: isTaskList}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "ul", Attrs: []model.DOMAttr{{Key: "data-type", Val: "taskList"}}, Hole: true}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			marker := bulletMarker(w)
			w.RenderList(n, "  ", func(int) string { return marker })
		},
		ParseMarkdown: model.MarkdownRule{Token: "checkbox_list"},
	}
}

// BulletList - маркированный список.
func BulletList() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameBulletList,
		Content:  "list_item+",
		Group:    "block list",
		ParseDOM: []model.ParseRule{{Tag: "ul"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "ul", Hole: true}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			marker := bulletMarker(w)
			w.RenderList(n, "  ", func(int) string { return marker })
		},
		ParseMarkdown: model.MarkdownRule{Token: "bullet_list"},
	}
}

// OrderedList - нумерованный список с начальным номером order.
func OrderedList() model.NodeSpec {
	return model.NodeSpec{
		Name:    NameOrderedList,
		Content: "list_item+",
		Group:   "block list",
		Attrs: map[string]model.AttributeSpec{
			"order": {Default: 1, Validate: model.IntRange(0, 999999999)},
		},
		ParseDOM: []model.ParseRule{{
			Tag: "ol",
			GetAttrs: func(el model.DOMElement) model.Attrs {
				if v, ok := el.Attr("start"); ok {
					if start, err := strconv.Atoi(v); err == nil {
						return model.Attrs{"order": start}
					}
				}
				return nil
			},
		}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			spec := model.DOMSpec{Tag: "ol", Hole: true}
			if order := n.Attrs().Int("order"); order != 1 {
				spec.Attrs = []model.DOMAttr{{Key: "start", Val: strconv.Itoa(order)}}
			}
			return spec
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			delim := "."
			if precedingSiblings(w, func(n *model.Node) bool { return n.Type().Name() == NameOrderedList })%2 == 1 {
				delim = ")"
			}
			start := n.Attrs().Int("order")
			maxWidth := len(strconv.Itoa(start + n.ChildCount() - 1))
			w.RenderList(n, w.Repeat(" ", maxWidth+2), func(i int) string {
				num := strconv.Itoa(start + i)
				return w.Repeat(" ", maxWidth-len(num)) + num + delim + " "
			})
		},
		ParseMarkdown: model.MarkdownRule{
			Token: "ordered_list",
			GetAttrs: func(tok model.MarkdownToken) model.Attrs {
				return model.Attrs{"order": metaInt(tok, "start", 1)}
			},
		},
	}
}

// CheckboxItem - пункт списка задач.
func CheckboxItem() model.NodeSpec {
	return model.NodeSpec{
		Name:    NameCheckboxItem,
		Content: "paragraph block*",
		Attrs: map[string]model.AttributeSpec{
			"checked": {Default: false, Validate: model.IsBool},
		},
		ParseDOM: []model.ParseRule{{
			Tag:   "li",
			Match: isTaskItem,
			GetAttrs: func(el model.DOMElement) model.Attrs {
				v, _ := el.Attr("data-checked")
				return model.Attrs{"checked": v == "true"}
			},
		}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "li", Attrs: []model.DOMAttr{
				{Key: "data-type", Val: "taskItem"},
				{Key: "data-checked", Val: strconv.FormatBool(n.Attrs().Bool("checked"))},
			}, Hole: true}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			if n.Attrs().Bool("checked") {
				w.Write("[x] ")
			} else {
				w.Write("[ ] ")
			}
			w.RenderContent(n)
		},
		ParseMarkdown: model.MarkdownRule{
			Token: "checkbox_item",
			GetAttrs: func(tok model.MarkdownToken) model.Attrs {
				return model.Attrs{"checked": tok.Meta["checked"] == "true"}
			},
		},
	}
}

// ListItem - пункт маркированного или нумерованного списка.
func ListItem() model.NodeSpec {
	return model.NodeSpec{
		Name:     NameListItem,
		Content:  "paragraph block*",
		ParseDOM: []model.ParseRule{{Tag: "li"}},
		ToDOM: func(n *model.Node) model.DOMSpec {
			return model.DOMSpec{Tag: "li", Hole: true}
		},
		ToMarkdown: func(w model.MarkdownWriter, n *model.Node) {
			w.RenderContent(n)
		},
		ParseMarkdown: model.MarkdownRule{Token: "list_item"},
	}
}
