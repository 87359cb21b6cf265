package nodes

import (
	"slices"
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
)

// AttrInfo - описание атрибута для документации и API.
type AttrInfo struct {
	Name      string `json:"name"`
	Default   any    `json:"default"`
	Required  bool   `json:"required,omitempty"`
	Extension bool   `json:"extension,omitempty"`
}

// TypeInfo - описание типа узла или марки.
type TypeInfo struct {
	Name    string     `json:"name"`
	Group   string     `json:"group,omitempty"`
	Content string     `json:"content,omitempty"`
	Marks   *string    `json:"marks,omitempty"`
	Inline  bool       `json:"inline,omitempty"`
	Atom    bool       `json:"atom,omitempty"`
	Code    bool       `json:"code,omitempty"`
	Token   string     `json:"markdown_token,omitempty"`
	Attrs   []AttrInfo `json:"attrs,omitempty"`
}

// SchemaInfo - описание реестра: типы узлов и марок в порядке регистрации.
type SchemaInfo struct {
	Nodes []TypeInfo `json:"nodes"`
	Marks []TypeInfo `json:"marks"`
}

// Describe описывает типы реестра.
func Describe(reg *model.Registry) SchemaInfo {
	var info SchemaInfo
	for _, t := range reg.NodeTypes() {
		spec := t.Spec()
		info.Nodes = append(info.Nodes, TypeInfo{
			Name:    spec.Name,
			Group:   spec.Group,
			Content: spec.Content,
			Marks:   spec.Marks,
			Inline:  spec.Inline,
			Atom:    spec.Atom,
			Code:    spec.Code,
			Token:   spec.ParseMarkdown.Token,
			Attrs:   describeAttrs(spec.Attrs),
		})
	}
	for _, t := range reg.MarkTypes() {
		spec := t.Spec()
		info.Marks = append(info.Marks, TypeInfo{
			Name:  spec.Name,
			Group: spec.Group,
			Attrs: describeAttrs(spec.Attrs),
		})
	}
	return info
}

func describeAttrs(specs map[string]model.AttributeSpec) []AttrInfo {
	if len(specs) == 0 {
		return nil
	}
	res := make([]AttrInfo, 0, len(specs))
	for name, spec := range specs {
		res = append(res, AttrInfo{Name: name, Default: spec.Default, Required: spec.Required, Extension: spec.Extension})
	}
	slices.SortFunc(res, func(a, b AttrInfo) int { return strings.Compare(a.Name, b.Name) })
	return res
}
