package nodes

import (
	"errors"
	"testing"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	reg, err := NewSchema()
	require.NoError(t, err)

	var names []string
	for _, nt := range reg.NodeTypes() {
		names = append(names, nt.Name())
	}
	assert.Equal(t, len(NodeSpecs()), len(names))
	assert.Less(t, indexOf(names, NameCheckboxList), indexOf(names, NameBulletList))
	assert.Less(t, indexOf(names, NameCheckboxItem), indexOf(names, NameListItem))

	p := reg.MustGet(NameParagraph)
	assert.True(t, p.IsTextblock())
	assert.True(t, p.InGroup("block"))

	cb := reg.MustGet(NameCodeBlock)
	assert.True(t, cb.IsCode())
	strong, _ := reg.Mark(MarkStrong)
	assert.False(t, cb.AllowsMarkType(strong))
	assert.True(t, p.AllowsMarkType(strong))
}

func TestRegisterTwice(t *testing.T) {
	reg, err := NewSchema()
	require.NoError(t, err)

	_, err = reg.Register(Paragraph())
	var dup *model.DuplicateTypeError
	assert.True(t, errors.As(err, &dup))
}

func TestDefaults(t *testing.T) {
	b := NewBuilder(MustSchema())

	tests := []struct {
		name string
		node *model.Node
		want model.Attrs
	}{
		{"paragraph", b.P(), model.Attrs{"dir": nil, "textAlign": nil}},
		{"heading", b.Node(NameHeading), model.Attrs{"level": 1, "dir": nil, "textAlign": nil}},
		{"blockquote", b.Blockquote(b.P()), model.Attrs{}},
		{"ordered_list", b.Ol(b.Li(b.P())), model.Attrs{"order": 1}},
		{"checkbox_item", b.Node(NameCheckboxItem, b.P()), model.Attrs{"checked": false}},
		{"code_block", b.Code("", ""), model.Attrs{"language": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.Attrs())
		})
	}
}

func TestInvalidAttrs(t *testing.T) {
	reg := MustSchema()

	_, err := reg.MustGet(NameParagraph).Create(model.Attrs{"textAlign": "middle"}, nil, nil)
	var invalid *model.InvalidAttributeError
	assert.True(t, errors.As(err, &invalid))

	_, err = reg.MustGet(NameBlockquote).Create(model.Attrs{"level": 2}, nil, nil)
	assert.True(t, errors.As(err, &invalid), "blockquote declares no attributes")

	_, err = reg.MustGet(NameImage).Create(nil, nil, nil)
	var missing *model.MissingAttributeError
	assert.True(t, errors.As(err, &missing))
}

func TestContentRules(t *testing.T) {
	reg := MustSchema()
	b := NewBuilder(reg)

	_, err := reg.MustGet(NameListItem).Create(nil, []*model.Node{b.Code("", "x")}, nil)
	assert.Error(t, err, "list item must start with a paragraph")

	_, err = reg.MustGet(NameTableCell).Create(nil, []*model.Node{b.P(), b.P()}, nil)
	assert.Error(t, err, "table cell holds exactly one paragraph")

	_, err = reg.MustGet(NameCheckboxList).Create(nil, []*model.Node{b.Li(b.P())}, nil)
	assert.Error(t, err)

	_, err = reg.MustGet(NameTableRow).Create(nil, []*model.Node{b.Th(b.P()), b.Td(b.P())}, nil)
	assert.NoError(t, err)
}

func TestEmptyDocument(t *testing.T) {
	reg := MustSchema()
	doc, err := EmptyDocument(reg)
	require.NoError(t, err)
	assert.Equal(t, "doc(paragraph)", doc.String())
	assert.Equal(t, 2, doc.ContentSize())
}

func TestIsBlank(t *testing.T) {
	b := NewBuilder(MustSchema())

	assert.True(t, IsBlank(b.P()))
	assert.True(t, IsBlank(b.P("  ")))
	assert.True(t, IsBlank(b.P(b.Br(), " ")))
	assert.False(t, IsBlank(b.P("x")))
	assert.False(t, IsBlank(b.P(b.Img("a.png"))))
}

func TestInlineStyle(t *testing.T) {
	assert.Equal(t, "", InlineStyle(map[string]string{"text-align": ""}))
	assert.Equal(t, "color: red; text-align: center", InlineStyle(map[string]string{"text-align": "center", "color": "red"}))
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
