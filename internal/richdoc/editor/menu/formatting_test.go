package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/commands"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

func items(t *testing.T, doc *model.Node, pos int, opts Options) []Item {
	t.Helper()
	s, err := commands.WithSelection(doc, commands.Cursor(pos))
	require.NoError(t, err)
	return FormattingItems(s, opts, English)
}

func names(items []Item) []string {
	var res []string
	for _, it := range Visible(items) {
		res = append(res, it.Name)
	}
	return res
}

func find(items []Item, name string, attrs model.Attrs) Item {
	for _, it := range items {
		if it.Name == name && it.Attrs.Equal(attrs) {
			return it
		}
	}
	return Item{}
}

func TestFormattingItemsVisibility(t *testing.T) {
	b := nodes.NewBuilder(nodes.MustSchema())

	plain := items(t, b.Doc(b.P("text")), 1, Options{})
	assert.Equal(t, []string{
		"strong", "em", "strikethrough", "highlight", "code_inline",
		Separator, "heading", "heading", "heading", "blockquote",
		Separator, "left_to_right", "right_to_left",
		Separator, "align_left", "align_center", "align_right",
		Separator, "checkbox_list", "bullet_list", "ordered_list",
		Separator, "link", "comment",
	}, names(plain))

	codeBlock := items(t, b.Doc(b.Code("", "x")), 1, Options{})
	assert.Equal(t, []string{
		Separator, "left_to_right", "right_to_left",
		Separator, "align_left", "align_center", "align_right",
		"comment",
	}, names(codeBlock))
	assert.Equal(t, "Comment", find(codeBlock, "comment", nil).Label)

	inlineCode := items(t, b.Doc(b.P(b.CodeText("x"))), 2, Options{IsCommentEditor: true})
	assert.Equal(t, []string{
		"code_inline", Separator, "left_to_right", "right_to_left",
		"comment", Separator, "copyToClipboard",
	}, names(inlineCode))
	assert.True(t, find(inlineCode, "code_inline", nil).Active)

	list := items(t, b.Doc(b.Ul(b.Li(b.P("a")))), 3, Options{IsMobile: true, IsTemplate: true})
	visible := names(list)
	assert.Contains(t, visible, "placeholder")
	assert.NotContains(t, visible, "highlight")
	assert.NotContains(t, visible, "heading")
	assert.Contains(t, visible, "outdentList")
	assert.Contains(t, visible, "indentList")
	assert.True(t, find(list, "bullet_list", nil).Active)

	table := items(t, b.Doc(b.Table(b.Tr(b.Td(b.P("c"))))), 4, Options{})
	visible = names(table)
	assert.NotContains(t, visible, "heading")
	assert.NotContains(t, visible, "bullet_list")
	assert.Contains(t, visible, "strong")
}

func TestFormattingItemsActive(t *testing.T) {
	b := nodes.NewBuilder(nodes.MustSchema())

	doc := b.Doc(
		b.H(2, model.Attrs{"dir": "rtl", "textAlign": "center"}, b.Strong("a")),
		b.Blockquote(b.P(b.A("/x", "link"))),
	)
	got := items(t, doc, 1, Options{})
	assert.True(t, find(got, "heading", model.Attrs{"level": 2}).Active)
	assert.False(t, find(got, "heading", model.Attrs{"level": 1}).Active)
	assert.True(t, find(got, "strong", nil).Active)
	assert.True(t, find(got, "right_to_left", nil).Active)
	assert.False(t, find(got, "left_to_right", nil).Active)
	assert.True(t, find(got, "align_center", nil).Active)
	assert.False(t, find(got, "blockquote", nil).Active)
	assert.False(t, find(got, "placeholder", nil).Active)

	got = items(t, doc, 6, Options{})
	quote := find(got, "blockquote", nil)
	assert.True(t, quote.Active)
	assert.Nil(t, quote.Attrs)
	assert.True(t, find(got, "link", model.Attrs{"href": ""}).Active)
}

func TestDictionaryFor(t *testing.T) {
	assert.Equal(t, "Жирный", DictionaryFor("ru").Strong)
	assert.Equal(t, "Bold", DictionaryFor("de").Strong)
}
