package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

func setup(t *testing.T) (*model.Registry, *nodes.Builder) {
	t.Helper()
	reg := nodes.MustSchema()
	return reg, nodes.NewBuilder(reg)
}

func state(t *testing.T, doc *model.Node, anchor, head int) *State {
	t.Helper()
	s, err := WithSelection(doc, Selection{Anchor: anchor, Head: head})
	require.NoError(t, err)
	return s
}

func TestDeleteEmptyFirstParagraph(t *testing.T) {
	_, b := setup(t)

	s := state(t, b.Doc(b.P(), b.H(1, "Title")), 1, 1)
	next, ok := DeleteEmptyFirstParagraph(s)
	require.True(t, ok)
	assert.True(t, b.Doc(b.H(1, "Title")).Eq(next.Doc), next.Doc.String())
	assert.Equal(t, Cursor(1), next.Selection)

	s = state(t, b.Doc(b.P(), b.Blockquote(b.P("q"))), 1, 1)
	next, ok = DeleteEmptyFirstParagraph(s)
	require.True(t, ok)
	assert.Equal(t, Cursor(2), next.Selection)

	s = state(t, b.Doc(b.P(), b.Hr(), b.P("x")), 1, 1)
	next, ok = DeleteEmptyFirstParagraph(s)
	require.True(t, ok)
	assert.Equal(t, Cursor(0), next.Selection)
}

func TestDeleteEmptyFirstParagraphNoop(t *testing.T) {
	_, b := setup(t)

	tests := []struct {
		name string
		doc  *model.Node
		sel  Selection
	}{
		{"only block", b.Doc(b.P()), Cursor(1)},
		{"paragraph has text", b.Doc(b.P("a"), b.P("b")), Cursor(1)},
		{"paragraph has hard break", b.Doc(b.P(b.Br()), b.P("b")), Cursor(1)},
		{"first block is heading", b.Doc(b.H(1), b.P("b")), Cursor(1)},
		{"cursor not at start", b.Doc(b.P(), b.P("b")), Cursor(3)},
		{"cursor before document", b.Doc(b.P(), b.P("b")), Cursor(0)},
		{"range selection", b.Doc(b.P(), b.P("b")), Selection{Anchor: 1, Head: 4}},
		{"empty paragraph inside quote", b.Doc(b.Blockquote(b.P()), b.P("b")), Cursor(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := state(t, tt.doc, tt.sel.Anchor, tt.sel.Head)
			next, ok := DeleteEmptyFirstParagraph(s)
			assert.False(t, ok)
			assert.Same(t, s, next)
			assert.True(t, tt.doc.Eq(next.Doc))
		})
	}
}

func TestSetBlockType(t *testing.T) {
	reg, b := setup(t)
	paragraph := reg.MustGet(nodes.NameParagraph)
	heading := reg.MustGet(nodes.NameHeading)
	code := reg.MustGet(nodes.NameCodeBlock)

	tests := []struct {
		name  string
		doc   *model.Node
		sel   Selection
		typ   *model.NodeType
		attrs model.Attrs
		want  *model.Node
	}{
		{
			"heading to paragraph",
			b.Doc(b.H(2, "a", b.Strong("b"))),
			Cursor(2),
			paragraph, nil,
			b.Doc(b.P("a", b.Strong("b"))),
		},
		{
			"paragraph to heading keeps other blocks",
			b.Doc(b.P("a"), b.P("b")),
			Cursor(1),
			heading, model.Attrs{"level": 3},
			b.Doc(b.H(3, "a"), b.P("b")),
		},
		{
			"range covers two blocks",
			b.Doc(b.P("a"), b.P("b"), b.P("c")),
			Selection{Anchor: 1, Head: 4},
			heading, model.Attrs{"level": 1},
			b.Doc(b.H(1, "a"), b.H(1, "b"), b.P("c")),
		},
		{
			"code block drops marks and inline nodes",
			b.Doc(b.P(b.Strong("a"), b.Br(), "b", b.Img("/x.png"))),
			Cursor(1),
			code, nil,
			b.Doc(b.Code("", "a\nb")),
		},
		{
			"nested textblock",
			b.Doc(b.Ul(b.Li(b.P("a"), b.P("b")))),
			Cursor(6),
			heading, model.Attrs{"level": 2},
			b.Doc(b.Ul(b.Li(b.P("a"), b.H(2, "b")))),
		},
		{
			"list item requires paragraph first",
			b.Doc(b.Ul(b.Li(b.P("a"), b.P("b")))),
			Selection{Anchor: 3, Head: 7},
			heading, model.Attrs{"level": 2},
			b.Doc(b.Ul(b.Li(b.P("a"), b.H(2, "b")))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := SetBlockType(tt.typ, tt.attrs)(state(t, tt.doc, tt.sel.Anchor, tt.sel.Head))
			require.True(t, ok)
			assert.True(t, tt.want.Eq(next.Doc), "want %s\ngot  %s", tt.want, next.Doc)
		})
	}
}

func TestSetBlockTypeNoop(t *testing.T) {
	reg, b := setup(t)
	heading := reg.MustGet(nodes.NameHeading)

	s := state(t, b.Doc(b.H(2, "a")), 1, 1)
	next, ok := SetBlockType(heading, model.Attrs{"level": 2})(s)
	assert.False(t, ok)
	assert.Same(t, s, next)

	next, ok = SetBlockType(heading, model.Attrs{"level": 9})(s)
	assert.False(t, ok)
	assert.Same(t, s, next)

	next, ok = SetBlockType(reg.MustGet(nodes.NameBlockquote), nil)(s)
	assert.False(t, ok)
	assert.Same(t, s, next)

	s = state(t, b.Doc(b.Hr(), b.P("a")), 0, 0)
	_, ok = SetBlockType(heading, model.Attrs{"level": 1})(s)
	assert.False(t, ok)
}

func TestChain(t *testing.T) {
	reg, b := setup(t)
	never := func(s *State) (*State, bool) { return s, false }

	s := state(t, b.Doc(b.H(1, "a")), 1, 1)
	next, ok := Chain(never, Paragraph(reg))(s)
	require.True(t, ok)
	assert.True(t, b.Doc(b.P("a")).Eq(next.Doc))

	next, ok = Chain(never, never)(s)
	assert.False(t, ok)
	assert.Same(t, s, next)
}

func TestParagraphKeymap(t *testing.T) {
	reg, b := setup(t)
	keys := ParagraphKeymap(reg)

	s := state(t, b.Doc(b.H(1, "a")), 1, 1)
	next, ok := keys.Handle("Ctrl-Shift-0", s)
	require.True(t, ok)
	assert.True(t, b.Doc(b.P("a")).Eq(next.Doc))

	s = state(t, b.Doc(b.P(), b.P("b")), 1, 1)
	next, ok = keys.Handle("Backspace", s)
	require.True(t, ok)
	assert.True(t, b.Doc(b.P("b")).Eq(next.Doc))

	_, ok = keys.Handle("Enter", s)
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	reg, b := setup(t)
	var calls []string
	record := func(name string, applies bool) Command {
		return func(s *State) (*State, bool) {
			calls = append(calls, name)
			return s, applies
		}
	}

	keys := Merge(NewKeymap(map[string]Command{"Backspace": record("first", false)}), ParagraphKeymap(reg))
	s := state(t, b.Doc(b.P(), b.P("b")), 1, 1)
	_, ok := keys.Handle("Backspace", s)
	assert.True(t, ok)
	assert.Equal(t, []string{"first"}, calls)
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"Shift-Ctrl-0": "Ctrl-Shift-0",
		"Mod-b":        "Ctrl-b",
		"Cmd-Alt-x":    "Alt-Meta-x",
		"Backspace":    "Backspace",
		"Ctrl--":       "Ctrl--",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestStartOf(t *testing.T) {
	_, b := setup(t)

	assert.Equal(t, 1, StartOf(b.Doc(b.P("a"))))
	assert.Equal(t, 3, StartOf(b.Doc(b.Ul(b.Li(b.P("a"))))))
	assert.Equal(t, 0, StartOf(b.Doc(b.Hr(), b.P())))
	assert.Equal(t, Cursor(1), NewState(b.Doc(b.P())).Selection)
}

func TestWithSelection(t *testing.T) {
	_, b := setup(t)

	_, err := WithSelection(b.Doc(b.P("ab")), Cursor(5))
	assert.Error(t, err)
}
