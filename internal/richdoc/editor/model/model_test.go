package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	specs := []NodeSpec{
		{Name: "doc", Content: "block+"},
		{Name: "paragraph", Content: "inline*", Group: "block", Attrs: map[string]AttributeSpec{
			"textAlign": {Default: nil, Validate: OneOf("left", "center", "right", "justify"), Extension: true},
		}},
		{Name: "heading", Content: "inline*", Group: "block", Attrs: map[string]AttributeSpec{
			"level": {Default: 1, Validate: IntRange(1, 6)},
		}},
		{Name: "code_block", Content: "text*", Group: "block", Code: true, Marks: Set("")},
		{Name: "list", Content: "item+", Group: "block"},
		{Name: "item", Content: "paragraph block*"},
		{Name: "image", Group: "inline", Inline: true, Attrs: map[string]AttributeSpec{
			"src": {Required: true, Validate: IsString},
		}},
		{Name: "text", Group: "inline", Inline: true},
	}
	for _, s := range specs {
		_, err := r.Register(s)
		require.NoError(t, err)
	}
	_, err := r.RegisterMark(MarkSpec{Name: "strong"})
	require.NoError(t, err)
	_, err = r.RegisterMark(MarkSpec{Name: "em"})
	require.NoError(t, err)
	_, err = r.RegisterMark(MarkSpec{Name: "code", Excludes: Set("_")})
	require.NoError(t, err)
	require.NoError(t, r.Check())
	return r
}

func text(t *testing.T, r *Registry, s string, marks ...string) *Node {
	t.Helper()
	var ms []*Mark
	for _, name := range marks {
		mt, err := r.Mark(name)
		require.NoError(t, err)
		m, err := mt.Create(nil)
		require.NoError(t, err)
		ms = append(ms, m)
	}
	n, err := r.Text(s, ms...)
	require.NoError(t, err)
	return n
}

func node(t *testing.T, r *Registry, name string, attrs Attrs, content ...*Node) *Node {
	t.Helper()
	n, err := r.MustGet(name).Create(attrs, content, nil)
	require.NoError(t, err)
	return n
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(NodeSpec{Name: "paragraph", Content: "text*"})
	require.NoError(t, err)

	_, err = r.Register(NodeSpec{Name: "paragraph"})
	var dup *DuplicateTypeError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "paragraph", dup.Name)
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("video")
	var unknown *UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "video", unknown.Name)
}

func TestInvalidContentExpression(t *testing.T) {
	tests := []string{
		"block+)",
		"(block",
		"block{2",
		"block{3,1}",
		"block{a}",
		"+",
		"block |",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Register(NodeSpec{Name: "doc", Content: expr})
			var invalid *InvalidContentExpressionError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, "doc", invalid.Type)
		})
	}
}

func TestCheckUnresolvedName(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(NodeSpec{Name: "doc", Content: "section+"})
	require.NoError(t, err)

	var unknown *UnknownTypeError
	require.True(t, errors.As(r.Check(), &unknown))
	assert.Equal(t, "section", unknown.Name)
}

func TestContentMatch(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		_, err := r.Register(NodeSpec{Name: name, Group: "letter"})
		require.NoError(t, err)
	}

	tests := []struct {
		expr  string
		input string
		want  bool
	}{
		{"", "", true},
		{"", "a", false},
		{"a*", "", true},
		{"a*", "aaa", true},
		{"a*", "ab", false},
		{"a+", "", false},
		{"a+", "aa", true},
		{"a?", "", true},
		{"a?", "aa", false},
		{"a b c", "abc", true},
		{"a b c", "ab", false},
		{"(a|b)+", "abba", true},
		{"(a|b)+", "abc", false},
		{"a{2}", "aa", true},
		{"a{2}", "aaa", false},
		{"a{1,3}", "aaa", true},
		{"a{1,3}", "aaaa", false},
		{"a{2,}", "a", false},
		{"a{2,}", "aaaaa", true},
		{"letter+", "cab", true},
		{"a letter*", "acb", true},
		{"a letter*", "bca", false},
		{"(a b)* c", "ababc", true},
		{"(a b)* c", "abac", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr+"/"+tt.input, func(t *testing.T) {
			expr, err := parseContentExpr("x", tt.expr)
			require.NoError(t, err)
			match, err := compileContent(expr, r.resolveNodeName)
			require.NoError(t, err)

			var types []*NodeType
			for _, ch := range tt.input {
				types = append(types, r.MustGet(string(ch)))
			}
			assert.Equal(t, tt.want, match.Matches(types))
		})
	}
}

func TestCreateFillsDefaults(t *testing.T) {
	r := testRegistry(t)

	h := node(t, r, "heading", nil)
	assert.Equal(t, Attrs{"level": 1}, h.Attrs())

	p := node(t, r, "paragraph", nil)
	assert.Equal(t, Attrs{"textAlign": nil}, p.Attrs())

	h = node(t, r, "heading", Attrs{"level": float64(3)})
	assert.Equal(t, 3, h.Attr("level"))
}

func TestCreateAttributeErrors(t *testing.T) {
	r := testRegistry(t)

	_, err := r.MustGet("heading").Create(Attrs{"level": 7}, nil, nil)
	var invalid *InvalidAttributeError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "level", invalid.Attr)

	_, err = r.MustGet("paragraph").Create(Attrs{"color": "red"}, nil, nil)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "color", invalid.Attr)

	_, err = r.MustGet("image").Create(nil, nil, nil)
	var missing *MissingAttributeError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "src", missing.Attr)
}

func TestCreateContentErrors(t *testing.T) {
	r := testRegistry(t)

	_, err := r.MustGet("doc").Create(nil, nil, nil)
	var invalid *InvalidContentError
	require.True(t, errors.As(err, &invalid))

	_, err = r.MustGet("item").Create(nil, []*Node{node(t, r, "heading", nil)}, nil)
	require.True(t, errors.As(err, &invalid))

	_, err = r.MustGet("code_block").Create(nil, []*Node{text(t, r, "x", "strong")}, nil)
	require.True(t, errors.As(err, &invalid))

	_, err = r.Text("")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestCreateJoinsText(t *testing.T) {
	r := testRegistry(t)
	p := node(t, r, "paragraph", nil, text(t, r, "ab"), text(t, r, "cd"), text(t, r, "ef", "strong"))
	require.Equal(t, 2, p.ChildCount())
	assert.Equal(t, "abcd", p.Child(0).Text())
	assert.Equal(t, `paragraph("abcd", strong("ef"))`, p.String())
}

func TestMarkSet(t *testing.T) {
	r := testRegistry(t)
	strong, _ := r.Mark("strong")
	em, _ := r.Mark("em")
	code, _ := r.Mark("code")
	s, _ := strong.Create(nil)
	e, _ := em.Create(nil)
	c, _ := code.Create(nil)

	set := MarkSet([]*Mark{e, s, e})
	require.Len(t, set, 2)
	assert.Equal(t, "strong", set[0].Type().Name())
	assert.Equal(t, "em", set[1].Type().Name())

	set = c.AddToSet(set)
	require.Len(t, set, 1)
	assert.Equal(t, "code", set[0].Type().Name())

	assert.Len(t, s.AddToSet(set), 1, "code excludes everything")
	assert.Empty(t, c.RemoveFromSet(set))
}

func TestNodeSizeAndResolve(t *testing.T) {
	r := testRegistry(t)
	// doc(paragraph("ab"), list(item(paragraph("cd"))))
	doc := node(t, r, "doc", nil,
		node(t, r, "paragraph", nil, text(t, r, "ab")),
		node(t, r, "list", nil, node(t, r, "item", nil, node(t, r, "paragraph", nil, text(t, r, "cd")))),
	)
	assert.Equal(t, 4, doc.Child(0).NodeSize())
	assert.Equal(t, 8, doc.Child(1).NodeSize())
	assert.Equal(t, 12, doc.ContentSize())

	tests := []struct {
		pos          int
		depth        int
		parent       string
		parentOffset int
		start        int
	}{
		{0, 0, "doc", 0, 0},
		{1, 1, "paragraph", 0, 1},
		{2, 1, "paragraph", 1, 1},
		{3, 1, "paragraph", 2, 1},
		{4, 0, "doc", 4, 0},
		{5, 1, "list", 0, 5},
		{7, 3, "paragraph", 0, 7},
		{9, 3, "paragraph", 2, 7},
		{12, 0, "doc", 12, 0},
	}
	for _, tt := range tests {
		rp, err := doc.Resolve(tt.pos)
		require.NoError(t, err)
		assert.Equal(t, tt.depth, rp.Depth(), "pos %d", tt.pos)
		assert.Equal(t, tt.parent, rp.Parent().Type().Name(), "pos %d", tt.pos)
		assert.Equal(t, tt.parentOffset, rp.ParentOffset, "pos %d", tt.pos)
		assert.Equal(t, tt.start, rp.Start(rp.Depth()), "pos %d", tt.pos)
	}

	rp, err := doc.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, "a", rp.NodeBefore().Text())
	assert.Equal(t, "b", rp.NodeAfter().Text())
	assert.Equal(t, 0, rp.Before(1))
	assert.Equal(t, 4, rp.After(1))

	_, err = doc.Resolve(13)
	var posErr *PositionError
	assert.True(t, errors.As(err, &posErr))
}

func TestNodesBetween(t *testing.T) {
	r := testRegistry(t)
	doc := node(t, r, "doc", nil,
		node(t, r, "paragraph", nil, text(t, r, "ab")),
		node(t, r, "heading", nil, text(t, r, "cd")),
		node(t, r, "paragraph", nil, text(t, r, "ef")),
	)

	var visited []string
	doc.NodesBetween(2, 6, func(n *Node, pos int, parent *Node, index int) bool {
		visited = append(visited, n.Type().Name())
		return true
	})
	assert.Equal(t, []string{"paragraph", "text", "heading", "text"}, visited)

	visited = nil
	doc.NodesBetween(1, 1, func(n *Node, pos int, parent *Node, index int) bool {
		visited = append(visited, n.Type().Name())
		return false
	})
	assert.Equal(t, []string{"paragraph"}, visited)
}

func TestEqAndTextContent(t *testing.T) {
	r := testRegistry(t)
	a := node(t, r, "doc", nil, node(t, r, "paragraph", Attrs{"textAlign": "center"}, text(t, r, "x", "em")))
	b := node(t, r, "doc", nil, node(t, r, "paragraph", Attrs{"textAlign": "center"}, text(t, r, "x", "em")))
	c := node(t, r, "doc", nil, node(t, r, "paragraph", nil, text(t, r, "x", "em")))

	assert.True(t, a.Eq(b))
	assert.False(t, a.Eq(c))
	assert.Equal(t, "x", a.TextContent())
	assert.True(t, a.Child(0).IsTextblock())
	assert.False(t, a.IsTextblock())
}
