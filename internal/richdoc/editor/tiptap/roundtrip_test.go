package tiptap

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

func TestRoundTrip(t *testing.T) {
	reg, b := setup(t)

	docs := []*model.Node{
		b.Doc(b.P()),
		b.Doc(b.P(model.Attrs{"dir": "rtl", "textAlign": "right"}, "text ", b.Strong("bold"), b.Em(" em"))),
		b.Doc(b.H(3, "Title"), b.Blockquote(b.P("quote"), b.P())),
		b.Doc(b.Code("", "line 1\nline 2")),
		b.Doc(b.Ul(b.Li(b.P("a")), b.Li(b.P("b"), b.Ol(model.Attrs{"order": 5}, b.Li(b.P("c")))))),
		b.Doc(b.Tasks(b.Task(false, b.P("todo")), b.Task(true, b.P("done")))),
		b.Doc(b.Table(b.Tr(b.Th(b.P("h"))), b.Tr(b.Td(b.P())))),
		b.Doc(b.P(b.CodeText("x"), b.Strike("y"), b.A("/p", "z"), b.Br(), b.Img("/i.png")), b.Hr()),
		b.Doc(b.Node(nodes.NameUnknownBlock, model.Attrs{"html": "<iframe></iframe>"})),
	}
	for _, doc := range docs {
		t.Run(doc.String(), func(t *testing.T) {
			out, err := Serialize(doc)
			require.NoError(t, err)

			parsed, err := ParseJSON(reg, bytes.NewReader(out))
			require.NoError(t, err)
			assert.True(t, doc.Eq(parsed), "json %s\nwant %s\ngot  %s", out, doc, parsed)
		})
	}
}

func TestContent(t *testing.T) {
	reg, b := setup(t)
	doc := b.Doc(b.H(1, "Title"), b.P("body"))

	var _ driver.Valuer = Content{}

	v, err := Content{Doc: doc}.Value()
	require.NoError(t, err)
	s, ok := v.(string)
	require.True(t, ok)

	var fromString, fromBytes Content
	require.NoError(t, fromString.Scan(s))
	require.NoError(t, fromBytes.Scan([]byte(s)))
	assert.Nil(t, fromString.Doc)
	require.NoError(t, fromString.Decode(reg))
	require.NoError(t, fromBytes.Decode(reg))
	assert.True(t, doc.Eq(fromString.Doc))
	assert.True(t, doc.Eq(fromBytes.Doc))

	var null Content
	require.NoError(t, null.Scan(nil))
	require.NoError(t, null.Decode(reg))
	assert.True(t, b.Doc(b.P()).Eq(null.Doc))

	assert.Error(t, null.Scan(42))

	out, err := Content{}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"doc"}`, string(out))
}

func TestContentDecodeUsesRegistry(t *testing.T) {
	reg, b := setup(t)
	doc := b.Doc(b.P("text"))
	data, err := json.Marshal(struct {
		Content Content `json:"content"`
	}{Content{Doc: doc}})
	require.NoError(t, err)

	var got struct {
		Content Content `json:"content"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	require.NoError(t, got.Content.Decode(reg))
	assert.True(t, doc.Eq(got.Content.Doc))
	assert.Same(t, reg.MustGet(nodes.NameParagraph), got.Content.Doc.FirstChild().Type())

	again, err := json.Marshal(got.Content)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"text"}]}]}`, string(again))

	other := nodes.MustSchema()
	require.NoError(t, got.Content.Decode(other))
	assert.Same(t, other.MustGet(nodes.NameParagraph), got.Content.Doc.FirstChild().Type())

	var broken Content
	require.NoError(t, broken.Scan(`{"type":"nope"`))
	assert.Error(t, broken.Decode(reg))
}
