package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/commands"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/markdown"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
	"github.com/aisa-it/richdoc/internal/richdoc/metrics"
)

func setup(t *testing.T) (*model.Registry, *nodes.Builder) {
	t.Helper()
	reg := nodes.MustSchema()
	return reg, nodes.NewBuilder(reg)
}

func heading(reg *model.Registry, level int) commands.Command {
	return commands.SetBlockType(reg.MustGet(nodes.NameHeading), model.Attrs{"level": level})
}

func TestApplyUndoRedo(t *testing.T) {
	reg, b := setup(t)
	s, err := New(b.Doc(b.P("text")))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, s.ID)

	ok, err := s.Apply("heading", heading(reg, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, s.Version())

	md, err := s.Markdown()
	require.NoError(t, err)
	assert.Equal(t, "# text", md)

	ok, err = s.Apply("heading", heading(reg, 1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Version())

	ok, err = s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	md, err = s.Markdown()
	require.NoError(t, err)
	assert.Equal(t, "text", md)

	ok, err = s.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	md, err = s.Markdown()
	require.NoError(t, err)
	assert.Equal(t, "# text", md)

	ok, err = s.Redo()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewCommandClearsRedo(t *testing.T) {
	reg, b := setup(t)
	s, err := New(b.Doc(b.P("text")))
	require.NoError(t, err)

	_, err = s.Apply("h1", heading(reg, 1))
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.Apply("h2", heading(reg, 2))
	require.NoError(t, err)

	ok, err := s.Redo()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistoryDepth(t *testing.T) {
	reg, b := setup(t)
	s, err := New(b.Doc(b.P("text")), WithHistoryDepth(2))
	require.NoError(t, err)

	for _, level := range []int{1, 2, 3, 4} {
		ok, err := s.Apply("heading", heading(reg, level))
		require.NoError(t, err)
		require.True(t, ok)
	}

	undone := 0
	for {
		ok, err := s.Undo()
		require.NoError(t, err)
		if !ok {
			break
		}
		undone++
	}
	assert.Equal(t, 2, undone)
	md, err := s.Markdown()
	require.NoError(t, err)
	assert.Equal(t, "## text", md)
}

func TestHandleKey(t *testing.T) {
	reg, b := setup(t)
	s, err := New(b.Doc(b.P(), b.P("second")))
	require.NoError(t, err)

	ok, err := s.HandleKey(commands.ParagraphKeymap(reg), "Backspace")
	require.NoError(t, err)
	require.True(t, ok)

	st, err := s.State()
	require.NoError(t, err)
	assert.True(t, b.Doc(b.P("second")).Eq(st.Doc))

	ok, err = s.HandleKey(commands.ParagraphKeymap(reg), "Enter")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelect(t *testing.T) {
	reg, b := setup(t)
	s, err := New(b.Doc(b.P("a"), b.P("b")))
	require.NoError(t, err)

	require.NoError(t, s.Select(commands.Cursor(4)))
	_, err = s.Apply("heading", heading(reg, 2))
	require.NoError(t, err)
	md, err := s.Markdown()
	require.NoError(t, err)
	assert.Equal(t, "a\n\n## b", md)

	assert.Error(t, s.Select(commands.Cursor(100)))
}

func TestListeners(t *testing.T) {
	reg, b := setup(t)
	events := make(chan Event, 4)
	s, err := New(b.Doc(b.P("text")), WithListener(func(_ context.Context, ev Event) {
		events <- ev
	}))
	require.NoError(t, err)

	_, err = s.Apply("heading", heading(reg, 3))
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, s.ID, ev.SessionID)
		assert.Equal(t, 1, ev.Version)
		assert.Equal(t, "### text", ev.Markdown)
	case <-time.After(time.Second):
		t.Fatal("listener was not called")
	}
}

func TestStaleView(t *testing.T) {
	reg, b := setup(t)
	s, err := New(b.Doc(b.P("text")))
	require.NoError(t, err)

	v, err := s.View()
	require.NoError(t, err)
	html, err := v.HTML()
	require.NoError(t, err)
	assert.Equal(t, "<p>text</p>", html)

	_, err = s.Apply("heading", heading(reg, 1))
	require.NoError(t, err)
	_, err = v.Markdown()
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, 0, v.Version())
	assert.True(t, b.Doc(b.P("text")).Eq(v.Doc()))

	current, err := s.View()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = current.Markdown()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.HTML()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.State()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Apply("heading", heading(reg, 2))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Undo()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Close(), ErrClosed)
}

func TestOptions(t *testing.T) {
	reg, b := setup(t)
	id := uuid.Must(uuid.NewV4())
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	s, err := New(
		b.Doc(b.P(model.Attrs{"dir": "rtl"}, "x")),
		WithID(id),
		WithMetrics(m),
		WithMarkdownSerializer(markdown.NewSerializer(reg, markdown.WithoutExtensions())),
	)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)

	md, err := s.Markdown()
	require.NoError(t, err)
	assert.Equal(t, "x", md)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestConcurrentReads(t *testing.T) {
	reg, b := setup(t)
	s, err := New(b.Doc(b.P("text")))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(level int) {
			defer wg.Done()
			_, _ = s.Apply("heading", heading(reg, level%6+1))
			_, _ = s.Markdown()
			_, _ = s.HTML()
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Version(), 8)
}

func TestWithVersion(t *testing.T) {
	reg, b := setup(t)
	s, err := New(b.Doc(b.P("text")), WithVersion(7))
	require.NoError(t, err)
	assert.Equal(t, 7, s.Version())

	_, err = s.Apply("heading", heading(reg, 1))
	require.NoError(t, err)
	assert.Equal(t, 8, s.Version())
}
