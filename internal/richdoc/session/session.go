// Пакет session хранит состояние редактирования одного документа.
//
// Основные возможности:
//   - Применение команд с историей отмены и повтора ограниченной глубины.
//   - Уведомление слушателей о каждой новой версии (в отдельных горутинах, без ожидания).
//   - Кэш markdown и HTML представлений для каждой версии.
//   - Представления (View), которые отклоняются после смены версии или закрытия сессии.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/commands"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/dom"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/markdown"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/metrics"
)

const DefaultHistoryDepth = 100

var (
	ErrClosed = errors.New("session: closed")
	ErrStale  = errors.New("session: view is stale")
)

// Event - новая версия документа сессии.
type Event struct {
	SessionID uuid.UUID
	Version   int
	Doc       *model.Node
	Markdown  string
}

// Listener получает события сессии. Вызывается в отдельной горутине.
type Listener func(ctx context.Context, ev Event)

// Session - сессия редактирования. Команды применяются последовательно, чтение безопасно
// из любых горутин.
type Session struct {
	ID uuid.UUID

	mu      sync.RWMutex
	state   *commands.State
	version int
	undo    []*commands.State
	redo    []*commands.State
	closed  bool
	cache   map[string]string
	cacheAt int

	depth     int
	listeners []Listener
	md        *markdown.Serializer
	html      *dom.Serializer
	metrics   *metrics.Metrics
}

type Option func(*Session)

// WithHistoryDepth ограничивает число шагов отмены.
func WithHistoryDepth(depth int) Option {
	return func(s *Session) {
		if depth > 0 {
			s.depth = depth
		}
	}
}

// WithListener добавляет слушателя новых версий.
func WithListener(l Listener) Option {
	return func(s *Session) {
		s.listeners = append(s.listeners, l)
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithMarkdownSerializer задает сериализатор markdown, например без расширения атрибутов.
func WithMarkdownSerializer(md *markdown.Serializer) Option {
	return func(s *Session) {
		s.md = md
	}
}

// WithID задает идентификатор сессии, например при восстановлении из снимка.
func WithID(id uuid.UUID) Option {
	return func(s *Session) {
		s.ID = id
	}
}

// WithVersion задает номер начальной версии, чтобы нумерация продолжала сохраненную историю.
func WithVersion(version int) Option {
	return func(s *Session) {
		if version > 0 {
			s.version = version
		}
	}
}

// New открывает сессию над документом doc. Курсор ставится в начало документа.
func New(doc *model.Node, opts ...Option) (*Session, error) {
	if doc == nil {
		return nil, errors.New("session: nil document")
	}
	reg := doc.Type().Registry()
	s := &Session{
		state: commands.NewState(doc),
		depth: DefaultHistoryDepth,
		html:  dom.NewSerializer(reg),
		md:    markdown.NewSerializer(reg),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		s.ID = id
	}
	s.metrics.SessionOpened()
	return s, nil
}

// State возвращает текущее состояние.
func (s *Session) State() (*commands.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.state, nil
}

// Version - номер текущей версии, 0 у только что открытой сессии.
func (s *Session) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Apply выполняет команду. false - команда неприменима, документ не изменился.
func (s *Session) Apply(name string, cmd commands.Command) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	next, ok := cmd(s.state)
	s.metrics.CommandApplied(name, ok)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	s.undo = append(s.undo, s.state)
	if len(s.undo) > s.depth {
		s.undo = s.undo[len(s.undo)-s.depth:]
	}
	s.redo = nil
	ev := s.commit(next)
	s.mu.Unlock()

	s.notify(ev)
	return true, nil
}

// HandleKey выполняет команду раскладки keys, привязанную к сочетанию key.
func (s *Session) HandleKey(keys commands.Keymap, key string) (bool, error) {
	return s.Apply(commands.NormalizeKey(key), func(st *commands.State) (*commands.State, bool) {
		return keys.Handle(key, st)
	})
}

// Select меняет выделение без записи в историю.
func (s *Session) Select(sel commands.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next, err := commands.WithSelection(s.state.Doc, sel)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Undo возвращает предыдущую версию документа. false - отменять нечего.
func (s *Session) Undo() (bool, error) {
	return s.travel(&s.undo, &s.redo)
}

// Redo повторяет отмененный шаг. false - повторять нечего.
func (s *Session) Redo() (bool, error) {
	return s.travel(&s.redo, &s.undo)
}

func (s *Session) travel(from, to *[]*commands.State) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if len(*from) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	prev := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	*to = append(*to, s.state)
	ev := s.commit(prev)
	s.mu.Unlock()

	s.notify(ev)
	return true, nil
}

// commit делает next текущим состоянием. Вызывается под блокировкой.
func (s *Session) commit(next *commands.State) Event {
	s.state = next
	s.version++
	return Event{SessionID: s.ID, Version: s.version, Doc: next.Doc, Markdown: s.derive("markdown")}
}

func (s *Session) notify(ev Event) {
	for _, l := range s.listeners {
		go l(context.Background(), ev)
	}
}

// derive возвращает представление текущей версии из кэша или строит его.
// Вызывается под блокировкой на запись.
func (s *Session) derive(format string) string {
	if s.cache == nil || s.cacheAt != s.version {
		s.cache = make(map[string]string, 2)
		s.cacheAt = s.version
	}
	if v, ok := s.cache[format]; ok {
		return v
	}
	var v string
	switch format {
	case "markdown":
		v = s.md.Serialize(s.state.Doc)
	case "html":
		out, err := s.html.RenderHTML(s.state.Doc)
		if err != nil {
			slog.Error("Render session html", "session", s.ID, "err", err)
			return ""
		}
		v = out
	}
	s.cache[format] = v
	return v
}

// View возвращает представление текущей версии.
func (s *Session) View() (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return &View{s: s, version: s.version, doc: s.state.Doc}, nil
}

// Markdown - markdown текущей версии.
func (s *Session) Markdown() (string, error) {
	v, err := s.View()
	if err != nil {
		return "", err
	}
	return v.Markdown()
}

// HTML - HTML текущей версии.
func (s *Session) HTML() (string, error) {
	v, err := s.View()
	if err != nil {
		return "", err
	}
	return v.HTML()
}

// Close закрывает сессию. Все представления после этого отклоняются.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.cache = nil
	s.undo, s.redo = nil, nil
	s.metrics.SessionClosed()
	return nil
}

// View - представление одной версии документа.
type View struct {
	s       *Session
	version int
	doc     *model.Node
}

// Version - версия, для которой построено представление.
func (v *View) Version() int { return v.version }

// Doc - документ этой версии. Доступен и после устаревания.
func (v *View) Doc() *model.Node { return v.doc }

// Markdown возвращает markdown версии. ErrStale - сессия ушла на другую версию,
// ErrClosed - сессия закрыта.
func (v *View) Markdown() (string, error) {
	return v.get("markdown")
}

// HTML возвращает HTML версии.
func (v *View) HTML() (string, error) {
	return v.get("html")
}

func (v *View) get(format string) (string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if v.s.closed {
		return "", ErrClosed
	}
	if v.s.version != v.version {
		return "", ErrStale
	}
	return v.s.derive(format), nil
}
