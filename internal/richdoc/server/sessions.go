package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aisa-it/richdoc/internal/richdoc/apierrors"
	"github.com/aisa-it/richdoc/internal/richdoc/convert"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/commands"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/markdown"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/menu"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/session"
	"github.com/aisa-it/richdoc/internal/richdoc/store"
)

// sessionPool - открытые сессии редактирования. Сессия, которой нет в памяти,
// восстанавливается из последнего снимка, если подключено хранилище.
type sessionPool struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*poolEntry
	srv      *Server
	now      func() time.Time
}

type poolEntry struct {
	s        *session.Session
	lastUsed time.Time
}

func newSessionPool(srv *Server) *sessionPool {
	return &sessionPool{sessions: map[uuid.UUID]*poolEntry{}, srv: srv, now: time.Now}
}

func (p *sessionPool) options() []session.Option {
	opts := []session.Option{
		session.WithHistoryDepth(p.srv.cfg.HistoryDepth),
		session.WithMetrics(p.srv.metrics),
	}
	if !p.srv.cfg.MarkdownExtensions {
		opts = append(opts, session.WithMarkdownSerializer(markdown.NewSerializer(p.srv.converter.Registry(), markdown.WithoutExtensions())))
	}
	return opts
}

func (p *sessionPool) open(doc *model.Node) (*session.Session, error) {
	opts := p.options()
	if p.srv.store != nil {
		opts = append(opts, session.WithListener(p.srv.store.Listener()))
	}
	s, err := session.New(doc, opts...)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.sessions[s.ID] = &poolEntry{s: s, lastUsed: p.now()}
	p.mu.Unlock()

	if p.srv.store != nil {
		// Нулевая версия сохраняется сразу, чтобы сессию можно было восстановить до первой правки
		md, err := s.Markdown()
		if err != nil {
			slog.Error("Serialize initial snapshot", "session", s.ID, "err", err)
		}
		if _, err := p.srv.store.Save(context.Background(), session.Event{SessionID: s.ID, Doc: doc, Markdown: md}); err != nil {
			slog.Error("Save initial snapshot", "session", s.ID, "err", err)
		}
	}
	return s, nil
}

func (p *sessionPool) get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.sessions[id]; ok {
		e.lastUsed = p.now()
		return e.s, nil
	}
	if p.srv.store == nil {
		return nil, store.ErrNotFound
	}
	s, err := p.srv.store.Restore(ctx, id, p.options()...)
	if err != nil {
		return nil, err
	}
	p.sessions[id] = &poolEntry{s: s, lastUsed: p.now()}
	return s, nil
}

func (p *sessionPool) close(id uuid.UUID) error {
	p.mu.Lock()
	e, ok := p.sessions[id]
	delete(p.sessions, id)
	p.mu.Unlock()
	if !ok {
		return store.ErrNotFound
	}
	return e.s.Close()
}

func (p *sessionPool) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, e := range p.sessions {
		e.s.Close()
		delete(p.sessions, id)
	}
}

// reap закрывает сессии, к которым не обращались дольше ttl. Закрытая сессия с хранилищем
// восстанавливается из снимка при следующем обращении.
func (p *sessionPool) reap(ttl time.Duration) int {
	deadline := p.now().Add(-ttl)

	p.mu.Lock()
	var idle []*session.Session
	for id, e := range p.sessions {
		if e.lastUsed.Before(deadline) {
			idle = append(idle, e.s)
			delete(p.sessions, id)
		}
	}
	p.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(); err != nil {
			slog.Error("Close idle session", "session", s.ID, "err", err)
		}
	}
	if len(idle) > 0 {
		slog.Info("Idle sessions closed", "count", len(idle), "ttl", ttl)
	}
	return len(idle)
}

func (p *sessionPool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// CreateSessionRequest - документ, над которым открывается сессия.
type CreateSessionRequest struct {
	Format   string          `json:"format" validate:"required,docFormat"`
	Content  json.RawMessage `json:"content"`
	Sanitize bool            `json:"sanitize"`
}

// SessionResponse - текущая версия документа сессии.
type SessionResponse struct {
	ID        uuid.UUID          `json:"id"`
	Version   int                `json:"version"`
	Format    convert.Format     `json:"format,omitempty"`
	Content   json.RawMessage    `json:"content,omitempty"`
	Selection commands.Selection `json:"selection"`
	Applied   *bool              `json:"applied,omitempty"`
}

// CommandRequest - команда редактирования. Задается либо именем команды, либо сочетанием клавиш.
type CommandRequest struct {
	Command string      `json:"command"`
	Type    string      `json:"type"`
	Attrs   model.Attrs `json:"attrs"`
	Key     string      `json:"key"`
}

func sessionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierrors.ErrSessionNotFound
	}
	return id, nil
}

func (s *Server) loadSession(c echo.Context) (*session.Session, error) {
	id, err := sessionID(c)
	if err != nil {
		return nil, err
	}
	return s.sessions.get(c.Request().Context(), id)
}

// respond формирует ответ с документом сессии в формате из параметра format (по умолчанию markdown).
func (s *Server) respond(c echo.Context, status int, sess *session.Session, applied *bool) error {
	format := convert.Markdown
	if raw := c.QueryParam("format"); raw != "" {
		f, err := convert.ParseFormat(raw)
		if err != nil {
			return EError(c, err)
		}
		format = f
	}

	view, err := sess.View()
	if err != nil {
		return EError(c, err)
	}
	state, err := sess.State()
	if err != nil {
		return EError(c, err)
	}

	var out []byte
	switch format {
	case convert.Markdown:
		md, err := view.Markdown()
		if err != nil {
			return EError(c, err)
		}
		out = []byte(md)
	case convert.HTML:
		html, err := view.HTML()
		if err != nil {
			return EError(c, err)
		}
		out = []byte(html)
	default:
		if out, err = s.converter.Render(format, view.Doc(), convert.Options{}); err != nil {
			return EError(c, err)
		}
	}

	return c.JSON(status, SessionResponse{
		ID:        sess.ID,
		Version:   view.Version(),
		Format:    format,
		Content:   contentJSON(format, out),
		Selection: state.Selection,
		Applied:   applied,
	})
}

// createSession godoc
// @Summary Открытие сессии редактирования
// @Tags Sessions
// @Accept json
// @Produce json
// @Param data body CreateSessionRequest true "Документ"
// @Success 201 {object} SessionResponse "Сессия"
// @Router /api/sessions/ [post]
func (s *Server) createSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestMalformed.WithFormattedMessage(err.Error()))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestMalformed.WithFormattedMessage(err.Error()))
	}
	format, _ := convert.ParseFormat(req.Format)
	src, err := contentBytes(format, req.Content)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrRequestMalformed.WithFormattedMessage(err.Error()))
	}

	doc, err := s.converter.Parse(format, src, convert.Options{
		Sanitize: format == convert.HTML && (req.Sanitize || s.cfg.SanitizeHTML),
	})
	if err != nil {
		return EError(c, err)
	}
	sess, err := s.sessions.open(doc)
	if err != nil {
		return EError(c, err)
	}
	return s.respond(c, http.StatusCreated, sess, nil)
}

// getSession godoc
// @Summary Текущая версия документа сессии
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Param format query string false "markdown, html или json"
// @Success 200 {object} SessionResponse "Документ"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{id}/ [get]
func (s *Server) getSession(c echo.Context) error {
	sess, err := s.loadSession(c)
	if err != nil {
		return EError(c, err)
	}
	return s.respond(c, http.StatusOK, sess, nil)
}

// closeSession godoc
// @Summary Закрытие сессии
// @Tags Sessions
// @Param id path string true "ID сессии"
// @Success 204
// @Router /api/sessions/{id}/ [delete]
func (s *Server) closeSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return EError(c, err)
	}
	if err := s.sessions.close(id); err != nil {
		return EError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// applyCommand godoc
// @Summary Выполнение команды редактирования
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param data body CommandRequest true "Команда"
// @Success 200 {object} SessionResponse "Документ после команды"
// @Router /api/sessions/{id}/commands/ [post]
func (s *Server) applyCommand(c echo.Context) error {
	sess, err := s.loadSession(c)
	if err != nil {
		return EError(c, err)
	}
	var req CommandRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestMalformed.WithFormattedMessage(err.Error()))
	}
	state, err := sess.State()
	if err != nil {
		return EError(c, err)
	}

	var applied bool
	if req.Key != "" {
		applied, err = sess.HandleKey(commands.ParagraphKeymap(state.Registry()), req.Key)
	} else {
		name, cmd, derr := buildCommand(state.Registry(), req)
		if derr != nil {
			return EError(c, derr)
		}
		applied, err = sess.Apply(name, cmd)
	}
	if err != nil {
		return EError(c, err)
	}
	return s.respond(c, http.StatusOK, sess, &applied)
}

// buildCommand находит команду по имени.
func buildCommand(reg *model.Registry, req CommandRequest) (string, commands.Command, error) {
	switch req.Command {
	case "paragraph":
		return req.Command, commands.Paragraph(reg), nil
	case "delete_empty_first_paragraph":
		return req.Command, commands.DeleteEmptyFirstParagraph, nil
	case "set_block_type":
		nt, err := reg.Get(req.Type)
		if err != nil {
			return "", nil, apierrors.ErrUnknownNodeType.WithFormattedMessage(req.Type)
		}
		return req.Command + ":" + nt.Name(), commands.SetBlockType(nt, normalizeAttrs(req.Attrs)), nil
	}
	return "", nil, apierrors.ErrUnknownCommand.WithFormattedMessage(req.Command)
}

// normalizeAttrs приводит числа из JSON (float64) к int, если они целые.
func normalizeAttrs(attrs model.Attrs) model.Attrs {
	for k, v := range attrs {
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			attrs[k] = int(f)
		}
	}
	return attrs
}

// setSelection godoc
// @Summary Изменение выделения
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param data body commands.Selection true "Выделение"
// @Success 200 {object} SessionResponse "Документ"
// @Router /api/sessions/{id}/selection/ [put]
func (s *Server) setSelection(c echo.Context) error {
	sess, err := s.loadSession(c)
	if err != nil {
		return EError(c, err)
	}
	var sel commands.Selection
	if err := c.Bind(&sel); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestMalformed.WithFormattedMessage(err.Error()))
	}
	if err := sess.Select(sel); err != nil {
		if errors.Is(err, session.ErrClosed) {
			return EError(c, err)
		}
		return EErrorDefined(c, apierrors.ErrInvalidSelection)
	}
	return s.respond(c, http.StatusOK, sess, nil)
}

// undo godoc
// @Summary Отмена последней команды
// @Tags Sessions
// @Param id path string true "ID сессии"
// @Success 200 {object} SessionResponse "Документ"
// @Router /api/sessions/{id}/undo/ [post]
func (s *Server) undo(c echo.Context) error {
	return s.travel(c, (*session.Session).Undo)
}

// redo godoc
// @Summary Повтор отмененной команды
// @Tags Sessions
// @Param id path string true "ID сессии"
// @Success 200 {object} SessionResponse "Документ"
// @Router /api/sessions/{id}/redo/ [post]
func (s *Server) redo(c echo.Context) error {
	return s.travel(c, (*session.Session).Redo)
}

func (s *Server) travel(c echo.Context, f func(*session.Session) (bool, error)) error {
	sess, err := s.loadSession(c)
	if err != nil {
		return EError(c, err)
	}
	applied, err := f(sess)
	if err != nil {
		return EError(c, err)
	}
	return s.respond(c, http.StatusOK, sess, &applied)
}

// menu godoc
// @Summary Пункты панели форматирования
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Param lang query string false "Язык подписей (ru, en)"
// @Param mobile query bool false "Мобильный редактор"
// @Param template query bool false "Редактор шаблона"
// @Param comment query bool false "Редактор комментария"
// @Success 200 {array} menu.Item "Видимые пункты"
// @Router /api/sessions/{id}/menu/ [get]
func (s *Server) menu(c echo.Context) error {
	sess, err := s.loadSession(c)
	if err != nil {
		return EError(c, err)
	}
	state, err := sess.State()
	if err != nil {
		return EError(c, err)
	}
	opts := menu.Options{
		IsTemplate:      queryBool(c, "template"),
		IsMobile:        queryBool(c, "mobile"),
		IsCommentEditor: queryBool(c, "comment"),
	}
	items := menu.FormattingItems(state, opts, menu.DictionaryFor(c.QueryParam("lang")))
	return c.JSON(http.StatusOK, menu.Visible(items))
}

func queryBool(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}

// HistoryItem - сохраненная версия документа.
type HistoryItem struct {
	Version   int    `json:"version"`
	Markdown  string `json:"markdown"`
	CreatedAt string `json:"created_at"`
}

// history godoc
// @Summary История снимков сессии
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Param limit query int false "Число последних версий"
// @Success 200 {array} HistoryItem "Снимки, от новых к старым"
// @Failure 501 {object} apierrors.DefinedError "Хранилище снимков не подключено"
// @Router /api/sessions/{id}/history/ [get]
func (s *Server) history(c echo.Context) error {
	if s.store == nil {
		return EErrorDefined(c, apierrors.ErrHistoryDisabled)
	}
	id, err := sessionID(c)
	if err != nil {
		return EError(c, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	snaps, err := s.store.History(c.Request().Context(), id, limit)
	if err != nil {
		return EError(c, err)
	}
	if len(snaps) == 0 {
		return EErrorDefined(c, apierrors.ErrSessionNotFound)
	}
	items := make([]HistoryItem, 0, len(snaps))
	for _, snap := range snaps {
		items = append(items, HistoryItem{
			Version:   snap.Version,
			Markdown:  snap.Markdown,
			CreatedAt: snap.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, items)
}
