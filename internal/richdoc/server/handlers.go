package server

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aisa-it/richdoc/internal/richdoc/apierrors"
	"github.com/aisa-it/richdoc/internal/richdoc/convert"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

// ConvertRequest - запрос на преобразование. Content - строка для markdown и HTML,
// объект или строка с JSON для формата json.
type ConvertRequest struct {
	From     string          `json:"from" validate:"required,docFormat"`
	To       string          `json:"to" validate:"required,docFormat"`
	Content  json.RawMessage `json:"content"`
	Sanitize bool            `json:"sanitize"`
	Minify   bool            `json:"minify"`
}

// ConvertResponse - результат преобразования.
type ConvertResponse struct {
	Format  convert.Format  `json:"format"`
	Content json.RawMessage `json:"content"`
}

// convert godoc
// @Summary Преобразование документа
// @Description Преобразует документ между форматами markdown, html и json (TipTap)
// @Tags Documents
// @Accept json
// @Produce json
// @Param data body ConvertRequest true "Документ и форматы"
// @Success 200 {object} ConvertResponse "Преобразованный документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректный запрос"
// @Failure 422 {object} apierrors.DefinedError "Документ не удалось разобрать"
// @Router /api/convert/ [post]
func (s *Server) convert(c echo.Context) error {
	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestMalformed.WithFormattedMessage(err.Error()))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestMalformed.WithFormattedMessage(err.Error()))
	}

	from, _ := convert.ParseFormat(req.From)
	to, _ := convert.ParseFormat(req.To)
	if req.Sanitize && from != convert.HTML {
		return EErrorDefined(c, apierrors.ErrSanitizeNotAllowed)
	}
	if req.Minify && to != convert.HTML {
		return EErrorDefined(c, apierrors.ErrMinifyNotAllowed)
	}

	src, err := contentBytes(from, req.Content)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrRequestMalformed.WithFormattedMessage(err.Error()))
	}

	out, err := s.converter.Convert(from, to, src, convert.Options{
		Sanitize: req.Sanitize || (from == convert.HTML && s.cfg.SanitizeHTML),
		Minify:   req.Minify || (to == convert.HTML && s.cfg.MinifyHTML),
	})
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, ConvertResponse{Format: to, Content: contentJSON(to, out)})
}

// contentBytes извлекает исходный документ из поля content.
func contentBytes(format convert.Format, raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s), nil
	} else if format != convert.JSON {
		return nil, err
	}
	return raw, nil
}

// contentJSON упаковывает результат: TipTap JSON передается объектом, остальное строкой.
func contentJSON(format convert.Format, out []byte) json.RawMessage {
	if format == convert.JSON {
		return out
	}
	b, _ := json.Marshal(string(out))
	return b
}

// schema godoc
// @Summary Схема документа
// @Description Возвращает типы узлов и марок с их атрибутами
// @Tags Documents
// @Produce json
// @Success 200 {object} nodes.SchemaInfo "Схема"
// @Router /api/schema/ [get]
func (s *Server) schema(c echo.Context) error {
	return c.JSON(http.StatusOK, nodes.Describe(s.converter.Registry()))
}

// EmbedResponse - найденное встраивание.
type EmbedResponse struct {
	Provider     string `json:"provider"`
	Src          string `json:"src"`
	CanonicalURL string `json:"canonical_url"`
	Title        string `json:"title"`
	HTML         string `json:"html"`
}

// embed godoc
// @Summary Встраивание ссылки
// @Description Ищет провайдера встраивания для ссылки и возвращает iframe
// @Tags Documents
// @Produce json
// @Param url query string true "Ссылка"
// @Success 200 {object} EmbedResponse "Встраивание"
// @Failure 404 {object} apierrors.DefinedError "Провайдер не найден"
// @Router /api/embed/ [get]
func (s *Server) embed(c echo.Context) error {
	href := c.QueryParam("url")
	p, m, ok := s.embeds.Match(href)
	if !ok {
		return EErrorDefined(c, apierrors.ErrEmbedNotMatched)
	}
	frame := p.Render(m)
	out, err := frame.HTML()
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, EmbedResponse{
		Provider:     p.Name,
		Src:          frame.Src,
		CanonicalURL: frame.CanonicalURL,
		Title:        frame.Title,
		HTML:         out,
	})
}
