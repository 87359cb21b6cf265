package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/aisa-it/richdoc/internal/richdoc/apierrors"
	"github.com/aisa-it/richdoc/internal/richdoc/convert"
	"github.com/aisa-it/richdoc/internal/richdoc/session"
	"github.com/aisa-it/richdoc/internal/richdoc/store"
)

// EError возвращает ошибку клиенту. Известные ошибки переводятся в DefinedError, остальные логируются.
func EError(c echo.Context, err error) error {
	var defined apierrors.DefinedError
	if errors.As(err, &defined) {
		return EErrorDefined(c, defined)
	}
	if mapped, ok := definedFor(err); ok {
		return EErrorDefined(c, mapped)
	}

	if err == nil {
		slog.Error("Unknown API error",
			"method", c.Request().Method,
			"url", c.Request().URL,
			getCallerFile(),
		)
	} else {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			"url", c.Request().URL,
			getCallerFile(),
		)
	}
	return EErrorDefined(c, apierrors.ErrInternal)
}

// EErrorDefined возвращает JSON-ответ с кодом статуса и сообщением об ошибке. Если код статуса не определен, используется 400 Bad Request.
func EErrorDefined(c echo.Context, err apierrors.DefinedError) error {
	// If unknown code use 400 Bad Request
	if http.StatusText(err.StatusCode) == "" {
		err.StatusCode = http.StatusBadRequest
	}
	return c.JSON(err.StatusCode, err)
}

// definedFor сопоставляет ошибки пакетов сервиса кодам API.
func definedFor(err error) (apierrors.DefinedError, bool) {
	var (
		perr *convert.ParseError
		ferr *convert.FormatError
	)
	switch {
	case errors.As(err, &perr):
		switch perr.Format {
		case convert.Markdown:
			return apierrors.ErrMarkdownParse.WithFormattedMessage(perr.Err.Error()), true
		case convert.HTML:
			return apierrors.ErrHTMLParse.WithFormattedMessage(perr.Err.Error()), true
		default:
			return apierrors.ErrJSONParse.WithFormattedMessage(perr.Err.Error()), true
		}
	case errors.Is(err, convert.ErrEmptyContent):
		return apierrors.ErrEmptyContent, true
	case errors.As(err, &ferr):
		return apierrors.ErrUnsupportedFormat.WithFormattedMessage(ferr.Format), true
	case errors.Is(err, session.ErrClosed), errors.Is(err, store.ErrNotFound):
		return apierrors.ErrSessionNotFound, true
	case errors.Is(err, session.ErrStale):
		return apierrors.ErrSessionStale, true
	}
	return apierrors.DefinedError{}, false
}

// getCallerFile возвращает файл и строку, из которых вызван обработчик ошибки.
func getCallerFile() slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.Attr{}
	}
	_, file := filepath.Split(path)
	return slog.String("caller", fmt.Sprintf("%s:%d", file, no))
}
