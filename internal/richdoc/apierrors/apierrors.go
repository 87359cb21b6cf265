// Пакет содержит определения ошибок HTTP API сервиса документов.
// Каждая ошибка имеет код, статус HTTP и описание на английском и русском языках.
//
// Основные возможности:
//   - Коды общих ошибок запроса (1***) и ошибок преобразования документов (4***).
//   - Коды ошибок сессий редактирования (5***).
//   - Соответствие кодов ошибок статусам HTTP.
//   - Функция для форматирования сообщений об ошибках.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - request errors
	ErrGeneric          = DefinedError{Code: 1001, StatusCode: http.StatusBadRequest, Err: "bad request", RuErr: "Некорректный запрос"}
	ErrInternal         = DefinedError{Code: 1002, StatusCode: http.StatusInternalServerError, Err: "internal server error", RuErr: "Внутренняя ошибка сервера"}
	ErrEntityToLarge    = DefinedError{Code: 1003, StatusCode: http.StatusRequestEntityTooLarge, Err: "request entity too large", RuErr: "Превышен допустимый размер запроса"}
	ErrRequestMalformed = DefinedError{Code: 1004, StatusCode: http.StatusBadRequest, Err: "malformed request: %s", RuErr: "Некорректное тело запроса: %s"}
	ErrNotFound         = DefinedError{Code: 1005, StatusCode: http.StatusNotFound, Err: "not found", RuErr: "Не найдено"}

	// 4*** - conversion errors
	ErrUnsupportedFormat  = DefinedError{Code: 4001, StatusCode: http.StatusBadRequest, Err: "unsupported format %s", RuErr: "Формат %s не поддерживается"}
	ErrSameFormat         = DefinedError{Code: 4002, StatusCode: http.StatusBadRequest, Err: "source and target formats are equal", RuErr: "Исходный и целевой форматы совпадают"}
	ErrEmptyContent       = DefinedError{Code: 4003, StatusCode: http.StatusBadRequest, Err: "content is empty", RuErr: "Содержимое документа пустое"}
	ErrMarkdownParse      = DefinedError{Code: 4004, StatusCode: http.StatusUnprocessableEntity, Err: "markdown parse failed: %s", RuErr: "Не удалось разобрать markdown: %s"}
	ErrHTMLParse          = DefinedError{Code: 4005, StatusCode: http.StatusUnprocessableEntity, Err: "html parse failed: %s", RuErr: "Не удалось разобрать HTML: %s"}
	ErrJSONParse          = DefinedError{Code: 4006, StatusCode: http.StatusUnprocessableEntity, Err: "document json parse failed: %s", RuErr: "Не удалось разобрать JSON документа: %s"}
	ErrRenderFailed       = DefinedError{Code: 4007, StatusCode: http.StatusInternalServerError, Err: "document render failed", RuErr: "Не удалось сформировать документ"}
	ErrSanitizeNotAllowed = DefinedError{Code: 4008, StatusCode: http.StatusBadRequest, Err: "sanitize applies only to html input", RuErr: "Очистка доступна только для HTML на входе"}
	ErrMinifyNotAllowed   = DefinedError{Code: 4009, StatusCode: http.StatusBadRequest, Err: "minify applies only to html output", RuErr: "Сжатие доступно только для вывода в HTML"}

	// 5*** - editing session errors
	ErrSessionNotFound  = DefinedError{Code: 5001, StatusCode: http.StatusNotFound, Err: "session not found", RuErr: "Сессия редактирования не найдена"}
	ErrSessionStale     = DefinedError{Code: 5002, StatusCode: http.StatusConflict, Err: "session version changed", RuErr: "Документ был изменен, обновите представление"}
	ErrUnknownCommand   = DefinedError{Code: 5003, StatusCode: http.StatusBadRequest, Err: "unknown command %s", RuErr: "Неизвестная команда %s"}
	ErrUnknownNodeType  = DefinedError{Code: 5004, StatusCode: http.StatusBadRequest, Err: "unknown node type %s", RuErr: "Неизвестный тип узла %s"}
	ErrInvalidSelection = DefinedError{Code: 5005, StatusCode: http.StatusBadRequest, Err: "selection is out of document", RuErr: "Выделение выходит за границы документа"}
	ErrHistoryDisabled  = DefinedError{Code: 5006, StatusCode: http.StatusNotImplemented, Err: "snapshot history is disabled", RuErr: "История снимков отключена"}
	ErrEmbedNotMatched  = DefinedError{Code: 5007, StatusCode: http.StatusNotFound, Err: "no embed provider for url", RuErr: "Для ссылки нет поддерживаемого встраивания"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
