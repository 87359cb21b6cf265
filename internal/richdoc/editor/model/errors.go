package model

import (
	"errors"
	"fmt"
)

// ErrEmptyText возвращается при попытке создать пустой текстовый узел.
var ErrEmptyText = errors.New("model: empty text nodes are not allowed")

// DuplicateTypeError - тип с таким именем уже зарегистрирован.
type DuplicateTypeError struct {
	Name string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("model: type %q already registered", e.Name)
}

// UnknownTypeError - запрошенный тип (или группа в выражении контента) не зарегистрирован.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("model: unknown type %q", e.Name)
}

// InvalidContentExpressionError - синтаксическая ошибка в выражении контента.
type InvalidContentExpressionError struct {
	Type       string
	Expression string
	Reason     string
}

func (e *InvalidContentExpressionError) Error() string {
	return fmt.Sprintf("model: invalid content expression %q for %q: %s", e.Expression, e.Type, e.Reason)
}

// InvalidAttributeError - атрибут не объявлен в типе или не прошел валидацию.
type InvalidAttributeError struct {
	Type string
	Attr string
	Err  error
}

func (e *InvalidAttributeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model: attribute %q is not declared by %q", e.Attr, e.Type)
	}
	return fmt.Sprintf("model: invalid attribute %q for %q: %v", e.Attr, e.Type, e.Err)
}

func (e *InvalidAttributeError) Unwrap() error {
	return e.Err
}

// MissingAttributeError - обязательный атрибут без значения по умолчанию не передан.
type MissingAttributeError struct {
	Type string
	Attr string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("model: no value supplied for required attribute %q of %q", e.Attr, e.Type)
}

// InvalidContentError - содержимое узла не соответствует выражению контента или разрешенным маркам.
type InvalidContentError struct {
	Type   string
	Reason string
}

func (e *InvalidContentError) Error() string {
	return fmt.Sprintf("model: invalid content for %q: %s", e.Type, e.Reason)
}

// PositionError - позиция вне документа.
type PositionError struct {
	Pos  int
	Size int
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("model: position %d out of range [0, %d]", e.Pos, e.Size)
}
