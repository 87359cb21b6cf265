package tiptap

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

// Content - документ, который хранится в колонке базы данных как TipTap JSON.
// Прочитанный JSON разбирается только в Decode, по реестру вызывающей стороны.
type Content struct {
	Doc *model.Node
	raw []byte
}

// Decode разбирает прочитанный JSON по реестру reg. Пустое значение (NULL в базе)
// становится документом из одного пустого абзаца.
func (c *Content) Decode(reg *model.Registry) error {
	if c.raw == nil {
		doc, err := nodes.EmptyDocument(reg)
		if err != nil {
			return err
		}
		c.Doc = doc
		return nil
	}
	doc, err := ParseJSON(reg, bytes.NewReader(c.raw))
	if err != nil {
		return err
	}
	c.Doc = doc
	return nil
}

// UnmarshalJSON запоминает TipTap JSON до вызова Decode.
func (c *Content) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		c.Doc, c.raw = nil, nil
		return nil
	}
	c.Doc = nil
	c.raw = bytes.Clone(data)
	return nil
}

// MarshalJSON реализует сериализацию Content в TipTap JSON.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.Doc == nil {
		if c.raw != nil {
			return c.raw, nil
		}
		return []byte(`{"type":"doc"}`), nil
	}
	return Serialize(c.Doc)
}

// Value реализует интерфейс driver.Valuer для сохранения документа в текстовую колонку.
func (c Content) Value() (driver.Value, error) {
	b, err := c.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan реализует интерфейс sql.Scanner для чтения документа из колонки.
func (c *Content) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		c.Doc, c.raw = nil, nil
		return nil
	case []byte:
		return c.UnmarshalJSON(v)
	case string:
		return c.UnmarshalJSON([]byte(v))
	}
	return errors.New(fmt.Sprint("Failed to unmarshal content value:", value))
}

// GormDataType указывает GORM тип колонки.
func (Content) GormDataType() string {
	return "text"
}
