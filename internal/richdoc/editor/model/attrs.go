package model

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Attrs - значения атрибутов узла или марки.
// Допустимые типы значений: nil, string, int, float64, bool.
// nil означает "не задано" и отличается от пустой строки.
type Attrs map[string]any

// Get возвращает значение атрибута или nil.
func (a Attrs) Get(key string) any {
	if a == nil {
		return nil
	}
	return a[key]
}

// String возвращает строковое значение атрибута, пустую строку для nil и нестроковых значений.
func (a Attrs) String(key string) string {
	s, _ := a.Get(key).(string)
	return s
}

// Int возвращает целочисленное значение атрибута.
func (a Attrs) Int(key string) int {
	switch v := a.Get(key).(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Bool возвращает булево значение атрибута.
func (a Attrs) Bool(key string) bool {
	b, _ := a.Get(key).(bool)
	return b
}

// Clone возвращает копию набора атрибутов.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return Attrs{}
	}
	return maps.Clone(a)
}

// Equal сравнивает два набора атрибутов.
func (a Attrs) Equal(b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || bv != v {
			return false
		}
	}
	return true
}

// Keys возвращает отсортированные имена атрибутов.
func (a Attrs) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// AttributeSpec описывает атрибут типа узла или марки.
type AttributeSpec struct {
	// Default - значение по умолчанию. nil допустим и означает "не задано".
	Default any
	// Required - у атрибута нет значения по умолчанию, его нужно передать явно.
	Required bool
	// Validate проверяет значение (не вызывается для nil).
	Validate func(v any) error
	// Extension - атрибут переносится через расширение markdown, если отличается от Default.
	Extension bool
}

// computeAttrs собирает полный набор атрибутов: объявленные ключи, значения по умолчанию для незаданных.
func computeAttrs(typeName string, specs map[string]AttributeSpec, given Attrs) (Attrs, error) {
	for k := range given {
		if _, ok := specs[k]; !ok {
			return nil, &InvalidAttributeError{Type: typeName, Attr: k}
		}
	}

	built := make(Attrs, len(specs))
	for name, spec := range specs {
		v, ok := given[name]
		if !ok || v == nil {
			if spec.Required {
				return nil, &MissingAttributeError{Type: typeName, Attr: name}
			}
			built[name] = spec.Default
			continue
		}

		v, err := normalizeValue(v, spec.Default)
		if err != nil {
			return nil, &InvalidAttributeError{Type: typeName, Attr: name, Err: err}
		}
		if spec.Validate != nil {
			if err := spec.Validate(v); err != nil {
				return nil, &InvalidAttributeError{Type: typeName, Attr: name, Err: err}
			}
		}
		built[name] = v
	}
	return built, nil
}

// normalizeValue приводит значение к допустимому типу.
// Целые float64 (так приходят числа из JSON) приводятся к int, если default атрибута - int.
func normalizeValue(v any, def any) (any, error) {
	switch val := v.(type) {
	case string, int, bool:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if _, isInt := def.(int); isInt && val == math.Trunc(val) {
			return int(val), nil
		}
		return val, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// OneOf возвращает валидатор, допускающий только перечисленные строки.
func OneOf(values ...string) func(any) error {
	return func(v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		if !slices.Contains(values, s) {
			return fmt.Errorf("%q is not one of %v", s, values)
		}
		return nil
	}
}

// IntRange возвращает валидатор целого числа в диапазоне [min, max].
func IntRange(min, max int) func(any) error {
	return func(v any) error {
		i, ok := v.(int)
		if !ok {
			return fmt.Errorf("expected integer, got %T", v)
		}
		if i < min || i > max {
			return fmt.Errorf("%d is out of range [%d, %d]", i, min, max)
		}
		return nil
	}
}

// IsString - валидатор строкового значения.
func IsString(v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	return nil
}

// IsBool - валидатор булева значения.
func IsBool(v any) error {
	if _, ok := v.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", v)
	}
	return nil
}
