package model

import "slices"

// Mark - марка на строчном узле (жирный, ссылка и т.п.).
type Mark struct {
	typ   *MarkType
	attrs Attrs
}

func (m *Mark) Type() *MarkType { return m.typ }

// Attrs возвращает копию атрибутов марки.
func (m *Mark) Attrs() Attrs { return m.attrs.Clone() }

// Attr возвращает значение атрибута.
func (m *Mark) Attr(key string) any { return m.attrs.Get(key) }

// Eq сравнивает тип и атрибуты марок.
func (m *Mark) Eq(other *Mark) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.typ == other.typ && m.attrs.Equal(other.attrs)
}

// AddToSet добавляет марку в упорядоченный набор с учетом рангов и исключений.
// Исходный набор не изменяется.
func (m *Mark) AddToSet(set []*Mark) []*Mark {
	var res []*Mark
	copied, placed := false, false
	for i, other := range set {
		if m.Eq(other) {
			return set
		}
		if m.typ.Excludes(other.typ) {
			if !copied {
				res = slices.Clone(set[:i])
				copied = true
			}
			continue
		}
		if other.typ.Excludes(m.typ) {
			return set
		}
		if !placed && other.typ.rank > m.typ.rank {
			if !copied {
				res = slices.Clone(set[:i])
				copied = true
			}
			res = append(res, m)
			placed = true
		}
		if copied {
			res = append(res, other)
		}
	}
	if !copied {
		res = slices.Clone(set)
	}
	if !placed {
		res = append(res, m)
	}
	return res
}

// RemoveFromSet удаляет марку из набора.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	for i, other := range set {
		if m.Eq(other) {
			return slices.Delete(slices.Clone(set), i, i+1)
		}
	}
	return set
}

// IsInSet проверяет наличие марки в наборе.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, other := range set {
		if m.Eq(other) {
			return true
		}
	}
	return false
}

// MarkSet строит упорядоченный набор марок из произвольного списка.
func MarkSet(marks []*Mark) []*Mark {
	var set []*Mark
	for _, m := range marks {
		if m != nil {
			set = m.AddToSet(set)
		}
	}
	return set
}

// SameMarkSet сравнивает два набора марок.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}
