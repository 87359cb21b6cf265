// Пакет model содержит модель документа редактора: реестр типов узлов и марок, неизменяемые узлы и позиции в документе.
//
// Основные возможности:
//   - Регистрация типов узлов и марок с проверкой уникальности имен и синтаксиса выражений контента.
//   - Отложенное разрешение имен и групп в выражениях контента (Registry.Check).
//   - Создание узлов с подстановкой значений атрибутов по умолчанию и проверкой содержимого.
//   - Нумерация позиций в стиле ProseMirror, разрешение позиции и обход диапазона.
package model

import (
	"slices"
	"strings"
	"sync"
)

// NodeSpec - декларация типа узла.
type NodeSpec struct {
	Name string
	// Content - выражение контента, например "block+" или "paragraph block*". Пустое - лист.
	Content string
	// Group - группы через пробел ("block", "inline").
	Group string
	// Marks - разрешенные марки: nil - все для строчного контента, "" - никаких, "_" - все, иначе имена/группы.
	Marks *string
	Attrs map[string]AttributeSpec

	Inline bool
	Atom   bool
	// Code - узел содержит код: марки и экранирование не применяются.
	Code bool
	// LeafText - текстовое представление листового узла в TextContent.
	LeafText func(n *Node) string

	ParseDOM      []ParseRule
	ToDOM         func(n *Node) DOMSpec
	ToMarkdown    func(w MarkdownWriter, n *Node)
	ParseMarkdown MarkdownRule
}

// MarkSpec - декларация типа марки.
type MarkSpec struct {
	Name  string
	Group string
	Attrs map[string]AttributeSpec
	// Excludes - исключаемые марки: nil - только марки того же типа, "" - никакие, "_" - все.
	Excludes *string

	ParseDOM []ParseRule
	ToDOM    func(m *Mark) DOMSpec
	Markdown MarkMarkdown
}

// Set возвращает указатель на строку для полей Marks и Excludes.
func Set(s string) *string {
	return &s
}

// NodeType - зарегистрированный тип узла.
type NodeType struct {
	spec     NodeSpec
	groups   []string
	expr     *contentExpr
	registry *Registry

	match         *ContentMatch
	inlineContent bool
	allMarks      bool
	markSet       map[*MarkType]bool
}

func (t *NodeType) Name() string { return t.spec.Name }

// Registry возвращает реестр, в котором зарегистрирован тип.
func (t *NodeType) Registry() *Registry { return t.registry }

// Spec возвращает декларацию типа.
func (t *NodeType) Spec() NodeSpec { return t.spec }

// Groups возвращает группы типа.
func (t *NodeType) Groups() []string { return slices.Clone(t.groups) }

// InGroup проверяет принадлежность типа группе.
func (t *NodeType) InGroup(group string) bool { return slices.Contains(t.groups, group) }

func (t *NodeType) IsText() bool   { return t.spec.Name == TextTypeName }
func (t *NodeType) IsInline() bool { return t.spec.Inline }
func (t *NodeType) IsBlock() bool  { return !t.spec.Inline && t.spec.Name != TopTypeName }
func (t *NodeType) IsCode() bool   { return t.spec.Code }

// IsLeaf - у типа нет содержимого.
func (t *NodeType) IsLeaf() bool { return t.expr == nil }

// IsAtom - узел без редактируемого содержимого.
func (t *NodeType) IsAtom() bool { return t.IsLeaf() || t.spec.Atom }

// InlineContent - содержимое типа строчное.
func (t *NodeType) InlineContent() bool {
	t.registry.ensureChecked()
	return t.inlineContent
}

// IsTextblock - блок со строчным содержимым.
func (t *NodeType) IsTextblock() bool { return t.IsBlock() && t.InlineContent() }

// AttrSpecs возвращает объявленные атрибуты.
func (t *NodeType) AttrSpecs() map[string]AttributeSpec { return t.spec.Attrs }

// DefaultAttrs возвращает атрибуты по умолчанию; ошибка - есть обязательные атрибуты.
func (t *NodeType) DefaultAttrs() (Attrs, error) {
	return computeAttrs(t.spec.Name, t.spec.Attrs, nil)
}

// ComputeAttrs дополняет переданные атрибуты значениями по умолчанию и проверяет их.
func (t *NodeType) ComputeAttrs(attrs Attrs) (Attrs, error) {
	return computeAttrs(t.spec.Name, t.spec.Attrs, attrs)
}

// ContentMatch возвращает автомат выражения контента.
func (t *NodeType) ContentMatch() (*ContentMatch, error) {
	if err := t.registry.ensureChecked(); err != nil {
		return nil, err
	}
	return t.match, nil
}

// AllowsMarkType проверяет, разрешена ли марка в содержимом узла этого типа.
func (t *NodeType) AllowsMarkType(mt *MarkType) bool {
	t.registry.ensureChecked()
	return t.allMarks || t.markSet[mt]
}

// AllowedMarks отбрасывает марки, не разрешенные в этом типе.
func (t *NodeType) AllowedMarks(marks []*Mark) []*Mark {
	var res []*Mark
	for _, m := range marks {
		if t.AllowsMarkType(m.Type()) {
			res = append(res, m)
		}
	}
	return res
}

// ValidContent проверяет содержимое на соответствие выражению контента и разрешенным маркам.
func (t *NodeType) ValidContent(content []*Node) error {
	match, err := t.ContentMatch()
	if err != nil {
		return err
	}
	types := make([]*NodeType, len(content))
	for i, c := range content {
		types[i] = c.Type()
		for _, m := range c.marks {
			if !t.AllowsMarkType(m.Type()) {
				return &InvalidContentError{Type: t.spec.Name, Reason: "mark " + m.Type().Name() + " is not allowed"}
			}
		}
	}
	if !match.Matches(types) {
		names := make([]string, len(types))
		for i, ct := range types {
			names[i] = ct.Name()
		}
		return &InvalidContentError{Type: t.spec.Name, Reason: "[" + strings.Join(names, ", ") + "] does not match " + strings.TrimSpace(t.spec.Content)}
	}
	return nil
}

// Create создает узел этого типа с проверкой атрибутов, содержимого и марок.
func (t *NodeType) Create(attrs Attrs, content []*Node, marks []*Mark) (*Node, error) {
	if t.IsText() {
		return nil, &InvalidContentError{Type: t.spec.Name, Reason: "text nodes are created with Registry.Text"}
	}
	built, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	content = joinText(content)
	if err := t.ValidContent(content); err != nil {
		return nil, err
	}
	return &Node{typ: t, attrs: built, content: content, marks: MarkSet(marks)}, nil
}

// ParseRules возвращает правила разбора DOM в порядке объявления.
func (t *NodeType) ParseRules() []ParseRule { return t.spec.ParseDOM }

// MarkType - зарегистрированный тип марки.
type MarkType struct {
	spec     MarkSpec
	rank     int
	groups   []string
	excluded []*MarkType
	registry *Registry
}

func (t *MarkType) Name() string { return t.spec.Name }

// Spec возвращает декларацию марки.
func (t *MarkType) Spec() MarkSpec { return t.spec }

// Rank - порядковый номер регистрации, задает порядок марок в наборе.
func (t *MarkType) Rank() int { return t.rank }

// AttrSpecs возвращает объявленные атрибуты.
func (t *MarkType) AttrSpecs() map[string]AttributeSpec { return t.spec.Attrs }

// ParseRules возвращает правила разбора DOM.
func (t *MarkType) ParseRules() []ParseRule { return t.spec.ParseDOM }

// Excludes проверяет, исключает ли эта марка марку другого типа.
func (t *MarkType) Excludes(other *MarkType) bool {
	t.registry.ensureChecked()
	return slices.Contains(t.excluded, other)
}

// Create создает марку с проверкой атрибутов.
func (t *MarkType) Create(attrs Attrs) (*Mark, error) {
	built, err := computeAttrs(t.spec.Name, t.spec.Attrs, attrs)
	if err != nil {
		return nil, err
	}
	return &Mark{typ: t, attrs: built}, nil
}

// IsInSet ищет марку этого типа в наборе.
func (t *MarkType) IsInSet(set []*Mark) *Mark {
	for _, m := range set {
		if m.typ == t {
			return m
		}
	}
	return nil
}

// RemoveFromSet удаляет из набора марки этого типа.
func (t *MarkType) RemoveFromSet(set []*Mark) []*Mark {
	var res []*Mark
	for _, m := range set {
		if m.typ != t {
			res = append(res, m)
		}
	}
	return res
}

const (
	// TopTypeName - имя корневого типа документа.
	TopTypeName = "doc"
	// TextTypeName - имя типа текстового узла.
	TextTypeName = "text"
)

// Registry - реестр типов узлов и марок. Заполняется при старте, после этого только читается.
type Registry struct {
	mu         sync.RWMutex
	nodes      []*NodeType
	nodeByName map[string]*NodeType
	marks      []*MarkType
	markByName map[string]*MarkType
	checked    bool
}

// NewRegistry создает пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		nodeByName: make(map[string]*NodeType),
		markByName: make(map[string]*MarkType),
	}
}

// Register регистрирует тип узла. Синтаксис выражения контента проверяется сразу,
// имена в нем разрешаются при Check или первом использовании.
func (r *Registry) Register(spec NodeSpec) (*NodeType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodeByName[spec.Name]; ok {
		return nil, &DuplicateTypeError{Name: spec.Name}
	}
	expr, err := parseContentExpr(spec.Name, spec.Content)
	if err != nil {
		return nil, err
	}
	t := &NodeType{
		spec:     spec,
		groups:   strings.Fields(spec.Group),
		expr:     expr,
		registry: r,
	}
	r.nodes = append(r.nodes, t)
	r.nodeByName[spec.Name] = t
	r.checked = false
	return t, nil
}

// RegisterMark регистрирует тип марки. Ранг марки равен порядку регистрации.
func (r *Registry) RegisterMark(spec MarkSpec) (*MarkType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.markByName[spec.Name]; ok {
		return nil, &DuplicateTypeError{Name: spec.Name}
	}
	t := &MarkType{
		spec:     spec,
		rank:     len(r.marks),
		groups:   strings.Fields(spec.Group),
		registry: r,
	}
	r.marks = append(r.marks, t)
	r.markByName[spec.Name] = t
	r.checked = false
	return t, nil
}

// Get возвращает тип узла по имени.
func (r *Registry) Get(name string) (*NodeType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.nodeByName[name]
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	return t, nil
}

// MustGet возвращает тип узла по имени и паникует, если его нет.
func (r *Registry) MustGet(name string) *NodeType {
	t, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Mark возвращает тип марки по имени.
func (r *Registry) Mark(name string) (*MarkType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.markByName[name]
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	return t, nil
}

// NodeTypes возвращает типы узлов в порядке регистрации.
func (r *Registry) NodeTypes() []*NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.nodes)
}

// MarkTypes возвращает типы марок в порядке регистрации.
func (r *Registry) MarkTypes() []*MarkType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.marks)
}

// TopNodeType возвращает корневой тип документа.
func (r *Registry) TopNodeType() (*NodeType, error) {
	return r.Get(TopTypeName)
}

// Text создает текстовый узел.
func (r *Registry) Text(text string, marks ...*Mark) (*Node, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	t, err := r.Get(TextTypeName)
	if err != nil {
		return nil, err
	}
	return &Node{typ: t, attrs: Attrs{}, text: text, marks: MarkSet(marks)}, nil
}

// Check разрешает имена во всех выражениях контента, наборах марок и исключениях.
func (r *Registry) Check() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.check()
}

func (r *Registry) ensureChecked() error {
	r.mu.RLock()
	checked := r.checked
	r.mu.RUnlock()
	if checked {
		return nil
	}
	return r.Check()
}

func (r *Registry) check() error {
	for _, t := range r.nodes {
		match, err := compileContent(t.expr, r.resolveNodeName)
		if err != nil {
			return err
		}
		t.match = match
		t.inlineContent = false
		for _, ct := range match.Types() {
			if ct.IsInline() {
				t.inlineContent = true
				break
			}
		}

		t.allMarks, t.markSet = false, nil
		switch {
		case t.spec.Marks == nil:
			t.allMarks = t.inlineContent
		case *t.spec.Marks == "_":
			t.allMarks = true
		default:
			marks, err := r.resolveMarkNames(*t.spec.Marks)
			if err != nil {
				return err
			}
			t.markSet = make(map[*MarkType]bool, len(marks))
			for _, m := range marks {
				t.markSet[m] = true
			}
		}
	}

	for _, m := range r.marks {
		switch {
		case m.spec.Excludes == nil:
			m.excluded = []*MarkType{m}
		case *m.spec.Excludes == "_":
			m.excluded = slices.Clone(r.marks)
		default:
			excluded, err := r.resolveMarkNames(*m.spec.Excludes)
			if err != nil {
				return err
			}
			m.excluded = excluded
		}
	}
	r.checked = true
	return nil
}

func (r *Registry) resolveNodeName(name string) ([]*NodeType, error) {
	if t, ok := r.nodeByName[name]; ok {
		return []*NodeType{t}, nil
	}
	var res []*NodeType
	for _, t := range r.nodes {
		if slices.Contains(t.groups, name) {
			res = append(res, t)
		}
	}
	if len(res) == 0 {
		return nil, &UnknownTypeError{Name: name}
	}
	return res, nil
}

func (r *Registry) resolveMarkNames(names string) ([]*MarkType, error) {
	var res []*MarkType
	for _, name := range strings.Fields(names) {
		if m, ok := r.markByName[name]; ok {
			res = append(res, m)
			continue
		}
		found := false
		for _, m := range r.marks {
			if slices.Contains(m.groups, name) {
				res = append(res, m)
				found = true
			}
		}
		if !found {
			return nil, &UnknownTypeError{Name: name}
		}
	}
	return res, nil
}
