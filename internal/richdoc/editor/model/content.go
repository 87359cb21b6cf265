package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// exprKind - вид узла разобранного выражения контента.
type exprKind int

const (
	exprName exprKind = iota
	exprSeq
	exprChoice
	exprStar
	exprPlus
	exprOpt
	exprRange
)

type contentExpr struct {
	kind  exprKind
	name  string
	exprs []*contentExpr
	min   int
	max   int // -1 - без верхней границы
}

// parseContentExpr проверяет синтаксис выражения контента. Имена типов и групп на этом этапе не проверяются.
func parseContentExpr(typeName, src string) (*contentExpr, error) {
	s := &exprStream{typeName: typeName, src: src, tokens: tokenizeExpr(src)}
	if len(s.tokens) == 0 {
		return nil, nil
	}
	e, err := s.parseChoice()
	if err != nil {
		return nil, err
	}
	if s.pos < len(s.tokens) {
		return nil, s.fail("unexpected trailing %q", s.tokens[s.pos])
	}
	return e, nil
}

// tokenizeExpr разбивает выражение на имена и отдельные символы, пробелы отбрасываются.
func tokenizeExpr(src string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for _, r := range src {
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

type exprStream struct {
	typeName string
	src      string
	tokens   []string
	pos      int
}

func (s *exprStream) next() string {
	if s.pos < len(s.tokens) {
		return s.tokens[s.pos]
	}
	return ""
}

func (s *exprStream) eat(tok string) bool {
	if s.next() == tok && tok != "" {
		s.pos++
		return true
	}
	return false
}

func (s *exprStream) fail(format string, args ...any) error {
	return &InvalidContentExpressionError{Type: s.typeName, Expression: s.src, Reason: fmt.Sprintf(format, args...)}
}

func (s *exprStream) parseChoice() (*contentExpr, error) {
	var exprs []*contentExpr
	for {
		e, err := s.parseSeq()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !s.eat("|") {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &contentExpr{kind: exprChoice, exprs: exprs}, nil
}

func (s *exprStream) parseSeq() (*contentExpr, error) {
	var exprs []*contentExpr
	for {
		e, err := s.parseSubscript()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if n := s.next(); n == "" || n == ")" || n == "|" {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &contentExpr{kind: exprSeq, exprs: exprs}, nil
}

func (s *exprStream) parseSubscript() (*contentExpr, error) {
	e, err := s.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case s.eat("+"):
			e = &contentExpr{kind: exprPlus, exprs: []*contentExpr{e}}
		case s.eat("*"):
			e = &contentExpr{kind: exprStar, exprs: []*contentExpr{e}}
		case s.eat("?"):
			e = &contentExpr{kind: exprOpt, exprs: []*contentExpr{e}}
		case s.eat("{"):
			e, err = s.parseRange(e)
			if err != nil {
				return nil, err
			}
		default:
			return e, nil
		}
	}
}

func (s *exprStream) parseNum() (int, error) {
	tok := s.next()
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, s.fail("expected number, got %q", tok)
	}
	s.pos++
	return n, nil
}

func (s *exprStream) parseRange(e *contentExpr) (*contentExpr, error) {
	min, err := s.parseNum()
	if err != nil {
		return nil, err
	}
	max := min
	if s.eat(",") {
		if s.next() != "}" {
			if max, err = s.parseNum(); err != nil {
				return nil, err
			}
			if max < min {
				return nil, s.fail("range {%d,%d} is empty", min, max)
			}
		} else {
			max = -1
		}
	}
	if !s.eat("}") {
		return nil, s.fail("unclosed braced range")
	}
	return &contentExpr{kind: exprRange, min: min, max: max, exprs: []*contentExpr{e}}, nil
}

func (s *exprStream) parseAtom() (*contentExpr, error) {
	if s.eat("(") {
		e, err := s.parseChoice()
		if err != nil {
			return nil, err
		}
		if !s.eat(")") {
			return nil, s.fail("missing closing paren")
		}
		return e, nil
	}
	tok := s.next()
	if tok == "" {
		return nil, s.fail("unexpected end of expression")
	}
	for _, r := range tok {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return nil, s.fail("unexpected token %q", tok)
		}
	}
	s.pos++
	return &contentExpr{kind: exprName, name: tok}, nil
}

// names возвращает все имена, упомянутые в выражении.
func (e *contentExpr) names() []string {
	if e == nil {
		return nil
	}
	if e.kind == exprName {
		return []string{e.name}
	}
	var res []string
	for _, sub := range e.exprs {
		res = append(res, sub.names()...)
	}
	return res
}

// ContentMatch - скомпилированный автомат выражения контента.
type ContentMatch struct {
	states [][]nfaEdge
	accept int
}

type nfaEdge struct {
	term *NodeType // nil - эпсилон-переход
	to   int
}

// compileContent строит НКА по выражению; resolve переводит имя в список типов.
func compileContent(e *contentExpr, resolve func(name string) ([]*NodeType, error)) (*ContentMatch, error) {
	m := &ContentMatch{}
	start := m.newState()
	end, err := m.compile(e, start, resolve)
	if err != nil {
		return nil, err
	}
	m.accept = end
	return m, nil
}

func (m *ContentMatch) newState() int {
	m.states = append(m.states, nil)
	return len(m.states) - 1
}

func (m *ContentMatch) edge(from, to int, term *NodeType) {
	m.states[from] = append(m.states[from], nfaEdge{term: term, to: to})
}

func (m *ContentMatch) compile(e *contentExpr, from int, resolve func(string) ([]*NodeType, error)) (int, error) {
	if e == nil {
		return from, nil
	}
	switch e.kind {
	case exprName:
		types, err := resolve(e.name)
		if err != nil {
			return 0, err
		}
		end := m.newState()
		for _, t := range types {
			m.edge(from, end, t)
		}
		return end, nil
	case exprSeq:
		cur := from
		for _, sub := range e.exprs {
			next, err := m.compile(sub, cur, resolve)
			if err != nil {
				return 0, err
			}
			cur = next
		}
		return cur, nil
	case exprChoice:
		end := m.newState()
		for _, sub := range e.exprs {
			out, err := m.compile(sub, from, resolve)
			if err != nil {
				return 0, err
			}
			m.edge(out, end, nil)
		}
		return end, nil
	case exprStar:
		loop := m.newState()
		m.edge(from, loop, nil)
		out, err := m.compile(e.exprs[0], loop, resolve)
		if err != nil {
			return 0, err
		}
		m.edge(out, loop, nil)
		return loop, nil
	case exprPlus:
		loop := m.newState()
		out, err := m.compile(e.exprs[0], from, resolve)
		if err != nil {
			return 0, err
		}
		m.edge(out, loop, nil)
		out, err = m.compile(e.exprs[0], loop, resolve)
		if err != nil {
			return 0, err
		}
		m.edge(out, loop, nil)
		return loop, nil
	case exprOpt:
		end := m.newState()
		m.edge(from, end, nil)
		out, err := m.compile(e.exprs[0], from, resolve)
		if err != nil {
			return 0, err
		}
		m.edge(out, end, nil)
		return end, nil
	case exprRange:
		cur := from
		for i := 0; i < e.min; i++ {
			next, err := m.compile(e.exprs[0], cur, resolve)
			if err != nil {
				return 0, err
			}
			cur = next
		}
		if e.max == -1 {
			return m.compile(&contentExpr{kind: exprStar, exprs: e.exprs}, cur, resolve)
		}
		for i := e.min; i < e.max; i++ {
			next := m.newState()
			m.edge(cur, next, nil)
			out, err := m.compile(e.exprs[0], cur, resolve)
			if err != nil {
				return 0, err
			}
			m.edge(out, next, nil)
			cur = next
		}
		return cur, nil
	}
	return 0, fmt.Errorf("model: unknown expression kind %d", e.kind)
}

// closure добавляет в набор состояния, достижимые по эпсилон-переходам.
func (m *ContentMatch) closure(set map[int]bool) map[int]bool {
	stack := make([]int, 0, len(set))
	for s := range set {
		stack = append(stack, s)
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range m.states[s] {
			if e.term == nil && !set[e.to] {
				set[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return set
}

// Matches проверяет, что последовательность типов полностью удовлетворяет выражению.
func (m *ContentMatch) Matches(types []*NodeType) bool {
	if m == nil {
		return len(types) == 0
	}
	set := m.closure(map[int]bool{0: true})
	for _, t := range types {
		next := map[int]bool{}
		for s := range set {
			for _, e := range m.states[s] {
				if e.term == t {
					next[e.to] = true
				}
			}
		}
		if len(next) == 0 {
			return false
		}
		set = m.closure(next)
	}
	return set[m.accept]
}

// Types возвращает все типы, встречающиеся в выражении.
func (m *ContentMatch) Types() []*NodeType {
	if m == nil {
		return nil
	}
	var res []*NodeType
	seen := map[*NodeType]bool{}
	for _, edges := range m.states {
		for _, e := range edges {
			if e.term != nil && !seen[e.term] {
				seen[e.term] = true
				res = append(res, e.term)
			}
		}
	}
	return res
}
