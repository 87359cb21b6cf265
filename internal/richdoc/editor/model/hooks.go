package model

// DOMElement - минимальное представление DOM-элемента, доступное правилам разбора.
// Реализуется пакетом dom поверх golang.org/x/net/html.
type DOMElement interface {
	// Tag возвращает имя тега в нижнем регистре.
	Tag() string
	// Attr возвращает значение атрибута и признак его наличия.
	Attr(name string) (string, bool)
	// Style возвращает значение CSS-свойства; пустая строка - свойство не задано.
	Style(property string) string
	// TextContent возвращает текст элемента со всеми потомками.
	TextContent() string
	// ChildElements возвращает дочерние элементы.
	ChildElements() []DOMElement
}

// ParseRule - правило распознавания DOM-элемента как узла или марки.
type ParseRule struct {
	// Tag - имя тега (в нижнем регистре), к которому применяется правило.
	Tag string
	// Match - дополнительное условие; nil - подходит любой элемент с этим тегом.
	Match func(el DOMElement) bool
	// GetAttrs извлекает атрибуты. Отсутствующие ключи получают значения по умолчанию.
	GetAttrs func(el DOMElement) Attrs
	// PreserveText - содержимое берется как текст элемента целиком (блоки кода).
	PreserveText bool
	// Ignore - элемент пропускается вместе с содержимым.
	Ignore bool
}

// Matches проверяет применимость правила к элементу.
func (r ParseRule) Matches(el DOMElement) bool {
	if r.Tag != el.Tag() {
		return false
	}
	return r.Match == nil || r.Match(el)
}

// DOMAttr - атрибут в выходном DOM.
type DOMAttr struct {
	Key string
	Val string
}

// DOMSpec описывает выходную DOM-структуру узла или марки.
// Hole отмечает место, куда вставляется содержимое; у листовых узлов его нет.
// Raw - готовый HTML, вставляется вместо элемента.
type DOMSpec struct {
	Tag      string
	Attrs    []DOMAttr
	Children []DOMSpec
	Text     string
	Hole     bool
	Raw      string
}

// MarkdownWriter - состояние сериализатора markdown, доступное функциям ToMarkdown.
type MarkdownWriter interface {
	// Write пишет строку как есть, предварительно закрыв отложенный блок.
	Write(s string)
	// Text пишет текст, экранируя спецсимволы markdown при escape=true.
	Text(s string, escape bool)
	// EnsureNewLine гарантирует, что вывод заканчивается переводом строки.
	EnsureNewLine()
	// CloseBlock помечает блок закрытым: следующий блок отделяется пустой строкой.
	CloseBlock(n *Node)
	// WrapBlock пишет содержимое с префиксом delim на каждой строке (firstDelim на первой).
	WrapBlock(delim string, firstDelim string, n *Node, f func())
	// RenderInline пишет строчное содержимое узла с марками.
	RenderInline(parent *Node)
	// RenderContent пишет блочное содержимое узла.
	RenderContent(parent *Node)
	// RenderList пишет элементы списка с отступом delim; marker возвращает маркер i-го элемента.
	RenderList(n *Node, delim string, marker func(i int) string)
	// Table выполняет f в контексте ячеек таблицы.
	Table(f func())
	// InTable сообщает, идет ли запись внутри ячейки таблицы.
	InTable() bool
	// Esc экранирует спецсимволы markdown.
	Esc(s string, startOfLine bool) string
	// Repeat повторяет строку n раз.
	Repeat(s string, n int) string
	// Attributes пишет строку расширения атрибутов для блока, если она нужна.
	Attributes(n *Node)
	// Siblings возвращает родителя текущего узла и его индекс.
	Siblings() (parent *Node, index int)
}

// MarkdownToken - разобранный токен markdown, который сопоставляется с типом узла.
type MarkdownToken struct {
	Name string
	Meta map[string]string
}

// MarkdownRule связывает имя токена markdown с типом узла.
type MarkdownRule struct {
	// Token - имя токена, например "paragraph" или "heading".
	Token string
	// GetAttrs переводит метаданные токена в атрибуты.
	GetAttrs func(tok MarkdownToken) Attrs
}

// MarkMarkdown описывает запись марки в markdown.
type MarkMarkdown struct {
	// Token - имя токена разбора.
	Token string
	// Open и Close возвращают разделители вокруг отмеченного текста.
	Open  func(m *Mark) string
	Close func(m *Mark) string
	// Code - содержимое пишется без экранирования внутри обратных кавычек.
	Code bool
	// ExpelEnclosingWhitespace - пробелы по краям выносятся за пределы марки.
	ExpelEnclosingWhitespace bool
	// GetAttrs переводит метаданные токена в атрибуты.
	GetAttrs func(tok MarkdownToken) Attrs
}
