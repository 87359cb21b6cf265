package menu

// Dictionary - подписи пунктов меню.
type Dictionary struct {
	Placeholder   string `json:"placeholder"`
	Strong        string `json:"strong"`
	Em            string `json:"em"`
	Strikethrough string `json:"strikethrough"`
	Mark          string `json:"mark"`
	CodeInline    string `json:"codeInline"`
	Heading       string `json:"heading"`
	Subheading    string `json:"subheading"`
	Quote         string `json:"quote"`
	LeftToRight   string `json:"leftToRight"`
	RightToLeft   string `json:"rightToLeft"`
	AlignLeft     string `json:"alignLeft"`
	AlignCenter   string `json:"alignCenter"`
	AlignRight    string `json:"alignRight"`
	CheckboxList  string `json:"checkboxList"`
	BulletList    string `json:"bulletList"`
	OrderedList   string `json:"orderedList"`
	Outdent       string `json:"outdent"`
	Indent        string `json:"indent"`
	CreateLink    string `json:"createLink"`
	Comment       string `json:"comment"`
	Copy          string `json:"copy"`
}

var English = Dictionary{
	Placeholder:   "Placeholder",
	Strong:        "Bold",
	Em:            "Italic",
	Strikethrough: "Strikethrough",
	Mark:          "Highlight",
	CodeInline:    "Code",
	Heading:       "Big heading",
	Subheading:    "Small heading",
	Quote:         "Quote",
	LeftToRight:   "Left to right",
	RightToLeft:   "Right to left",
	AlignLeft:     "Align left",
	AlignCenter:   "Align center",
	AlignRight:    "Align right",
	CheckboxList:  "Todo list",
	BulletList:    "Bulleted list",
	OrderedList:   "Ordered list",
	Outdent:       "Outdent",
	Indent:        "Indent",
	CreateLink:    "Create link",
	Comment:       "Comment",
	Copy:          "Copy",
}

var Russian = Dictionary{
	Placeholder:   "Заполнитель",
	Strong:        "Жирный",
	Em:            "Курсив",
	Strikethrough: "Зачеркнутый",
	Mark:          "Выделение",
	CodeInline:    "Код",
	Heading:       "Большой заголовок",
	Subheading:    "Малый заголовок",
	Quote:         "Цитата",
	LeftToRight:   "Слева направо",
	RightToLeft:   "Справа налево",
	AlignLeft:     "По левому краю",
	AlignCenter:   "По центру",
	AlignRight:    "По правому краю",
	CheckboxList:  "Список задач",
	BulletList:    "Маркированный список",
	OrderedList:   "Нумерованный список",
	Outdent:       "Уменьшить отступ",
	Indent:        "Увеличить отступ",
	CreateLink:    "Создать ссылку",
	Comment:       "Комментарий",
	Copy:          "Копировать",
}

// DictionaryFor возвращает подписи для языка. Неизвестный язык - английский.
func DictionaryFor(lang string) Dictionary {
	if lang == "ru" {
		return Russian
	}
	return English
}
