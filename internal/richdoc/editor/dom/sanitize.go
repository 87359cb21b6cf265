package dom

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
)

// UgcPolicy - политика очистки пользовательского HTML: UGC-политика bluemonday плюс
// атрибуты, которые переносят dir, выравнивание, списки задач и язык блоков кода.
var UgcPolicy *bluemonday.Policy = bluemonday.UGCPolicy()

var minifier = minify.New()

func init() {
	UgcPolicy.AllowAttrs("dir").Matching(regexp.MustCompile(`^(?i)(ltr|rtl|auto)$`)).Globally()
	UgcPolicy.AllowStyles("text-align").Matching(bluemonday.CellAlign).Globally()

	UgcPolicy.AllowAttrs("data-type").Matching(regexp.MustCompile("^taskList$")).OnElements("ul")
	UgcPolicy.AllowAttrs("data-checked").Matching(regexp.MustCompile("^(true|false)$")).OnElements("li")
	UgcPolicy.AllowAttrs("data-type").Matching(regexp.MustCompile("^taskItem$")).OnElements("li")
	UgcPolicy.AllowAttrs("start").Matching(regexp.MustCompile(`^\d+$`)).OnElements("ol")

	UgcPolicy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+#.-]+$`)).OnElements("code")
	UgcPolicy.AllowAttrs("data-language").Matching(regexp.MustCompile(`^[\w+#.-]+$`)).OnElements("pre")

	minifier.Add("text/html", &mhtml.Minifier{
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
	})
}

// Sanitize очищает недоверенный HTML перед разбором.
func Sanitize(s string) string {
	return UgcPolicy.Sanitize(s)
}

// Minify сжимает HTML, сохраняя закрывающие теги и кавычки атрибутов.
func Minify(s string) (string, error) {
	return minifier.String("text/html", s)
}
