package tiptap_test

import (
	"fmt"
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/tiptap"
)

// ExampleParseJSON демонстрирует базовое использование парсера TipTap JSON.
func ExampleParseJSON() {
	// JSON контент от TipTap редактора
	jsonContent := `{
		"type": "doc",
		"content": [
			{
				"type": "paragraph",
				"attrs": {"textAlign": "left", "indent": null},
				"content": [
					{"type": "text", "marks": [{"type": "bold"}], "text": "Привет"},
					{"type": "text", "text": " "},
					{"type": "text", "marks": [{"type": "italic"}], "text": "мир"}
				]
			}
		]
	}`

	doc, err := tiptap.ParseJSON(nodes.MustSchema(), strings.NewReader(jsonContent))
	if err != nil {
		fmt.Printf("Ошибка парсинга: %v\n", err)
		return
	}

	fmt.Println(doc)
	fmt.Println(doc.Child(0).Attr("textAlign"))

	// Output:
	// doc(paragraph(strong("Привет"), " ", em("мир")))
	// left
}
