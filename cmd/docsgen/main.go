// Генерация справочной документации сервиса документов в формате Markdown.
// Строит таблицу кодов ошибок API по файлу с их определениями и описание схемы документа.
//
// Основные возможности:
//   - Чтение файла Go с определениями ошибок и извлечение кодов, статусов и сообщений.
//   - Описание типов узлов и марок схемы с атрибутами и токенами markdown.
//   - Описание строки атрибутов блока {: ...} в markdown.
//   - Создание Markdown-документа с таблицами.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

func main() {
	kind := flag.String("kind", "errors", "Document kind: errors or schema")
	errorsFile := flag.String("src", "internal/richdoc/apierrors/apierrors.go", "Path of apierrors.go")
	outputMd := flag.String("out", "", "Path to output md")
	flag.Parse()

	if *outputMd == "" {
		*outputMd = *kind + ".md"
	}
	slog.Info("Generate docs", "kind", *kind, "out", *outputMd)

	ff, err := os.Create(*outputMd)
	if err != nil {
		slog.Error("Create output file", "err", err)
		os.Exit(1)
	}
	defer ff.Close()

	switch *kind {
	case "errors":
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, *errorsFile, nil, 0)
		if err != nil {
			panic(err)
		}
		err = writeErrors(ff, getRows(f))
	case "schema":
		err = writeSchema(ff, nodes.Describe(nodes.MustSchema()))
	default:
		err = fmt.Errorf("unknown kind %q", *kind)
	}
	if err != nil {
		slog.Error("Generate docs fail", "err", err)
		os.Exit(1)
	}
	slog.Info("Docs generated")
}

func writeErrors(w io.Writer, rows [][]string) error {
	return md.NewMarkdown(w).
		H1("Перечень кодов ошибок").
		PlainText("Данный раздел посвящен описанию возможных ошибок от сервера.").
		CustomTable(md.TableSet{
			Header: []string{"Код", "HTTP код", "Сообщение", "Сообщение на русском"},
			Rows:   rows,
		}, md.TableOptions{
			AutoWrapText: false,
		}).Build()
}

func writeSchema(w io.Writer, info nodes.SchemaInfo) error {
	doc := md.NewMarkdown(w).
		H1("Схема документа").
		PlainText("Типы узлов и марок в порядке регистрации. Атрибуты с пометкой ext пишутся в markdown строкой {: name=\"value\"} под блоком.").
		H2("Узлы").
		CustomTable(md.TableSet{
			Header: []string{"Тип", "Группа", "Содержимое", "Токен markdown", "Атрибуты"},
			Rows:   typeRows(info.Nodes, true),
		}, md.TableOptions{AutoWrapText: false}).
		H2("Марки").
		CustomTable(md.TableSet{
			Header: []string{"Тип", "Атрибуты"},
			Rows:   typeRows(info.Marks, false),
		}, md.TableOptions{AutoWrapText: false}).
		H2("Атрибуты блоков в markdown").
		BulletList(
			"Строка вида "+md.Code(`{: dir="rtl" textAlign="center"}`)+" сразу после блока задает его атрибуты.",
			"Значения в двойных кавычках, кавычки и амперсанд экранируются как "+md.Code("&quot;")+" и "+md.Code("&amp;")+".",
			"Строка с неизвестным атрибутом или недопустимым значением остается текстом абзаца.",
		)
	return doc.Build()
}

func typeRows(types []nodes.TypeInfo, withContent bool) [][]string {
	rows := make([][]string, 0, len(types))
	for _, t := range types {
		attrs := make([]string, 0, len(t.Attrs))
		for _, a := range t.Attrs {
			s := a.Name
			if a.Default != nil {
				s += fmt.Sprintf("=%v", a.Default)
			}
			if a.Required {
				s += " (required)"
			}
			if a.Extension {
				s += " (ext)"
			}
			attrs = append(attrs, s)
		}
		row := []string{md.Bold(t.Name)}
		if withContent {
			row = append(row, t.Group, md.Code(t.Content), t.Token)
		}
		rows = append(rows, append(row, strings.Join(attrs, ", ")))
	}
	return rows
}

// getRows извлекает строки таблицы ошибок из объявлений DefinedError файла.
func getRows(f *ast.File) [][]string {
	var rows [][]string
	for _, d := range f.Decls {
		decl, ok := d.(*ast.GenDecl)
		if !ok || decl.Tok != token.VAR {
			continue
		}
		for _, spec := range decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, value := range vs.Values {
				definedError, ok := value.(*ast.CompositeLit)
				if !ok {
					continue
				}
				if typ, ok := definedError.Type.(*ast.Ident); !ok || typ.Name != "DefinedError" {
					continue
				}
				row := make([]string, 4)
				statusName := "StatusBadRequest"
				for _, v := range definedError.Elts {
					param, ok := v.(*ast.KeyValueExpr)
					if !ok {
						continue
					}
					switch fmt.Sprint(param.Key) {
					case "Code":
						row[0] = md.Bold(param.Value.(*ast.BasicLit).Value)
					case "StatusCode":
						statusName = param.Value.(*ast.SelectorExpr).Sel.Name
					case "Err":
						row[2] = md.Code(exprString(param.Value))
					case "RuErr":
						row[3] = md.Code(exprString(param.Value))
					}
				}
				row[1] = fmt.Sprintf("%s %s", getStatusCode(statusName), md.Italic(statusName))
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// exprString собирает строковую константу, в том числе склеенную через +.
func exprString(expr ast.Expr) string {
	switch x := expr.(type) {
	case *ast.BasicLit:
		if s, err := strconv.Unquote(x.Value); err == nil {
			return s
		}
		return x.Value
	case *ast.BinaryExpr:
		return exprString(x.X) + exprString(x.Y)
	case *ast.ParenExpr:
		return exprString(x.X)
	}
	return ""
}

var statusCodes = map[string]int{
	"StatusOK":                    http.StatusOK,
	"StatusBadRequest":            http.StatusBadRequest,
	"StatusUnauthorized":          http.StatusUnauthorized,
	"StatusForbidden":             http.StatusForbidden,
	"StatusNotFound":              http.StatusNotFound,
	"StatusMethodNotAllowed":      http.StatusMethodNotAllowed,
	"StatusConflict":              http.StatusConflict,
	"StatusGone":                  http.StatusGone,
	"StatusRequestEntityTooLarge": http.StatusRequestEntityTooLarge,
	"StatusUnsupportedMediaType":  http.StatusUnsupportedMediaType,
	"StatusUnprocessableEntity":   http.StatusUnprocessableEntity,
	"StatusTooManyRequests":       http.StatusTooManyRequests,
	"StatusInternalServerError":   http.StatusInternalServerError,
	"StatusNotImplemented":        http.StatusNotImplemented,
	"StatusBadGateway":            http.StatusBadGateway,
	"StatusServiceUnavailable":    http.StatusServiceUnavailable,
}

// getStatusCode преобразует имя константы net/http в HTTP код.
func getStatusCode(status string) string {
	if code, ok := statusCodes[status]; ok {
		return strconv.Itoa(code)
	}
	return ""
}
