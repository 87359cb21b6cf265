package main

import (
	"bytes"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

const errorsSrc = `package apierrors

import "net/http"

type DefinedError struct {
	Code       int
	StatusCode int
	Err        string
	RuErr      string
}

var (
	ErrGeneric  = DefinedError{Code: 1001, StatusCode: http.StatusBadRequest, Err: "bad request", RuErr: "Некорректный запрос"}
	ErrParse    = DefinedError{Code: 4004, StatusCode: http.StatusUnprocessableEntity, Err: "markdown " + "parse failed: %s"}
	ErrDefault  = DefinedError{Code: 4010, Err: "default status"}
	notAnError  = 42
)
`

func TestGetRows(t *testing.T) {
	f, err := parser.ParseFile(token.NewFileSet(), "apierrors.go", errorsSrc, 0)
	require.NoError(t, err)

	rows := getRows(f)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"**1001**", "400 *StatusBadRequest*", "`bad request`", "`Некорректный запрос`"}, rows[0])
	assert.Equal(t, "422 *StatusUnprocessableEntity*", rows[1][1])
	assert.Equal(t, "`markdown parse failed: %s`", rows[1][2])
	assert.Equal(t, "400 *StatusBadRequest*", rows[2][1])
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, "409", getStatusCode("StatusConflict"))
	assert.Equal(t, "", getStatusCode("StatusUnknown"))
}

func TestWriteDocs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeErrors(&buf, [][]string{{"**1001**", "400", "`bad`", "`плохо`"}}))
	assert.Contains(t, buf.String(), "# Перечень кодов ошибок")
	assert.Contains(t, buf.String(), "**1001**")

	buf.Reset()
	require.NoError(t, writeSchema(&buf, nodes.Describe(nodes.MustSchema())))
	out := buf.String()
	assert.Contains(t, out, "# Схема документа")
	assert.Contains(t, out, "**heading**")
	assert.Contains(t, out, "level=1")
	assert.Contains(t, out, "dir (ext)")
}
