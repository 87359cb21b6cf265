package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		convertFlags.from, convertFlags.to = "markdown", "html"
		convertFlags.sanitize, convertFlags.minify, convertFlags.plain = false, false, false
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "richdoc version DEV")
}

func TestConvertStdin(t *testing.T) {
	out, err := run(t, "## Title\n\ntext", "convert", "--from", "md", "--to", "html")
	require.NoError(t, err)
	assert.Equal(t, "<h2>Title</h2><p>text</p>\n", out)
}

func TestConvertFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.html")
	require.NoError(t, os.WriteFile(path, []byte(`<h2>Title</h2><p dir="rtl">x</p>`), 0o644))

	out, err := run(t, "", "convert", "-f", "html", "-t", "markdown", path)
	require.NoError(t, err)
	assert.Equal(t, "## Title\n\nx\n{: dir=\"rtl\"}\n", out)

	out, err = run(t, "", "convert", "-f", "html", "-t", "markdown", "--plain", path)
	require.NoError(t, err)
	assert.Equal(t, "## Title\n\nx\n", out)
}

func TestConvertErrors(t *testing.T) {
	_, err := run(t, "text", "convert", "--from", "docx")
	assert.Error(t, err)

	_, err = run(t, "", "convert", filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "", "schema")
	require.NoError(t, err)

	var info struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	names := make([]string, 0, len(info.Nodes))
	for _, n := range info.Nodes {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, "doc")
	assert.Contains(t, names, "heading")
}
