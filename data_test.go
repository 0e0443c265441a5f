package folio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "projects.yml"), `
- name: Alpha
  path: projects/alpha
- name: Beta
  path: projects/beta
`)
	writeFile(t, filepath.Join(dir, "talks.json"), `[{"title": "Go at scale", "slug": "talks/go"}]`)
	writeFile(t, filepath.Join(dir, "books.toml"), `
[[books]]
title = "The Go Programming Language"
path = "books/gopl"
`)
	writeFile(t, filepath.Join(dir, "site.yml"), "tagline: hello\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	data, err := LoadData(dir)
	require.NoError(t, err)
	assert.NotContains(t, data, "notes")

	projects, err := data.Items("projects")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	p, ok := projects[1].Field("path")
	assert.True(t, ok)
	assert.Equal(t, "projects/beta", p)

	talks, err := data.Items("talks")
	require.NoError(t, err)
	require.Len(t, talks, 1)
	assert.Equal(t, "Go at scale", talks[0]["title"])

	books, err := data.Items("books")
	require.NoError(t, err)
	require.Len(t, books, 1)

	_, err = data.Items("site")
	assert.Error(t, err, "a mapping is not a list")

	missing, err := data.Items("nothing")
	assert.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLoadDataMissingDir(t *testing.T) {
	data, err := LoadData(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLoadDataInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.json"), `[{`)
	_, err := LoadData(dir)
	assert.Error(t, err)
}

func TestItemsRejectsNonMapping(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "projects.yml"), `
- name: Alpha
  path: projects/alpha
- projects/beta
- name: Gamma
  path: projects/gamma
`)
	data, err := LoadData(dir)
	require.NoError(t, err)

	_, err = data.Items("projects")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
}
