package folio

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLayout = `<!DOCTYPE html>
<html>
<head><title>{{ .Title }}</title></head>
<body{{ if eq .Page.URL "/" }} data-route="home"{{ end }}>
<nav id="mySidebar" style="display:none">{{ template "nav" . }}</nav>
<div id="myOverlay" style="display:none"></div>
<main>{{ .Content }}</main>
<div id="modal01" style="display:none"><img id="img01"><div id="caption"></div></div>
</body>
</html>
`

const helloWorld = `---
title: Hello World
tags: go, web
---
This is how the site was "built" -- with Go.

READMORE

![A cat](/images/cat.jpg)

~~~go
package main

func main() {}
~~~
`

func testSite() map[string]string {
	return map[string]string{
		"source/layouts/layout.html":            testLayout,
		"source/layouts/article_layout.html":    `<article class="article-content"><h1>{{ .Page.Title }}</h1>{{ .Content }}</article>`,
		"source/layouts/plain.html":             "---\nlayout: false\n---\n<html><body>{{ .Content }}</body></html>\n",
		"source/_nav.html":                      `<a href="{{ url_for "/blog/index.html" }}">Blog</a>`,
		"source/index.html":                     `<section id="about"><a href="#projects">Projects</a></section><section id="projects"></section>`,
		"source/about.md":                       "---\ntitle: About\n---\n# About me\n",
		"source/404.html":                       "---\ndirectory_index: false\n---\n<h1>Nothing here</h1>\n",
		"source/bare.html":                      "---\nlayout: plain\n---\n<p>bare</p>\n",
		"source/robots.txt":                     "User-agent: *\nSitemap: {{ absolute_url \"/sitemap.xml\" }}\n",
		"source/api/projects.json":              `[{{ range $i, $p := .Site.Data.projects }}{{ if $i }},{{ end }}"{{ $p.name }}"{{ end }}]`,
		"source/stylesheets/site.css":           "body { margin: 0; }\n",
		"source/project/template.html":          `<h1>{{ .project.name }}</h1>`,
		"source/blog/index.html":                "---\ntitle: Blog\npageable: true\nper_page: 2\n---\n{{ range .page_articles }}<a href=\"{{ .URL }}\">{{ .Title }}</a>{{ end }}{{ if .next_page }}<a href=\"{{ .next_page }}\">Older</a>{{ end }}",
		"source/blog/tag.html":                  `<h1>{{ .tag_title }}</h1>{{ range .articles }}<a href="{{ .URL }}">{{ .Title }}</a>{{ end }}`,
		"source/blog/calendar.html":             `<h1>{{ .year }}{{ if .month }}/{{ .month }}{{ end }}</h1>{{ range .articles }}<a href="{{ .URL }}">{{ .Title }}</a>{{ end }}`,
		"source/blog/2024-01-15-hello-world.md": helloWorld,
		"source/blog/2024-02-01-second.md":      "---\ntags: [go]\n---\nSecond post.\n",
		"source/blog/2023-12-05-third.md":       "---\ntitle: Third\ntags: rust\n---\nThird post.\n",
		"source/blog/2024-03-01-draft.md":       "---\npublished: false\n---\nNot yet.\n",
		"data/projects.yml":                     "- name: Alpha\n  title: Alpha\n  path: projects/alpha\n- name: Beta\n  path: projects/beta\n",
	}
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(name)), content)
	}
	return dir
}

func newTestApp(t *testing.T, dir string) *App {
	t.Helper()
	logger := log.New("test")
	logger.SetOutput(io.Discard)

	cfg := DefaultConfig().WithRoot(dir)
	cfg.URL = "https://example.com"
	cfg.Title = "Test Site"
	app := New(cfg, WithLogger(logger))
	t.Cleanup(func() { app.Close() })
	return app
}

func readOutput(t *testing.T, app *App, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(app.Config.BuildPath(), filepath.FromSlash(name)))
	require.NoError(t, err, "reading %s", name)
	return string(b)
}

func assertMissing(t *testing.T, app *App, name string) {
	t.Helper()
	_, err := os.Stat(filepath.Join(app.Config.BuildPath(), filepath.FromSlash(name)))
	assert.True(t, os.IsNotExist(err), "%s should not exist", name)
}

func TestBuildSite(t *testing.T) {
	app := newTestApp(t, writeSite(t, testSite()))
	res, err := app.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Articles)
	assert.Equal(t, res.Pages, res.Written)
	assert.Zero(t, res.Skipped)

	t.Run("home", func(t *testing.T) {
		home := readOutput(t, app, "index.html")
		assert.Contains(t, home, `data-route="home"`)
		assert.Contains(t, home, `<title>Test Site</title>`)
		assert.Contains(t, home, `href="/blog/"`)
	})

	t.Run("pretty urls", func(t *testing.T) {
		about := readOutput(t, app, "about/index.html")
		assert.Contains(t, about, ">About me</h1>")
		assert.Contains(t, about, "<title>About | Test Site</title>")
		assert.NotContains(t, about, "data-route")
		assertMissing(t, app, "about.html")

		notFound := readOutput(t, app, "404.html")
		assert.Contains(t, notFound, "Nothing here")
		assert.Contains(t, notFound, `id="mySidebar"`)
	})

	t.Run("proxy pages", func(t *testing.T) {
		alpha := readOutput(t, app, "projects/alpha/index.html")
		assert.Contains(t, alpha, "<h1>Alpha</h1>")
		assert.Contains(t, alpha, `id="modal01"`, "proxy pages use the layout")
		assert.Contains(t, readOutput(t, app, "projects/beta/index.html"), "<h1>Beta</h1>")
		assertMissing(t, app, "project/template/index.html")

		sitemap := readOutput(t, app, "sitemap.xml")
		assert.NotContains(t, sitemap, "projects/alpha")
		assert.Contains(t, sitemap, "<loc>https://example.com/about/</loc>")
	})

	t.Run("no layout", func(t *testing.T) {
		assert.Equal(t, `["Alpha","Beta"]`, readOutput(t, app, "api/projects.json"))
		robots := readOutput(t, app, "robots.txt")
		assert.Equal(t, "User-agent: *\nSitemap: https://example.com/sitemap.xml\n", robots)

		feed := readOutput(t, app, "feed.xml")
		assert.True(t, strings.HasPrefix(feed, "<?xml"))
		assert.Contains(t, feed, "<link>https://example.com/blog/2024/01/15/hello-world/</link>")
		assert.NotContains(t, feed, "<html")

		assert.Equal(t, "body { margin: 0; }\n", readOutput(t, app, "stylesheets/site.css"))
	})

	t.Run("article", func(t *testing.T) {
		post := readOutput(t, app, "blog/2024/01/15/hello-world/index.html")
		assert.Contains(t, post, "<title>Hello World | Test Site</title>")
		assert.Contains(t, post, `class="chroma"`)
		assert.Contains(t, post, `class="img-responsive"`)
		assert.Contains(t, post, "“built”")
		assert.Contains(t, post, "–")
		assert.NotContains(t, post, "READMORE")
		assert.Contains(t, post, `id="mySidebar"`, "article layout nests in the site layout")
	})

	t.Run("blog listings", func(t *testing.T) {
		first := readOutput(t, app, "blog/index.html")
		assert.Contains(t, first, `href="/blog/2024/02/01/second/"`)
		assert.Contains(t, first, `href="/blog/2024/01/15/hello-world/"`)
		assert.NotContains(t, first, "Third")
		assert.Contains(t, first, `href="/blog/page/2/"`)

		second := readOutput(t, app, "blog/page/2/index.html")
		assert.Contains(t, second, "Third")

		goTag := readOutput(t, app, "blog/tags/go/index.html")
		assert.Contains(t, goTag, "<h1>Go</h1>")
		assert.Contains(t, goTag, "Hello World")
		assert.Contains(t, goTag, "Second")
		assert.NotContains(t, goTag, "Third")
		readOutput(t, app, "blog/tags/rust/index.html")
		readOutput(t, app, "blog/tags/web/index.html")
	})

	t.Run("calendar", func(t *testing.T) {
		year := readOutput(t, app, "blog/2024/index.html")
		assert.Contains(t, year, "Hello World")
		assert.Contains(t, year, "Second")
		assert.NotContains(t, year, "Third")
		assert.Contains(t, readOutput(t, app, "blog/2024/01/index.html"), "<h1>2024/01</h1>")
		readOutput(t, app, "blog/2024/01/15/index.html")
		readOutput(t, app, "blog/2023/12/05/index.html")
	})

	t.Run("drafts", func(t *testing.T) {
		assertMissing(t, app, "blog/2024/03/01/draft/index.html")
		assertMissing(t, app, "blog/2024/03/index.html")
	})

	t.Run("generated assets", func(t *testing.T) {
		assert.Contains(t, readOutput(t, app, "stylesheets/highlight.css"), ".chroma")
		assert.Contains(t, readOutput(t, app, "javascripts/site.js"), "w3_open")
	})
}

func TestBuildIncremental(t *testing.T) {
	dir := writeSite(t, testSite())
	app := newTestApp(t, dir)
	ctx := context.Background()

	first, err := app.Build(ctx)
	require.NoError(t, err)

	again, err := app.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Pages, again.Pages)
	assert.Zero(t, again.Written)
	assert.Equal(t, again.Pages, again.Skipped)
	assert.Zero(t, again.Removed)

	require.NoError(t, os.Remove(filepath.Join(dir, "source", "blog", "2023-12-05-third.md")))
	res, err := app.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Articles)
	assert.Positive(t, res.Removed)
	assertMissing(t, app, "blog/2023/12/05/third/index.html")
	assertMissing(t, app, "blog/tags/rust/index.html")
	assertMissing(t, app, "blog/2023/index.html")
	assertMissing(t, app, "blog/page/2/index.html")

	// A deleted output is written again even though its content is unchanged.
	require.NoError(t, os.Remove(filepath.Join(app.Config.BuildPath(), "about", "index.html")))
	res, err = app.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	readOutput(t, app, "about/index.html")
}

func TestBuildSourceOverridesGenerated(t *testing.T) {
	files := testSite()
	files["source/javascripts/site.js"] = "console.log('mine');\n"
	app := newTestApp(t, writeSite(t, files))
	_, err := app.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "console.log('mine');\n", readOutput(t, app, "javascripts/site.js"))
}

func TestBuildProxyErrors(t *testing.T) {
	tests := []struct {
		name     string
		projects string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "duplicate path",
			projects: "- name: A\n  path: projects/same\n- name: B\n  path: projects/same\n",
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrDuplicatePath), "got %v", err)
			},
		},
		{
			name:     "missing path",
			projects: "- name: A\n  path: projects/a\n- name: B\n",
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "item 1")
			},
		},
		{
			name:     "item not a mapping",
			projects: "- name: A\n  path: projects/a\n- projects/b\n- name: C\n",
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "item 1 is string")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := testSite()
			files["data/projects.yml"] = tt.projects
			app := newTestApp(t, writeSite(t, files))
			_, err := app.Build(context.Background())
			tt.check(t, err)
		})
	}
}

func TestBuildTagsSharingASlug(t *testing.T) {
	files := testSite()
	files["source/blog/2024-04-01-languages.md"] = "---\ntitle: Languages\ntags: [C++, C, 日本]\n---\nMany languages.\n"
	files["source/blog/2024-04-02-pointers.md"] = "---\ntitle: Pointers\ntags: [c]\n---\nPointers.\n"
	files["source/blog/2024-04-03-kanji.md"] = "---\ntitle: Kanji\ntags: [中文]\n---\nKanji.\n"
	app := newTestApp(t, writeSite(t, files))
	_, err := app.Build(context.Background())
	require.NoError(t, err)

	c := readOutput(t, app, "blog/tags/c/index.html")
	assert.Contains(t, c, "Languages")
	assert.Contains(t, c, "Pointers")
	assert.Equal(t, 1, strings.Count(c, "Languages"), "a post tagged C and C++ is listed once")

	ja := readOutput(t, app, "blog/tags/日本/index.html")
	assert.Contains(t, ja, "Languages")
	assert.NotContains(t, ja, "Kanji")
	zh := readOutput(t, app, "blog/tags/中文/index.html")
	assert.Contains(t, zh, "Kanji")
	assert.NotContains(t, zh, "Languages")

	site := newSiteView(&app.Config, nil)
	urls := map[string]bool{}
	for _, tag := range []string{"C", "日本", "中文"} {
		u := site.TagURL(tag)
		assert.NotContains(t, u, "//", "tag %q", tag)
		urls[u] = true
	}
	assert.Len(t, urls, 3)
	assert.Equal(t, site.TagURL("C"), site.TagURL("C++"))
}

func TestBuildMissingProxyTemplate(t *testing.T) {
	files := testSite()
	delete(files, "source/project/template.html")
	app := newTestApp(t, writeSite(t, files))
	_, err := app.Build(context.Background())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestBuildWithoutBlogTemplates(t *testing.T) {
	files := testSite()
	delete(files, "source/blog/tag.html")
	delete(files, "source/blog/calendar.html")
	app := newTestApp(t, writeSite(t, files))
	_, err := app.Build(context.Background())
	require.NoError(t, err)
	assertMissing(t, app, "blog/tags/go/index.html")
	assertMissing(t, app, "blog/2024/index.html")
	readOutput(t, app, "blog/2024/01/15/hello-world/index.html")
}

func TestCheck(t *testing.T) {
	app := newTestApp(t, writeSite(t, testSite()))
	_, err := app.Check()
	assert.Error(t, err, "nothing built yet")

	_, err = app.Build(context.Background())
	require.NoError(t, err)

	reports, err := app.Check()
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "bare/index.html", reports[0].OutputPath)
	assert.ElementsMatch(t, []string{"mySidebar", "myOverlay", "modal01", "img01", "caption"}, reports[0].Missing)
}
