package folio

import (
	"errors"
	"testing"
)

func testConfig(t *testing.T) *SiteConfig {
	t.Helper()
	cfg := DefaultConfig().WithRoot(t.TempDir())
	return &cfg
}

func TestPrettyPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/about.html", "/about/index.html"},
		{"/index.html", "/index.html"},
		{"/blog/index.html", "/blog/index.html"},
		{"/blog/2024/01/15/hello.html", "/blog/2024/01/15/hello/index.html"},
		{"/feed.xml", "/feed.xml"},
		{"/data.json", "/data.json"},
		{"/stylesheets/site.css", "/stylesheets/site.css"},
	}
	for _, tt := range tests {
		if got := PrettyPath(tt.in); got != tt.want {
			t.Errorf("PrettyPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURLFor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/index.html", "/"},
		{"/about/index.html", "/about/"},
		{"/feed.xml", "/feed.xml"},
		{"/about.html", "/about.html"},
	}
	for _, tt := range tests {
		if got := URLFor(tt.in); got != tt.want {
			t.Errorf("URLFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPagePath(t *testing.T) {
	tests := []struct {
		base string
		num  int
		want string
	}{
		{"/blog/index.html", 1, "/blog/index.html"},
		{"/blog/index.html", 2, "/blog/page/2.html"},
		{"/index.html", 3, "/page/3.html"},
		{"/blog/tags/go.html", 2, "/blog/tags/go/page/2.html"},
		{"/blog/2024.html", 4, "/blog/2024/page/4.html"},
	}
	for _, tt := range tests {
		if got := pagePath(tt.base, "page/{num}", tt.num); got != tt.want {
			t.Errorf("pagePath(%q, %d) = %q, want %q", tt.base, tt.num, got, tt.want)
		}
	}
}

func TestPaginate(t *testing.T) {
	articles := make([]Article, 25)
	for i := range articles {
		articles[i].Slug = string(rune('a' + i))
	}

	pages := paginate(articles, 10)
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if len(pages[0]) != 10 || len(pages[2]) != 5 {
		t.Errorf("page sizes = %d, %d, %d", len(pages[0]), len(pages[1]), len(pages[2]))
	}

	if got := paginate(nil, 10); len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("paginate(nil) = %v, want one empty page", got)
	}
	if got := paginate(articles, 0); len(got) != 1 || len(got[0]) != 25 {
		t.Errorf("paginate with perPage 0 should not split")
	}
}

func TestExpandPaginated(t *testing.T) {
	cfg := testConfig(t)
	base := newPage("/blog/index.html", "blog/index.html", KindTemplate, map[string]any{"pageable": true})
	base.Locals = map[string]any{"kept": "yes"}
	articles := make([]Article, 5)

	pages := expandPaginated(cfg, base, articles, 2)
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[0].Path != "/blog/index.html" || pages[1].Path != "/blog/page/2.html" {
		t.Errorf("paths = %q, %q", pages[0].Path, pages[1].Path)
	}

	first := pages[0].Locals["pagination"].(Pagination)
	if first.PrevPage != "" || first.NextPage != "/blog/page/2/" {
		t.Errorf("first page links = %q / %q", first.PrevPage, first.NextPage)
	}
	last := pages[2].Locals["pagination"].(Pagination)
	if last.PrevPage != "/blog/page/2/" || last.NextPage != "" {
		t.Errorf("last page links = %q / %q", last.PrevPage, last.NextPage)
	}
	if pages[2].Locals["page_number"] != 3 || pages[2].Locals["num_pages"] != 3 {
		t.Errorf("page_number/num_pages = %v/%v", pages[2].Locals["page_number"], pages[2].Locals["num_pages"])
	}
	if pages[1].Locals["kept"] != "yes" {
		t.Error("base locals not copied")
	}
	if pages[0].Ignore || !pages[1].Ignore {
		t.Error("only pages after the first are ignored")
	}
	if _, ok := base.Locals["pagination"]; ok {
		t.Error("base page locals mutated")
	}
}

func TestExpandPaginatedDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blog.Paginate = boolPtr(false)
	base := newPage("/blog/index.html", "blog/index.html", KindTemplate, nil)
	pages := expandPaginated(cfg, base, make([]Article, 30), 10)
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if got := pages[0].Locals["page_articles"].([]Article); len(got) != 30 {
		t.Errorf("page_articles = %d, want 30", len(got))
	}
}

func TestApplyLayoutRules(t *testing.T) {
	cfg := testConfig(t)
	pages := []*Page{
		{Path: "/index.html"},
		{Path: "/feed.xml"},
		{Path: "/api/projects.json"},
		{Path: "/robots.txt"},
		{Path: "/nested/deep/sitemap.xml"},
		{Path: "/about.html"},
	}
	applyLayoutRules(cfg, pages)
	want := []bool{false, true, true, true, true, false}
	for i, p := range pages {
		if p.NoLayout != want[i] {
			t.Errorf("%s NoLayout = %v, want %v", p.Path, p.NoLayout, want[i])
		}
	}
}

func TestAssignOutputs(t *testing.T) {
	cfg := testConfig(t)
	about := newPage("/about.html", "about.html", KindTemplate, nil)
	optOut := newPage("/404.html", "404.html", KindTemplate, map[string]any{"directory_index": false})
	feed := &Page{Path: "/feed.xml", Template: "/feed.xml", Kind: KindGenerated}
	if err := assignOutputs(cfg, []*Page{about, optOut, feed}); err != nil {
		t.Fatalf("assignOutputs: %v", err)
	}
	if about.OutputPath != "about/index.html" || about.URL != "/about/" {
		t.Errorf("about = %q %q", about.OutputPath, about.URL)
	}
	if optOut.OutputPath != "404.html" {
		t.Errorf("404 = %q", optOut.OutputPath)
	}
	if feed.OutputPath != "feed.xml" || feed.URL != "/feed.xml" {
		t.Errorf("feed = %q %q", feed.OutputPath, feed.URL)
	}

	cfg.DirectoryIndexes = boolPtr(false)
	plain := newPage("/about.html", "about.html", KindTemplate, nil)
	if err := assignOutputs(cfg, []*Page{plain}); err != nil {
		t.Fatal(err)
	}
	if plain.OutputPath != "about.html" || plain.URL != "/about.html" {
		t.Errorf("without directory indexes = %q %q", plain.OutputPath, plain.URL)
	}
}

func TestAssignOutputsDuplicate(t *testing.T) {
	cfg := testConfig(t)
	a := newPage("/about.html", "about.html", KindTemplate, nil)
	b := newPage("/about/index.html", "about/index.html", KindTemplate, nil)
	err := assignOutputs(cfg, []*Page{a, b})
	if !errors.Is(err, ErrDuplicatePath) {
		t.Fatalf("expected ErrDuplicatePath, got %v", err)
	}
}
