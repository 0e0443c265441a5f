package folio

import (
	"bytes"
	"encoding/xml"
	"path"
	"sort"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists every non-ignored HTML page. Articles carry their
// publish date as lastmod.
func renderSitemap(cfg *SiteConfig, pages []*Page, articles []Article) ([]byte, error) {
	lastmod := make(map[string]string, len(articles))
	for _, a := range articles {
		lastmod[a.Path] = a.DateString()
	}
	var urls []sitemapURL
	for _, p := range listed(pages) {
		if path.Ext(p.OutputPath) != ".html" {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(cfg.URL, p.URL),
			LastMod: lastmod[p.Path],
		})
	}
	sort.Slice(urls, func(i, j int) bool { return urls[i].Loc < urls[j].Loc })

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
