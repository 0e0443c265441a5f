package folio

import (
	"bytes"
	"encoding/xml"
	"time"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// renderRSS encodes an RSS 2.0 feed of articles.
func renderRSS(cfg *SiteConfig, articles []Article) ([]byte, error) {
	base := cfg.URL
	items := make([]rssItem, 0, len(articles))
	for _, a := range articles {
		postURL := BuildURL(base, a.URL)
		items = append(items, rssItem{
			Title:       a.Title,
			Link:        postURL,
			Description: string(a.Summary),
			PubDate:     a.Date.Format(time.RFC1123Z),
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Title,
			Link:        BuildURL(base, "/"),
			Description: cfg.Description,
			Items:       items,
		},
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
