package folio

// SiteView is the .Site value templates see. Listings exclude ignored
// pages.
type SiteView struct {
	URL          string
	Title        string
	Description  string
	Author       string
	AuthorImage  string
	ReverseTitle bool
	SocialLinks  map[string]string

	Pages    []*Page
	Articles []Article
	Tags     []string
	Data     Data

	cfg *SiteConfig
}

func newSiteView(cfg *SiteConfig, data Data) *SiteView {
	return &SiteView{
		URL:          cfg.URL,
		Title:        cfg.Title,
		Description:  cfg.Description,
		Author:       cfg.Author,
		AuthorImage:  cfg.AuthorImage,
		ReverseTitle: *cfg.ReverseTitle,
		SocialLinks:  cfg.SocialLinks,
		Data:         data,
		cfg:          cfg,
	}
}

// PageTitle joins the page and site titles, page first when ReverseTitle
// is set. Pages without a title get the site title alone.
func (s *SiteView) PageTitle(p *Page) string {
	if p == nil || p.Title == "" || p.Title == s.Title {
		return s.Title
	}
	if s.ReverseTitle {
		return p.Title + " | " + s.Title
	}
	return s.Title + " | " + p.Title
}

// TagURL returns the link of a tag listing.
func (s *SiteView) TagURL(tag string) string {
	return URLFor(outputFor(s.cfg, tagPath(s.cfg, tag), true))
}

// listed returns pages visible to listings and the sitemap.
func listed(pages []*Page) []*Page {
	out := make([]*Page, 0, len(pages))
	for _, p := range pages {
		if !p.Ignore {
			out = append(out, p)
		}
	}
	return out
}
