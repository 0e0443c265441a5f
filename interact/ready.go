package interact

import (
	"strings"
	"time"
)

// Route identifies the page the script runs on.
type Route struct {
	Path string
	Home bool
}

// RouteFromPath builds a Route for a URL path. A path whose last segment
// is empty ("/", "", "/blog/") counts as home.
func RouteFromPath(p string) Route {
	return Route{Path: p, Home: p[strings.LastIndex(p, "/")+1:] == ""}
}

// Options configures Ready.
type Options struct {
	Scroller       Scroller
	Location       *Location
	ScrollDuration time.Duration
}

// Page is the interaction state attached to one document.
type Page struct {
	Route      Route
	Sidebar    *Sidebar
	Modal      *Modal
	Scroll     *SmoothScroll // nil off the home route
	Responsive int
	Location   *Location
}

// Ready wires every behaviour onto doc, the way the page script does once
// the DOM is loaded. Smooth scrolling is bound only on the home route;
// responsive image classes are applied on every page.
func Ready(doc *Document, route Route, opts Options) *Page {
	if opts.Location == nil {
		opts.Location = &Location{}
	}
	if opts.Scroller == nil {
		opts.Scroller = &Animator{}
	}
	if opts.ScrollDuration <= 0 {
		opts.ScrollDuration = DefaultScrollDuration
	}

	p := &Page{
		Route:    route,
		Sidebar:  &Sidebar{doc: doc},
		Modal:    &Modal{doc: doc},
		Location: opts.Location,
	}
	if route.Home {
		p.Scroll = newSmoothScroll(doc, opts.Scroller, opts.Location, opts.ScrollDuration)
	}
	p.Responsive = MarkResponsiveImages(doc)
	return p
}
