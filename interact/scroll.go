package interact

import (
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultScrollDuration is how long the smooth scroll animation runs.
const DefaultScrollDuration = 800 * time.Millisecond

// Scroller animates the viewport.
type Scroller interface {
	// ScrollTo scrolls until target is aligned to the top, taking d, then
	// calls done. After cancel returns, done is not called.
	ScrollTo(target *html.Node, d time.Duration, done func()) (cancel func())
}

// Location holds the URL fragment of the page.
type Location struct {
	mu      sync.Mutex
	hash    string
	history []string
}

// Hash returns the current fragment including the leading '#', or "".
func (l *Location) Hash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hash
}

// SetHash sets the fragment and records it as a history entry.
func (l *Location) SetHash(h string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hash = h
	l.history = append(l.history, h)
}

// History returns every fragment set so far, oldest first.
func (l *Location) History() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.history...)
}

// SmoothScroll handles clicks on in-page anchors. At most one animation is
// in flight: a new click cancels the previous animation, whose fragment is
// then never written to the location.
type SmoothScroll struct {
	doc      *Document
	scroller Scroller
	loc      *Location
	duration time.Duration

	mu     sync.Mutex
	bound  map[*html.Node]bool
	gen    uint64
	active uint64 // generation of the in-flight animation, 0 if none
	cancel func()
}

func newSmoothScroll(doc *Document, scroller Scroller, loc *Location, d time.Duration) *SmoothScroll {
	s := &SmoothScroll{
		doc:      doc,
		scroller: scroller,
		loc:      loc,
		duration: d,
		bound:    make(map[*html.Node]bool),
	}
	for _, a := range doc.Elements(atom.A) {
		if bindable(Attr(a, "href")) {
			s.bound[a] = true
		}
	}
	return s
}

// bindable selects anchors whose href contains '#' but is not the bare
// placeholder "#" or "#0".
func bindable(href string) bool {
	if href == "#" || href == "#0" {
		return false
	}
	for i := 0; i < len(href); i++ {
		if href[i] == '#' {
			return true
		}
	}
	return false
}

// fragment returns "#frag" for an href, or "" when it has none.
func fragment(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Fragment == "" {
		return ""
	}
	return "#" + u.Fragment
}

// Bound reports whether a click handler is attached to anchor.
func (s *SmoothScroll) Bound(anchor *html.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound[anchor]
}

// Len returns the number of bound anchors.
func (s *SmoothScroll) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bound)
}

// Click handles a click on anchor and reports whether default navigation
// was prevented. Unbound anchors and anchors with an empty fragment fall
// through to default navigation. A fragment naming no element prevents
// navigation and returns ErrMissingElement without touching the location.
func (s *SmoothScroll) Click(anchor *html.Node) (bool, error) {
	if !s.Bound(anchor) {
		return false, nil
	}
	hash := fragment(Attr(anchor, "href"))
	if hash == "" {
		return false, nil
	}
	target, err := s.doc.mustByID(hash[1:])
	if err != nil {
		return true, err
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	gen := s.gen
	s.active = gen
	s.mu.Unlock()

	cancel := s.scroller.ScrollTo(target, s.duration, func() { s.finish(gen, hash) })

	s.mu.Lock()
	if s.active == gen {
		s.cancel = cancel
	}
	s.mu.Unlock()
	return true, nil
}

func (s *SmoothScroll) finish(gen uint64, hash string) {
	s.mu.Lock()
	if s.active != gen {
		s.mu.Unlock()
		return
	}
	s.active = 0
	s.cancel = nil
	s.mu.Unlock()
	s.loc.SetHash(hash)
}

// Animating reports whether a scroll animation is in flight.
func (s *SmoothScroll) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != 0
}

// Animator is a timer-backed Scroller. It has no viewport; it records the
// target and fires done after the duration.
type Animator struct {
	mu     sync.Mutex
	target *html.Node
	runs   int
}

// ScrollTo implements Scroller.
func (a *Animator) ScrollTo(target *html.Node, d time.Duration, done func()) func() {
	a.mu.Lock()
	a.target = target
	a.runs++
	a.mu.Unlock()
	t := time.AfterFunc(d, done)
	return func() { t.Stop() }
}

// Target returns the element of the latest animation.
func (a *Animator) Target() *html.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// Runs returns how many animations were started.
func (a *Animator) Runs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runs
}
