package interact

import (
	"golang.org/x/net/html"
)

const (
	displayShown  = "block"
	displayHidden = "none"
)

// Sidebar toggles the sidebar and its overlay together. Open and Close are
// idempotent. Lookups happen on each call, so a page without the elements
// fails only when the toggle is used.
type Sidebar struct {
	doc *Document
}

// Open shows the sidebar and the overlay.
func (s *Sidebar) Open() error {
	return s.set(displayShown)
}

// Close hides the sidebar and the overlay.
func (s *Sidebar) Close() error {
	return s.set(displayHidden)
}

// IsOpen reports whether the sidebar is shown.
func (s *Sidebar) IsOpen() bool {
	n := s.doc.ByID(SidebarID)
	return n != nil && Display(n) == displayShown
}

func (s *Sidebar) set(display string) error {
	sidebar, err := s.doc.mustByID(SidebarID)
	if err != nil {
		return err
	}
	overlay, err := s.doc.mustByID(OverlayID)
	if err != nil {
		return err
	}
	SetDisplay(sidebar, display)
	SetDisplay(overlay, display)
	return nil
}

// Modal shows a clicked image full size with its alt text as caption.
type Modal struct {
	doc *Document
}

// Show copies img's src and alt into the modal and makes it visible. Each
// call overwrites the previous image and caption.
func (m *Modal) Show(img *html.Node) error {
	view, err := m.doc.mustByID(ModalImgID)
	if err != nil {
		return err
	}
	caption, err := m.doc.mustByID(CaptionID)
	if err != nil {
		return err
	}
	modal, err := m.doc.mustByID(ModalID)
	if err != nil {
		return err
	}
	SetAttr(view, "src", Attr(img, "src"))
	SetText(caption, Attr(img, "alt"))
	SetDisplay(modal, displayShown)
	return nil
}

// Close hides the modal. The image and caption are left in place.
func (m *Modal) Close() error {
	modal, err := m.doc.mustByID(ModalID)
	if err != nil {
		return err
	}
	SetDisplay(modal, displayHidden)
	return nil
}

// IsShown reports whether the modal is visible.
func (m *Modal) IsShown() bool {
	n := m.doc.ByID(ModalID)
	return n != nil && Display(n) == displayShown
}

// MarkResponsiveImages adds the responsive class to every image inside an
// article-content element and returns how many images it saw.
func MarkResponsiveImages(doc *Document) int {
	imgs := doc.ArticleImages()
	for _, img := range imgs {
		AddClass(img, ResponsiveClass)
	}
	return len(imgs)
}
