package folio

import (
	"strings"
	"sync"
	"time"
)

// PostCache is an in-memory view of the published posts in the Store. Tag
// and calendar listings are filtered from it instead of querying per page.
type PostCache struct {
	mu      sync.RWMutex
	posts   []Article
	tags    []string
	fetched time.Time
	ttl     time.Duration
	store   *Store
	now     func() time.Time
}

// NewPostCache creates a PostCache backed by the given Store. A zero ttl
// keeps entries until Invalidate.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl, now: time.Now}
}

func (c *PostCache) valid() bool {
	if c.posts == nil {
		return false
	}
	return c.ttl == 0 || c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read reloads from the Store.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *PostCache) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPosts("")
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags()
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Article{}
	}
	c.posts = posts
	c.tags = tags
	c.fetched = c.now()
	return nil
}

// ensureLoaded returns cached posts and tags after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded() ([]Article, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags := c.posts, c.tags
		c.mu.RUnlock()
		return posts, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, err
	}
	return c.posts, c.tags, nil
}

// ListPosts returns published posts, optionally filtered by tag.
func (c *PostCache) ListPosts(tag string) ([]Article, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return posts, nil
	}
	normalized := normalizeTag(tag)
	var filtered []Article
	for _, p := range posts {
		for _, t := range p.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// ListPostsByDate returns posts whose date starts with prefix ("2024",
// "2024-01" or "2024-01-15").
func (c *PostCache) ListPostsByDate(prefix string) ([]Article, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	var filtered []Article
	for _, p := range posts {
		if strings.HasPrefix(p.DateString(), prefix) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListTags returns all unique tags from published posts.
func (c *PostCache) ListTags() ([]string, error) {
	_, tags, err := c.ensureLoaded()
	return tags, err
}

// GetPost returns a single published post by slug from the cache.
func (c *PostCache) GetPost(slug string) (Article, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return Article{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Article{}, ErrNotFound
}
