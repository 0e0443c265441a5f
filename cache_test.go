package folio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCache(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.ReplacePosts(testArticles()))
	c := NewPostCache(s, 0)

	posts, err := c.ListPosts("")
	require.NoError(t, err)
	assert.Len(t, posts, 3)

	goPosts, err := c.ListPosts("Go")
	require.NoError(t, err)
	assert.Len(t, goPosts, 2)

	jan, err := c.ListPostsByDate("2024-01")
	require.NoError(t, err)
	assert.Len(t, jan, 2)

	tags, err := c.ListTags()
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust", "web"}, tags)

	p, err := c.GetPost("post-3")
	require.NoError(t, err)
	assert.Equal(t, "Post 3", p.Title)
	_, err = c.GetPost("post-4")
	assert.True(t, IsNotFound(err))
}

func TestPostCacheInvalidate(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.ReplacePosts(testArticles()))
	c := NewPostCache(s, 0)

	posts, err := c.ListPosts("")
	require.NoError(t, err)
	require.Len(t, posts, 3)

	require.NoError(t, s.ReplacePosts(testArticles()[:1]))
	posts, err = c.ListPosts("")
	require.NoError(t, err)
	assert.Len(t, posts, 3, "served from cache until invalidated")

	c.Invalidate()
	posts, err = c.ListPosts("")
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestPostCacheTTL(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.ReplacePosts(testArticles()))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewPostCache(s, time.Minute)
	c.now = func() time.Time { return now }

	_, err := c.ListPosts("")
	require.NoError(t, err)
	require.NoError(t, s.ReplacePosts(nil))

	now = now.Add(30 * time.Second)
	posts, err := c.ListPosts("")
	require.NoError(t, err)
	assert.Len(t, posts, 3)

	now = now.Add(time.Minute)
	posts, err = c.ListPosts("")
	require.NoError(t, err)
	assert.Empty(t, posts)
}
