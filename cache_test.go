package postapi

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedCacheServesPublishedOnly(t *testing.T) {
	s := setupTestStore(t)
	cache := NewFeedCache(s, time.Minute)

	_, err := s.Create(PostInput{Title: "Visible", ContentMarkdown: "x"})
	require.NoError(t, err)
	_, err = s.Create(PostInput{Title: "Invisible", ContentMarkdown: "x", Status: "draft"})
	require.NoError(t, err)

	posts, err := cache.Posts(0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Visible", posts[0].Title)
}

func TestFeedCacheInvalidate(t *testing.T) {
	s := setupTestStore(t)
	cache := NewFeedCache(s, time.Hour)

	_, err := s.Create(PostInput{Title: "First", ContentMarkdown: "x"})
	require.NoError(t, err)

	posts, err := cache.Posts(0)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	// A write behind the cache's back stays hidden until Invalidate.
	_, err = s.Create(PostInput{Title: "Second", ContentMarkdown: "x"})
	require.NoError(t, err)

	posts, err = cache.Posts(0)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	cache.Invalidate()
	posts, err = cache.Posts(0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestFeedCacheLimit(t *testing.T) {
	s := setupTestStore(t)
	cache := NewFeedCache(s, time.Minute)

	for i := 0; i < 5; i++ {
		_, err := s.Create(PostInput{Title: fmt.Sprintf("Post %d", i), ContentMarkdown: "x"})
		require.NoError(t, err)
	}

	posts, err := cache.Posts(3)
	require.NoError(t, err)
	assert.Len(t, posts, 3)

	posts, err = cache.Posts(100)
	require.NoError(t, err)
	assert.Len(t, posts, 5)
}

func TestFeedCacheNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	cache := NewFeedCache(s, time.Minute)

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.Create(PostInput{Title: "Older", ContentMarkdown: "x", PublishedAt: &older})
	require.NoError(t, err)
	_, err = s.Create(PostInput{Title: "Newer", ContentMarkdown: "x", PublishedAt: &newer})
	require.NoError(t, err)

	posts, err := cache.Posts(0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Newer", posts[0].Title)
	assert.Equal(t, "Older", posts[1].Title)
}
