package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	base := "http://localhost:9000"

	t.Run("relative path gets base and bucket", func(t *testing.T) {
		url := ResolveURL(base, "story-covers", "a1/cover.jpg")
		assert.Equal(t, "http://localhost:9000/story-covers/a1/cover.jpg", url)
	})

	t.Run("leading slash is cleaned", func(t *testing.T) {
		url := ResolveURL(base, "story-covers", "/a1/cover.jpg")
		assert.Equal(t, "http://localhost:9000/story-covers/a1/cover.jpg", url)
	})

	t.Run("absolute URL passes through", func(t *testing.T) {
		absolute := "https://cdn.example.com/story-covers/a1/cover.jpg"
		assert.Equal(t, absolute, ResolveURL(base, "story-covers", absolute))
	})

	t.Run("resolving twice is a no-op", func(t *testing.T) {
		once := ResolveURL(base, "story-covers", "a1/cover.jpg")
		twice := ResolveURL(base, "story-covers", once)
		assert.Equal(t, once, twice)
	})

	t.Run("empty value stays empty", func(t *testing.T) {
		assert.Equal(t, "", ResolveURL(base, "story-covers", ""))
	})
}
