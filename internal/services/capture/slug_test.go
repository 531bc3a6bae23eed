package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		index    int
		expected string
	}{
		{"host only", "https://example.com", 0, "example-com"},
		{"host and path", "https://example.com/docs/setup", 1, "example-com-docs-setup"},
		{"query folded in", "https://example.com/search?q=go", 2, "example-com-search-q-go"},
		{"uppercase lowered", "https://Example.COM/About", 3, "example-com-about"},
		{"symbol runs collapse", "https://example.com//a___b", 4, "example-com-a-b"},
		{"unparseable keeps raw text", "http://%zz", 5, "http-zz"},
		{"no usable characters falls back to index", "???", 6, "link-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugify(tt.url, tt.index))
		})
	}
}

func TestUniqueSlugSuffixesCollisions(t *testing.T) {
	used := make(map[string]struct{})

	assert.Equal(t, "example-com", uniqueSlug("example-com", used))
	assert.Equal(t, "example-com-1", uniqueSlug("example-com", used))
	assert.Equal(t, "example-com-2", uniqueSlug("example-com", used))
	assert.Equal(t, "other-com", uniqueSlug("other-com", used))
}
