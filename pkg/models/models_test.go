package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostNeedsEnrichment(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want bool
	}{
		{"video embed without data", Post{PostType: PostTypeVideoEmbed}, true},
		{"video embed with empty descriptor", Post{PostType: PostTypeVideoEmbed, Embed: &Embed{}}, true},
		{"video embed with url", Post{PostType: PostTypeVideoEmbed, Embed: &Embed{URL: "https://vimeo.com/1"}}, false},
		{"text post", Post{PostType: "text_only"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.post.NeedsEnrichment())
		})
	}
}

func TestCreatorHelpers(t *testing.T) {
	no := false
	c := Creator{Vanity: "alpha", Compatible: &no}
	assert.Equal(t, "alpha", c.DisplayName())
	assert.True(t, c.IsIncompatible())

	c.Name = "Alpha Studio"
	c.Compatible = nil
	assert.Equal(t, "Alpha Studio", c.DisplayName())
	assert.False(t, c.IsIncompatible())
}
