package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ptscraper/pkg/config"
	"ptscraper/pkg/models"
)

func TestExtractFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Video
	}{
		{
			name:    "plain vimeo link",
			content: "Watch here: https://vimeo.com/123456789",
			want:    []Video{{ProviderVimeo, "https://vimeo.com/123456789"}},
		},
		{
			name:    "youtube short link",
			content: "https://youtu.be/dQw4w9WgXcQ",
			want:    []Video{{ProviderYouTube, "https://youtu.be/dQw4w9WgXcQ"}},
		},
		{
			name:    "vimeo privacy hash with share suffix",
			content: `<a href="https://vimeo.com/987654321/ab12cd34ef?share=copy">part 2</a>`,
			want:    []Video{{ProviderVimeo, "https://vimeo.com/987654321/ab12cd34ef"}},
		},
		{
			name:    "youtube watch link with tracking params",
			content: `<p>https://www.youtube.com/watch?v=dQw4w9WgXcQ&amp;ab_channel=Rick</p>`,
			want:    []Video{{ProviderYouTube, "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}},
		},
		{
			name:    "youtube watch link with v after other params",
			content: "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ",
			want:    []Video{{ProviderYouTube, "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}},
		},
		{
			name:    "shorts and live shapes",
			content: "https://youtube.com/shorts/abcdefghijk and https://www.youtube.com/live/ABCDEFGHIJK?si=x",
			want: []Video{
				{ProviderYouTube, "https://www.youtube.com/shorts/abcdefghijk"},
				{ProviderYouTube, "https://www.youtube.com/live/ABCDEFGHIJK"},
			},
		},
		{
			name:    "case insensitive host",
			content: "HTTPS://VIMEO.COM/555 and HTTPS://YOUTU.BE/dQw4w9WgXcQ",
			want: []Video{
				{ProviderVimeo, "https://vimeo.com/555"},
				{ProviderYouTube, "https://youtu.be/dQw4w9WgXcQ"},
			},
		},
		{
			name:    "path word after vimeo id is not a privacy hash",
			content: "https://vimeo.com/123456789/Settings and https://vimeo.com/55/deadline",
			want: []Video{
				{ProviderVimeo, "https://vimeo.com/123456789"},
				{ProviderVimeo, "https://vimeo.com/55"},
			},
		},
		{
			name:    "vimeo channel and group links",
			content: "https://vimeo.com/channels/staffpicks/987654 https://vimeo.com/groups/shortfilms/videos/24680",
			want: []Video{
				{ProviderVimeo, "https://vimeo.com/987654"},
				{ProviderVimeo, "https://vimeo.com/24680"},
			},
		},
		{
			name:    "player iframe rebuilt as vimeo link",
			content: `<iframe src="https://player.vimeo.com/video/42?h=feedbeef&amp;badge=0"></iframe>`,
			want:    []Video{{ProviderVimeo, "https://vimeo.com/42/feedbeef"}},
		},
		{
			name:    "first seen order across providers",
			content: "first https://youtu.be/AAAAAAAAAAA then https://vimeo.com/1 then https://youtu.be/BBBBBBBBBBB",
			want: []Video{
				{ProviderYouTube, "https://youtu.be/AAAAAAAAAAA"},
				{ProviderVimeo, "https://vimeo.com/1"},
				{ProviderYouTube, "https://youtu.be/BBBBBBBBBBB"},
			},
		},
		{
			name:    "same youtube video in two shapes",
			content: "https://youtu.be/dQw4w9WgXcQ https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want:    []Video{{ProviderYouTube, "https://youtu.be/dQw4w9WgXcQ"}},
		},
		{
			name:    "youtube id of wrong length ignored",
			content: "https://youtu.be/short and https://youtu.be/waytoolongvideoid",
			want:    []Video{},
		},
		{
			name:    "unrelated links",
			content: "see https://example.com/video/123 and https://www.patreon.com/posts/1",
			want:    []Video{},
		},
	}

	ext := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ext.Extract(&models.Post{ID: "1", Content: tt.content})
			assert.Equal(t, "1", res.PostID)
			assert.Equal(t, tt.want, res.Videos)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestExtractEmptyPostIsNotNil(t *testing.T) {
	res := Default().Extract(&models.Post{ID: "9"})
	require.NotNil(t, res.Videos)
	assert.Len(t, res.Videos, 0)
	assert.False(t, res.HasVideos())
	assert.Empty(t, res.URLs())
}

func TestDuplicateLinksKeepFirstPosition(t *testing.T) {
	content := "https://vimeo.com/1 https://youtu.be/dQw4w9WgXcQ https://vimeo.com/1?share=copy https://vimeo.com/2"
	res := Default().Extract(&models.Post{ID: "1", Content: content})
	assert.Equal(t, []string{
		"https://vimeo.com/1",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://vimeo.com/2",
	}, res.URLs())
}

func TestVimeoHashPreferred(t *testing.T) {
	content := "https://vimeo.com/77 https://youtu.be/dQw4w9WgXcQ https://vimeo.com/77/c0ffee"
	res := Default().Extract(&models.Post{ID: "1", Content: content})
	assert.Equal(t, []string{
		"https://vimeo.com/77/c0ffee",
		"https://youtu.be/dQw4w9WgXcQ",
	}, res.URLs())
}

func TestEmbedScannedBeforeContent(t *testing.T) {
	post := &models.Post{
		ID:      "5",
		Content: "Also on https://vimeo.com/100",
		Embed: &models.Embed{
			Provider: "YouTube",
			URL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
	}
	res := Default().Extract(post)
	assert.Equal(t, []Video{
		{ProviderYouTube, "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{ProviderVimeo, "https://vimeo.com/100"},
	}, res.Videos)
}

func TestEmbedHTMLFallback(t *testing.T) {
	post := &models.Post{
		ID: "6",
		Embed: &models.Embed{
			Provider: "Vimeo",
			HTML:     `<iframe src="//player.vimeo.com/video/314?h=a1b2c3" width="640"></iframe>`,
		},
	}
	res := Default().Extract(post)
	assert.Equal(t, []string{"https://vimeo.com/314/a1b2c3"}, res.URLs())
	assert.Empty(t, res.Warnings)
}

func TestUnsupportedEmbedProviderWarns(t *testing.T) {
	post := &models.Post{
		ID:      "7",
		Content: "https://vimeo.com/8",
		Embed: &models.Embed{
			Provider: "SoundCloud",
			URL:      "https://soundcloud.com/someone/track",
		},
	}
	res := Default().Extract(post)
	assert.Equal(t, []string{"https://vimeo.com/8"}, res.URLs())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "7", res.Warnings[0].PostID)
	assert.Contains(t, res.Warnings[0].Reason, "SoundCloud")
}

func TestKnownEmbedWithoutURLWarns(t *testing.T) {
	post := &models.Post{ID: "8", Embed: &models.Embed{Provider: "vimeo", HTML: "<div>removed</div>"}}
	res := Default().Extract(post)
	assert.Empty(t, res.Videos)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].String(), "post 8")
}

func TestProviderFilter(t *testing.T) {
	ext := New(config.ExtractionConfig{CleanURLs: true, Providers: []string{"YouTube"}})
	videos := ext.ExtractText("https://vimeo.com/1 https://youtu.be/dQw4w9WgXcQ")
	assert.Equal(t, []Video{{ProviderYouTube, "https://youtu.be/dQw4w9WgXcQ"}}, videos)
}

func TestRawURLsWhenCleaningDisabled(t *testing.T) {
	ext := New(config.ExtractionConfig{CleanURLs: false})
	videos := ext.ExtractText("https://vimeo.com/1?share=copy and https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42")
	assert.Equal(t, []Video{
		{ProviderVimeo, "https://vimeo.com/1?share=copy"},
		{ProviderYouTube, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42"},
	}, videos)
}

func TestExtractIsDeterministic(t *testing.T) {
	post := &models.Post{ID: "1", Content: "https://youtu.be/dQw4w9WgXcQ https://vimeo.com/3/abc"}
	ext := Default()
	assert.Equal(t, ext.Extract(post), ext.Extract(post))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "dQw4w9WgXcQ", YouTubeID("https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0"))
	assert.Equal(t, "", YouTubeID("https://vimeo.com/1"))

	id, hash, ok := ParseVimeo("https://vimeo.com/123/abc?share=copy")
	assert.True(t, ok)
	assert.Equal(t, "123", id)
	assert.Equal(t, "abc", hash)

	_, _, ok = ParseVimeo("https://youtu.be/dQw4w9WgXcQ")
	assert.False(t, ok)

	assert.True(t, IsVideoURL("https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ"))
	assert.False(t, IsVideoURL("https://example.com"))
}
