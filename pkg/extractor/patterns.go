package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// Provider identifies a video hosting service
type Provider string

const (
	ProviderVimeo   = Provider("vimeo")
	ProviderYouTube = Provider("youtube")
)

const youTubeIDLength = 11

var (
	// vimeo.com/ID, vimeo.com/ID/HASH, vimeo.com/channels/NAME/ID and
	// vimeo.com/groups/NAME/videos/ID with optional tracking query. Only the
	// host is case-insensitive; a privacy hash is lowercase hex.
	vimeoPattern = regexp.MustCompile(`(?i)(?:https?:)?//(?:www\.)?vimeo\.com/(?:channels/[\w-]+/|groups/[\w-]+/videos/)?(\d+)(?-i:(?:/([0-9a-f]+)\b)?)(?:\?[^\s<>"']*)?`)

	// player.vimeo.com/video/ID?h=HASH as found in iframe embeds
	vimeoPlayerPattern = regexp.MustCompile(`(?i)(?:https?:)?//player\.vimeo\.com/video/(\d+)(?:\?(?:[^\s<>"'#]*?(?:&|&amp;))?h=((?-i:[0-9a-f]+)))?[^\s<>"']*`)

	// watch?v=, /embed/, /shorts/, /v/, /live/, youtu.be and the privacy domain
	youTubePattern = regexp.MustCompile(`(?i)(?:https?:)?//(?:(?:www\.|m\.)?youtube\.com/(?:watch\?(?:[^\s<>"'#]*?(?:&|&amp;))?v=|(embed|shorts|v|live)/)|(youtu\.be)/|(?:www\.)?(youtube-nocookie\.com)/embed/)([a-z0-9_-]+)(?:[?&#][^\s<>"']*)?`)
)

// candidate is a single pattern hit before deduplication
type candidate struct {
	pos      int
	provider Provider
	id       string
	hash     string
	raw      string
	clean    string
}

func (c candidate) key() string {
	return string(c.provider) + ":" + c.id
}

// findCandidates returns all hits in text ordered by position
func findCandidates(text string) []candidate {
	if text == "" {
		return nil
	}

	var found []candidate

	for _, m := range vimeoPattern.FindAllStringSubmatchIndex(text, -1) {
		id := text[m[2]:m[3]]
		hash := group(text, m, 2)
		found = append(found, candidate{
			pos:      m[0],
			provider: ProviderVimeo,
			id:       id,
			hash:     hash,
			raw:      withScheme(text[m[0]:m[1]]),
			clean:    vimeoURL(id, hash),
		})
	}

	// player URLs are always rebuilt as vimeo.com links
	for _, m := range vimeoPlayerPattern.FindAllStringSubmatchIndex(text, -1) {
		id := text[m[2]:m[3]]
		hash := group(text, m, 2)
		canonical := vimeoURL(id, hash)
		found = append(found, candidate{
			pos:      m[0],
			provider: ProviderVimeo,
			id:       id,
			hash:     hash,
			raw:      canonical,
			clean:    canonical,
		})
	}

	for _, m := range youTubePattern.FindAllStringSubmatchIndex(text, -1) {
		id := text[m[8]:m[9]]
		if len(id) != youTubeIDLength {
			continue
		}
		var clean string
		switch {
		case group(text, m, 2) != "":
			clean = "https://youtu.be/" + id
		case group(text, m, 3) != "":
			clean = "https://www.youtube-nocookie.com/embed/" + id
		case group(text, m, 1) != "":
			clean = "https://www.youtube.com/" + strings.ToLower(group(text, m, 1)) + "/" + id
		default:
			clean = "https://www.youtube.com/watch?v=" + id
		}
		found = append(found, candidate{
			pos:      m[0],
			provider: ProviderYouTube,
			id:       id,
			raw:      withScheme(text[m[0]:m[1]]),
			clean:    clean,
		})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	return found
}

// group returns submatch n of an index match, or "" when it did not participate
func group(text string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return text[m[2*n]:m[2*n+1]]
}

func withScheme(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func vimeoURL(id, hash string) string {
	if hash != "" {
		return "https://vimeo.com/" + id + "/" + hash
	}
	return "https://vimeo.com/" + id
}

// providerFromMarker maps an embed provider label to a known provider
func providerFromMarker(marker string) (Provider, bool) {
	m := strings.ToLower(strings.TrimSpace(marker))
	switch {
	case strings.Contains(m, "vimeo"):
		return ProviderVimeo, true
	case strings.Contains(m, "youtube"), strings.Contains(m, "youtu.be"):
		return ProviderYouTube, true
	default:
		return "", false
	}
}

// YouTubeID returns the 11 character video ID in u, or ""
func YouTubeID(u string) string {
	for _, c := range findCandidates(u) {
		if c.provider == ProviderYouTube {
			return c.id
		}
	}
	return ""
}

// ParseVimeo returns the video ID and optional privacy hash in u
func ParseVimeo(u string) (id, hash string, ok bool) {
	for _, c := range findCandidates(u) {
		if c.provider == ProviderVimeo {
			return c.id, c.hash, true
		}
	}
	return "", "", false
}

// IsVideoURL reports whether u is a recognised Vimeo or YouTube link
func IsVideoURL(u string) bool {
	return len(findCandidates(u)) > 0
}
