package patreon

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "ptscraper/pkg/errors"
)

// creatorWebsiteMarker appears in pages rendered with the Creator Website
// layout, which this tool cannot read
const creatorWebsiteMarker = "creator-page-v2"

// ParseNextData extracts the JSON document embedded in a page's
// __NEXT_DATA__ script tag
func ParseNextData(html []byte) (map[string]interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse page")
	}

	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw == "" {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "page data (__NEXT_DATA__) not found")
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid page data")
	}
	return data, nil
}

// FindResourcesByType walks v depth-first and returns every JSON:API
// resource object of the given type that carries attributes
func FindResourcesByType(v interface{}, typ string) []map[string]interface{} {
	var out []map[string]interface{}
	var walk func(interface{})
	walk = func(node interface{}) {
		switch n := node.(type) {
		case map[string]interface{}:
			if t, _ := n["type"].(string); t == typ {
				if _, ok := n["attributes"]; ok {
					out = append(out, n)
				}
			}
			for _, key := range sortedKeys(n) {
				walk(n[key])
			}
		case []interface{}:
			for _, item := range n {
				walk(item)
			}
		}
	}
	walk(v)
	return out
}

// dig follows keys through nested objects and returns the value found, or
// nil when any step is missing
func dig(v interface{}, keys ...string) interface{} {
	for _, key := range keys {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

func digString(v interface{}, keys ...string) string {
	switch s := dig(v, keys...).(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func digMap(v interface{}, keys ...string) map[string]interface{} {
	m, _ := dig(v, keys...).(map[string]interface{})
	return m
}

// sortedKeys makes the walk order independent of map iteration
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isCreatorWebsite(finalURL string, body []byte) bool {
	return strings.Contains(finalURL, "/cw/") || bytes.Contains(body, []byte(creatorWebsiteMarker))
}
