package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	errs "ptscraper/pkg/errors"
)

// ExportedCookie is one entry of a browser extension cookie export.
// Only Name and Value are used.
type ExportedCookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
}

type cookieExport struct {
	URL     string           `json:"url"`
	Cookies []ExportedCookie `json:"cookies"`
}

// ParseCookies reads a cookie export. Both a bare array of cookies and an
// object with a "cookies" array are accepted.
func ParseCookies(data []byte) (map[string]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errs.NewAuthError(0, "cookie file is empty")
	}

	var list []ExportedCookie
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid cookie array")
		}
	case '{':
		var export cookieExport
		if err := json.Unmarshal(data, &export); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid cookie export")
		}
		list = export.Cookies
	default:
		return nil, errs.New(errs.ErrorTypeParsing, 0, "cookie file must be a JSON array or object")
	}

	cookies := make(map[string]string, len(list))
	for _, c := range list {
		if c.Name == "" {
			continue
		}
		cookies[c.Name] = c.Value
	}
	return cookies, nil
}

// LoadCookieFile reads and parses a cookie export from disk
func LoadCookieFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	cookies, err := ParseCookies(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cookies, nil
}

// FindCookieFile picks the cookie export to use. dir/name wins when it
// exists; otherwise dir must contain exactly one JSON file.
func FindCookieFile(dir, name string) (string, error) {
	if name != "" {
		preferred := filepath.Join(dir, name)
		if _, err := os.Stat(preferred); err == nil {
			return preferred, nil
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", errs.NewAuthError(0, fmt.Sprintf("no cookie file found in %s\n\n%s", dir, CookieExportHint()))
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = filepath.Base(m)
		}
		return "", errs.NewAuthError(0, fmt.Sprintf("several cookie files in %s (%s); rename the one to use to %s",
			dir, strings.Join(names, ", "), name))
	}
}
