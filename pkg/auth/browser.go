package auth

import (
	"fmt"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register finders for major browsers
)

// FromBrowser reads the cookies for domain from the local profiles of the
// named browser (chrome, firefox, edge, brave, ...). An empty browser name
// searches every store found.
func FromBrowser(browser, domain string) (map[string]string, error) {
	want := normalizeBrowser(browser)
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")

	stores := kooky.FindAllCookieStores()
	defer func() {
		for _, s := range stores {
			_ = s.Close()
		}
	}()

	cookies := make(map[string]string)
	matched := 0
	for _, s := range stores {
		if want != "" && normalizeBrowser(s.Browser()) != want {
			continue
		}
		matched++

		kcs, err := s.ReadCookies(kooky.Valid, kooky.DomainHasSuffix(domain))
		if err != nil {
			continue
		}
		for _, kc := range kcs {
			hc := kc.Cookie
			if hc.Name == "" {
				continue
			}
			// session_id from the first profile that has one wins
			if _, ok := cookies[hc.Name]; ok {
				continue
			}
			cookies[hc.Name] = hc.Value
		}
	}

	if matched == 0 {
		if want == "" {
			return nil, fmt.Errorf("no browser cookie stores found")
		}
		return nil, fmt.Errorf("no %s cookie stores found", want)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies for %s found in %s", domain, browserLabel(want))
	}
	return cookies, nil
}

func normalizeBrowser(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "google chrome":
		return "chrome"
	case "microsoft edge":
		return "edge"
	default:
		return s
	}
}

func browserLabel(name string) string {
	if name == "" {
		return "any browser"
	}
	return name
}
