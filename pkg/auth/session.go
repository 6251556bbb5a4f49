package auth

import (
	"net/http"
	"sort"
	"strings"

	errs "ptscraper/pkg/errors"
)

// SessionCookie is the cookie Patreon uses to identify a logged-in browser
const SessionCookie = "session_id"

// Session is an immutable set of cookies plus the headers derived from them.
// Every mutator returns a new Session.
type Session struct {
	cookies        map[string]string
	userAgent      string
	acceptLanguage string
	csrf           string
}

// NewSession copies cookies into a new Session. A session without a
// session_id cookie cannot authenticate and is rejected.
func NewSession(cookies map[string]string, userAgent, acceptLanguage string) (*Session, error) {
	if strings.TrimSpace(cookies[SessionCookie]) == "" {
		return nil, errs.NewAuthError(0, "cookies do not contain "+SessionCookie+"; re-export them while logged in")
	}
	s := &Session{
		cookies:        make(map[string]string, len(cookies)),
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
	}
	for name, value := range cookies {
		s.cookies[name] = value
	}
	return s, nil
}

// SessionID returns the session_id cookie value
func (s *Session) SessionID() string {
	return s.cookies[SessionCookie]
}

// Cookie returns a single cookie value
func (s *Session) Cookie(name string) string {
	return s.cookies[name]
}

// Cookies returns a copy of all cookies
func (s *Session) Cookies() map[string]string {
	out := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		out[k] = v
	}
	return out
}

// CSRF returns the CSRF signature, empty until authenticated
func (s *Session) CSRF() string {
	return s.csrf
}

// UserAgent returns the User-Agent sent with every request
func (s *Session) UserAgent() string {
	return s.userAgent
}

// WithCSRF returns a copy of the session carrying token
func (s *Session) WithCSRF(token string) *Session {
	next := *s
	next.cookies = s.Cookies()
	next.csrf = token
	return &next
}

// CookieHeader renders the cookies as a Cookie header value with names sorted
func (s *Session) CookieHeader() string {
	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+s.cookies[name])
	}
	return strings.Join(parts, "; ")
}

// Headers returns the standard browser headers for this session
func (s *Session) Headers() map[string]string {
	h := map[string]string{
		"Cookie": s.CookieHeader(),
	}
	if s.userAgent != "" {
		h["User-Agent"] = s.userAgent
	}
	if s.acceptLanguage != "" {
		h["Accept-Language"] = s.acceptLanguage
	}
	return h
}

// Apply sets the session headers on req
func (s *Session) Apply(req *http.Request) {
	for key, value := range s.Headers() {
		req.Header.Set(key, value)
	}
}
