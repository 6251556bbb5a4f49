// Package patreontest provides an in-process fake of the Patreon pages and
// posts API for tests.
package patreontest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Creator is a membership served by the fake
type Creator struct {
	Name       string
	Vanity     string
	CampaignID string
	// CreatorWebsite redirects the posts page to /cw/
	CreatorWebsite bool
	// HeadNotAllowed answers HEAD on the posts page with 405
	HeadNotAllowed bool
}

// Post is a post resource served by the fake
type Post struct {
	ID          string
	Title       string
	PostType    string
	URL         string
	PublishedAt string
	Content     string
	Embed       map[string]string
}

// Page is one posts listing response
type Page struct {
	Posts []Post
	Next  string
	Total int
}

// Server is a fake Patreon site. Configure the exported fields before
// issuing requests; they are read under the server lock.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// SessionID is the session_id cookie the fake accepts; empty accepts any
	SessionID string
	CSRF      string
	UserID    string
	UserName  string
	Email     string
	Pledges   int

	Creators []Creator
	// Pages maps campaign ID, then cursor ("" for the first page), to a page
	Pages map[string]map[string]Page
	// Details maps post ID to the full post served by /api/posts/{id}
	Details map[string]Post
	// Fail queues status codes returned for a path before it is served
	// normally
	Fail map[string][]int

	requests []string
}

// NewServer starts a fake with one logged-in user and no creators
func NewServer() *Server {
	s := &Server{
		SessionID: "test-session",
		CSRF:      "csrf-token",
		UserID:    "1001",
		UserName:  "Test User",
		Email:     "test@example.com",
		Pages:     make(map[string]map[string]Page),
		Details:   make(map[string]Post),
		Fail:      make(map[string][]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// AddCreator registers a creator with its posts listing
func (s *Server) AddCreator(c Creator, pages map[string]Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Creators = append(s.Creators, c)
	if pages != nil {
		s.Pages[c.CampaignID] = pages
	}
}

// FailNext makes the next len(codes) requests to path return codes in order
func (s *Server) FailNext(path string, codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail[path] = append(s.Fail[path], codes...)
}

// Requests returns the requests served so far as "METHOD path"
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit path with any method
func (s *Server) Count(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasSuffix(r, " "+path) {
			n++
		}
	}
	return n
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := r.URL.Path
	s.requests = append(s.requests, r.Method+" "+path)

	if queue := s.Fail[path]; len(queue) > 0 {
		s.Fail[path] = queue[1:]
		w.WriteHeader(queue[0])
		return
	}

	loggedIn := s.SessionID == ""
	if c, err := r.Cookie("session_id"); err == nil && c.Value == s.SessionID {
		loggedIn = true
	}

	switch {
	case path == "/home":
		s.serveHome(w, loggedIn)
	case path == "/settings/memberships":
		if !loggedIn {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		s.serveMemberships(w)
	case strings.HasPrefix(path, "/c/") && strings.HasSuffix(path, "/posts"):
		s.serveCreatorPage(w, r, strings.TrimSuffix(strings.TrimPrefix(path, "/c/"), "/posts"))
	case strings.HasPrefix(path, "/cw/"):
		writeHTML(w, `<div class="creator-page-v2">Creator Website</div>`)
	case path == "/api/posts":
		if !s.apiAllowed(w, r, loggedIn) {
			return
		}
		s.servePosts(w, r)
	case strings.HasPrefix(path, "/api/posts/"):
		if !s.apiAllowed(w, r, loggedIn) {
			return
		}
		s.servePost(w, strings.TrimPrefix(path, "/api/posts/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) apiAllowed(w http.ResponseWriter, r *http.Request, loggedIn bool) bool {
	if !loggedIn {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	if r.Header.Get("x-csrf-signature") != s.CSRF {
		w.WriteHeader(http.StatusForbidden)
		return false
	}
	return true
}

func (s *Server) serveHome(w http.ResponseWriter, loggedIn bool) {
	envelope := map[string]interface{}{}
	if loggedIn {
		pledges := make([]interface{}, s.Pledges)
		for i := range pledges {
			pledges[i] = map[string]interface{}{"id": fmt.Sprint(i + 1), "type": "pledge"}
		}
		envelope = map[string]interface{}{
			"csrfSignature": s.CSRF,
			"userId":        s.UserID,
			"commonBootstrap": map[string]interface{}{
				"currentUser": map[string]interface{}{
					"data": map[string]interface{}{
						"id":   s.UserID,
						"type": "user",
						"attributes": map[string]interface{}{
							"full_name": s.UserName,
							"email":     s.Email,
						},
						"relationships": map[string]interface{}{
							"pledges": map[string]interface{}{"data": pledges},
						},
					},
				},
			},
		}
	}
	writeNextData(w, map[string]interface{}{"bootstrapEnvelope": envelope})
}

func (s *Server) serveMemberships(w http.ResponseWriter) {
	users := []interface{}{
		map[string]interface{}{
			"id":   s.UserID,
			"type": "user",
			"attributes": map[string]interface{}{
				"full_name":  s.UserName,
				"is_creator": false,
			},
		},
	}
	for i, c := range s.Creators {
		users = append(users, map[string]interface{}{
			"id":   fmt.Sprintf("u%d", i+1),
			"type": "user",
			"attributes": map[string]interface{}{
				"full_name":  c.Name,
				"vanity":     c.Vanity,
				"is_creator": true,
			},
			"relationships": map[string]interface{}{
				"campaign": map[string]interface{}{
					"data": map[string]interface{}{"id": c.CampaignID, "type": "campaign"},
				},
			},
		})
	}
	writeNextData(w, map[string]interface{}{
		"bootstrapEnvelope": map[string]interface{}{
			"pageBootstrap": map[string]interface{}{"included": users},
		},
	})
}

func (s *Server) serveCreatorPage(w http.ResponseWriter, r *http.Request, vanity string) {
	var creator *Creator
	for i := range s.Creators {
		if s.Creators[i].Vanity == vanity {
			creator = &s.Creators[i]
		}
	}
	if creator == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method == http.MethodHead && creator.HeadNotAllowed {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if creator.CreatorWebsite {
		http.Redirect(w, r, "/cw/"+vanity, http.StatusFound)
		return
	}
	writeNextData(w, map[string]interface{}{
		"bootstrapEnvelope": map[string]interface{}{
			"pageBootstrap": map[string]interface{}{
				"campaign": map[string]interface{}{
					"data": map[string]interface{}{
						"id":         creator.CampaignID,
						"type":       "campaign",
						"attributes": map[string]interface{}{"name": creator.Name},
					},
				},
			},
		},
	})
}

func (s *Server) servePosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pages, ok := s.Pages[q.Get("filter[campaign_id]")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	page, ok := pages[q.Get("page[cursor]")]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	data := make([]interface{}, 0, len(page.Posts))
	for _, p := range page.Posts {
		data = append(data, postResource(p))
	}
	var next interface{}
	if page.Next != "" {
		next = page.Next
	}
	writeJSON(w, map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{
			"pagination": map[string]interface{}{
				"total":   page.Total,
				"cursors": map[string]interface{}{"next": next},
			},
		},
	})
}

func (s *Server) servePost(w http.ResponseWriter, id string) {
	post, ok := s.Details[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{"data": postResource(post)})
}

func postResource(p Post) map[string]interface{} {
	attrs := map[string]interface{}{
		"title":     p.Title,
		"post_type": p.PostType,
		"content":   p.Content,
	}
	if p.URL != "" {
		attrs["url"] = p.URL
	}
	if p.PublishedAt != "" {
		attrs["published_at"] = p.PublishedAt
	}
	if p.Embed != nil {
		attrs["embed"] = p.Embed
	} else {
		attrs["embed"] = nil
	}
	res := map[string]interface{}{
		"type":       "post",
		"attributes": attrs,
	}
	if p.ID != "" {
		res["id"] = p.ID
	}
	return res
}

func writeNextData(w http.ResponseWriter, pageProps map[string]interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"props": map[string]interface{}{"pageProps": pageProps},
	})
	writeHTML(w, `<script id="__NEXT_DATA__" type="application/json">`+string(data)+`</script>`)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>Patreon</title></head><body>%s</body></html>", body)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
