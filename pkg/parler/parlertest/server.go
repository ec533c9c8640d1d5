// Package parlertest provides an in-process fake of the Parler REST API.
//
// Every route the client speaks is registered on a chi router. Replies are
// scripted per method and path; unscripted calls get DefaultReply. All
// requests are recorded so tests can assert on paths, query strings, cookies,
// headers and bodies.
package parlertest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultReply is served when no reply has been scripted for a route.
var DefaultReply = Reply{
	Status: http.StatusOK,
	Body:   map[string]interface{}{"data": []interface{}{}, "last": true},
}

// Reply is one scripted response. Body is written verbatim when it is a
// string or []byte and JSON-encoded otherwise.
type Reply struct {
	Status int
	Body   interface{}
	Delay  time.Duration
}

// Request is a recorded inbound request.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Cookies  map[string]string
	Body     []byte
}

// Server is a fake Parler API backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	scripts  map[string][]Reply
	fixed    map[string]Reply
	requests []Request
	session  *session
}

type session struct {
	jst string
	mst string
}

// NewServer starts a fake API. Call Close when done.
func NewServer() *Server {
	s := &Server{
		scripts: make(map[string][]Reply),
		fixed:   make(map[string]Reply),
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(s.record)

	// v1 API
	router.Get("/profile", s.serve)
	router.Get("/hashtag", s.serve)
	router.Get("/feed", s.serve)
	router.Get("/notification", s.serve)
	router.Get("/discover/posts", s.serve)
	router.Get("/post/hashtag", s.serve)
	router.Get("/users", s.serve)
	router.Post("/follow", s.serve)
	router.Get("/follow/followers", s.serve)
	router.With(itemTypeOnly).Get("/{itemType}/creator", s.serve)
	router.With(itemTypeOnly).Post("/{itemType}/delete", s.serve)

	// v2 login API
	router.Post("/login/new", s.serve)
	router.Post("/login/captcha/new", s.serve)
	router.Post("/login/captcha/submit", s.serve)

	s.Server = httptest.NewServer(router)
	return s
}

// RequireSession makes every v1 request without matching jst and mst
// cookies fail with 401.
func (s *Server) RequireSession(jst, mst string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session{jst: jst, mst: mst}
}

// Script queues replies for method and path, served once each in order.
func (s *Server) Script(method, path string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := routeKey(method, path)
	s.scripts[key] = append(s.scripts[key], replies...)
}

// Respond serves reply for method and path once the script queue is empty.
func (s *Server) Respond(method, path string, reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed[routeKey(method, path)] = reply
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns the number of requests received so far.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recent request, or false if none arrived.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		cookies := make(map[string]string)
		for _, c := range r.Cookies() {
			cookies[c.Name] = c.Value
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Cookies:  cookies,
			Body:     body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func itemTypeOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "itemType") {
		case "post", "comment":
			next.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeReply(w, Reply{
			Status: http.StatusUnauthorized,
			Body:   map[string]interface{}{"message": "invalid session"},
		})
		return
	}
	reply := s.next(routeKey(r.Method, r.URL.Path))
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}
	writeReply(w, reply)
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil || strings.HasPrefix(r.URL.Path, "/login/") {
		return true
	}
	jst, err := r.Cookie("jst")
	if err != nil || jst.Value != sess.jst {
		return false
	}
	mst, err := r.Cookie("mst")
	return err == nil && mst.Value == sess.mst
}

func (s *Server) next(key string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	if queue := s.scripts[key]; len(queue) > 0 {
		s.scripts[key] = queue[1:]
		return queue[0]
	}
	if reply, ok := s.fixed[key]; ok {
		return reply
	}
	return DefaultReply
}

func writeReply(w http.ResponseWriter, reply Reply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	var payload []byte
	switch body := reply.Body.(type) {
	case nil:
	case string:
		payload = []byte(body)
	case []byte:
		payload = body
	default:
		data, err := json.Marshal(body)
		if err != nil {
			http.Error(w, fmt.Sprintf("encode reply: %v", err), http.StatusInternalServerError)
			return
		}
		payload = data
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func routeKey(method, path string) string {
	return method + " " + path
}
