// Package backendtest runs an in-process fake of the dashboard backend for
// tests. Handlers answer with canned responses and every request is recorded.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a canned answer. Body is JSON-encoded unless it is []byte.
type Response struct {
	Status int
	Body   any
	Header map[string]string
}

// Server wraps httptest.Server with a chi router.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	routes   map[string]func(Request) Response
}

// New starts a server that is closed when t finishes. Unrouted paths answer
// 404 with an error body.
func New(t testing.TB) *Server {
	s := &Server{routes: map[string]func(Request) Response{}}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard/summary", s.dispatch)
		r.Get("/transactions", s.dispatch)
		r.Get("/transactions/users", s.dispatch)
		r.Get("/transactions/{id}", s.dispatch)
		r.Post("/export/preview", s.dispatch)
		r.Post("/export/csv", s.dispatch)
		r.Post("/auth/login", s.dispatch)
		r.Post("/auth/register", s.dispatch)
		r.Get("/auth/verify", s.dispatch)
		r.Post("/auth/logout", s.dispatch)
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the value to configure as API_URL.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Handle sets the handler for method and path, where path is the route
// pattern below /api, e.g. "/transactions/{id}".
func (s *Server) Handle(method, pattern string, fn func(Request) Response) {
	s.mu.Lock()
	s.routes[method+" "+pattern] = fn
	s.mu.Unlock()
}

// Reply answers method and pattern with status and body on every call.
func (s *Server) Reply(method, pattern string, status int, body any) {
	s.Handle(method, pattern, func(Request) Response {
		return Response{Status: status, Body: body}
	})
}

// Requests returns every request recorded so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to path.
func (s *Server) Last(path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	}

	pattern := chi.RouteContext(r.Context()).RoutePattern()
	if len(pattern) > len("/api") {
		pattern = pattern[len("/api"):]
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	fn, ok := s.routes[r.Method+" "+pattern]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no canned response"})
		return
	}

	resp := fn(rec)
	for k, v := range resp.Header {
		w.Header().Set(k, v)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if raw, ok := resp.Body.([]byte); ok {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/csv")
		}
		w.WriteHeader(status)
		_, _ = w.Write(raw)
		return
	}
	writeJSON(w, status, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// DecodeBody unmarshals the recorded JSON body into v.
func (r Request) DecodeBody(v any) error {
	return json.Unmarshal(r.Body, v)
}
