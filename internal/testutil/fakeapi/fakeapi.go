// Package fakeapi is an in-process stand-in for the billing API used by
// package tests.
package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Request is a recorded call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Decode unmarshals the recorded JSON body into v
func (r Request) Decode(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("decode %s %s body: %v", r.Method, r.Path, err)
	}
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []Request
}

// New starts a server that is closed when the test ends
func New(t testing.TB) *Server {
	s := &Server{handlers: make(map[string]http.HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers h for method and path. path is relative to /api and
// slash-terminated, e.g. "/bills/".
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[key(method, path)] = h
}

// JSON registers a fixed JSON response
func (s *Server) JSON(method, path string, status int, body any) {
	s.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		Respond(w, status, body)
	})
}

// Requests returns every call received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls returns the recorded calls to method and path
func (s *Server) Calls(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == "/api"+path {
			out = append(out, r)
		}
	}
	return out
}

// Last returns the most recent call to method and path
func (s *Server) Last(method, path string) (Request, bool) {
	calls := s.Calls(method, path)
	if len(calls) == 0 {
		return Request{}, false
	}
	return calls[len(calls)-1], true
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	h, ok := s.handlers[key(r.Method, strings.TrimPrefix(r.URL.Path, "/api"))]
	s.mu.Unlock()

	if !ok {
		Respond(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	h(w, r)
}

func key(method, path string) string {
	return method + " " + path
}

// Respond writes body as JSON with the given status
func Respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

var signingKey = []byte("fakeapi-test-key")

// Token mints an access token for username expiring at exp
func Token(t testing.TB, username string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"token_type": "access",
		"sub":        username,
		"exp":        exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
