// Package apitest runs an in-process blog API with the same contract as the remote server, for
// use in tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sidereusnuntius/blogclient/internal/domain"
)

// Request is what the server saw of an incoming call.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	// Body is the request body with surrounding whitespace trimmed.
	Body string
}

type Server struct {
	*httptest.Server
	mu       sync.Mutex
	users    map[string]string
	tokens   map[string]string
	posts    []domain.Post
	requests []Request
}

// New starts a server under /api. Call Close when done.
func New() *Server {
	s := &Server{
		users:  map[string]string{},
		tokens: map[string]string{},
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Get("/posts", s.list)
		r.Get("/posts/search", s.search)
		r.Group(func(r chi.Router) {
			r.Use(s.authenticated)
			r.Post("/posts", s.create)
			r.Put("/posts/{id}", s.update)
			r.Delete("/posts/{id}", s.delete)
			r.Post("/posts/{id}/comments", s.comment)
			r.Post("/posts/{id}/tags", s.tag)
			r.Post("/posts/{id}/categories", s.category)
		})
	})
	s.Server = httptest.NewServer(r)
	return s
}

// Endpoint is the base URL a client session should use.
func (s *Server) Endpoint() string {
	return s.URL + "/api"
}

// Seed replaces the collection.
func (s *Server) Seed(posts ...domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = slices.Clone(posts)
}

func (s *Server) Posts() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.posts)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Last returns the most recent request, or the zero Request if none arrived.
func (s *Server) Last() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			Body:          string(bytes.TrimSpace(body)),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, known := s.tokens[token]
		s.mu.Unlock()
		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var c struct{ Username, Password string }
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Username == "" || c.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing field: username or password"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[c.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username already exists"})
		return
	}
	s.users[c.Username] = c.Password
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var c struct{ Username, Password string }
	_ = json.NewDecoder(r.Body).Decode(&c)

	s.mu.Lock()
	defer s.mu.Unlock()
	if password, ok := s.users[c.Username]; !ok || password != c.Password || c.Password == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
		return
	}
	token := "token-" + c.Username
	s.tokens[token] = c.Username
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

var sortFields = map[string]func(domain.Post) string{
	"title":   func(p domain.Post) string { return p.Title },
	"content": func(p domain.Post) string { return p.Content },
	"author":  func(p domain.Post) string { return p.Author },
	"date":    func(p domain.Post) string { return p.Date },
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	posts := s.Posts()
	sort := r.URL.Query().Get("sort")
	if sort == "" {
		writeJSON(w, http.StatusOK, posts)
		return
	}

	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = domain.Ascending
	}
	key, ok := sortFields[sort]
	if !ok || (direction != domain.Ascending && direction != domain.Descending) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid sort or direction value"})
		return
	}

	slices.SortStableFunc(posts, func(a, b domain.Post) int {
		c := strings.Compare(key(a), key(b))
		if direction == domain.Descending {
			return -c
		}
		return c
	})
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	found := []domain.Post{}
	for _, p := range s.Posts() {
		for field, key := range sortFields {
			term := strings.ToLower(q.Get(field))
			if term != "" && strings.Contains(strings.ToLower(key(p)), term) {
				found = append(found, p)
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var f domain.PostFields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil || f.Title == "" || f.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing field: title, content"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var id int64 = 1
	for _, p := range s.posts {
		id = max(id, p.ID+1)
	}
	p := domain.Post{
		ID:         id,
		Title:      f.Title,
		Content:    f.Content,
		Author:     f.Author,
		Date:       f.Date,
		Tags:       f.Tags,
		Categories: f.Categories,
	}
	s.posts = append(s.posts, p)
	writeJSON(w, http.StatusCreated, p)
}

// withPost runs f on the post named by the id URL parameter, answering 404 when there is none.
func (s *Server) withPost(w http.ResponseWriter, r *http.Request, f func(i int)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.posts, func(p domain.Post) bool { return p.ID == id })
	if err != nil || i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Post was not found"})
		return
	}
	f(i)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var f domain.PostFields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bad Request"})
		return
	}
	s.withPost(w, r, func(i int) {
		p := &s.posts[i]
		p.Title, p.Content, p.Author, p.Date = f.Title, f.Content, f.Author, f.Date
		p.Tags, p.Categories = f.Tags, f.Categories
		writeJSON(w, http.StatusOK, *p)
	})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.withPost(w, r, func(i int) {
		id := s.posts[i].ID
		s.posts = slices.Delete(s.posts, i, i+1)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Post with id " + strconv.FormatInt(id, 10) + " has been deleted successfully.",
		})
	})
}

func (s *Server) comment(w http.ResponseWriter, r *http.Request) {
	var c domain.Comment
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Author == "" || c.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing field: content, author"})
		return
	}
	s.withPost(w, r, func(i int) {
		p := &s.posts[i]
		c.ID = int64(len(p.Comments) + 1)
		p.Comments = append(p.Comments, c)
		writeJSON(w, http.StatusCreated, c)
	})
}

func (s *Server) tag(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.withPost(w, r, func(i int) {
		if body["tags"] == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing field: tags"})
			return
		}
		s.posts[i].Tags = append(s.posts[i].Tags, body["tags"])
		writeJSON(w, http.StatusCreated, body)
	})
}

func (s *Server) category(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.withPost(w, r, func(i int) {
		if body["category"] == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing field: category"})
			return
		}
		s.posts[i].Categories = append(s.posts[i].Categories, body["category"])
		writeJSON(w, http.StatusCreated, body)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
