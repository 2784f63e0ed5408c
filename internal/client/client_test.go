package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sidereusnuntius/blogclient/internal/apitest"
	"github.com/sidereusnuntius/blogclient/internal/domain"
	"github.com/sidereusnuntius/blogclient/internal/session"
)

var ctx = context.Background()

func setup(t *testing.T) (*HttpClient, *apitest.Server, session.Session) {
	t.Helper()
	server := apitest.New()
	t.Cleanup(server.Close)
	return New(&http.Client{}), server, session.Session{BaseURL: server.Endpoint()}
}

func login(t *testing.T, c *HttpClient, s session.Session) session.Session {
	t.Helper()
	if err := c.Register(ctx, s, "ada", "lovelace"); err != nil {
		t.Fatalf("register: %s", err)
	}
	token, err := c.Login(ctx, s, "ada", "lovelace")
	if err != nil {
		t.Fatalf("login: %s", err)
	}
	s.AccessToken = token
	return s
}

func TestLoginAttachesBearerToken(t *testing.T) {
	c, server, s := setup(t)
	s = login(t, c, s)
	if s.AccessToken != "token-ada" {
		t.Fatalf("unexpected token %q", s.AccessToken)
	}

	if _, err := c.ListPosts(ctx, s, nil); err != nil {
		t.Fatal(err)
	}
	if got := server.Last().Authorization; got != "Bearer token-ada" {
		t.Errorf("expected \"Bearer token-ada\", got %q", got)
	}
}

func TestNoTokenOmitsAuthorization(t *testing.T) {
	c, server, s := setup(t)
	if _, err := c.ListPosts(ctx, s, nil); err != nil {
		t.Fatal(err)
	}
	if got := server.Last().Authorization; got != "" {
		t.Errorf("expected no Authorization header, got %q", got)
	}
}

func TestLoginRejected(t *testing.T) {
	c, _, s := setup(t)
	_, err := c.Login(ctx, s, "nobody", "wrong")
	if !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func TestListPostsQuery(t *testing.T) {
	c, server, s := setup(t)
	server.Seed(
		domain.Post{ID: 1, Title: "b", Date: "1/1/2024"},
		domain.Post{ID: 2, Title: "a", Date: "1/3/2024"},
		domain.Post{ID: 3, Title: "c", Date: "1/2/2024"},
	)

	cases := []struct {
		name  string
		sort  *domain.Sort
		query string
		ids   []int64
	}{
		{"no sort", nil, "", []int64{1, 2, 3}},
		{"date desc", &domain.Sort{Field: "date", Direction: "desc"}, "direction=desc&sort=date", []int64{2, 3, 1}},
		{"title asc", &domain.Sort{Field: "title", Direction: "asc"}, "direction=asc&sort=title", []int64{2, 1, 3}},
	}

	for _, c2 := range cases {
		t.Run(c2.name, func(t *testing.T) {
			posts, err := c.ListPosts(ctx, s, c2.sort)
			if err != nil {
				t.Fatal(err)
			}
			last := server.Last()
			if last.Path != "/api/posts" || last.RawQuery != c2.query {
				t.Errorf("unexpected request %s?%s", last.Path, last.RawQuery)
			}
			ids := make([]int64, len(posts))
			for i, p := range posts {
				ids[i] = p.ID
			}
			if diff := cmp.Diff(c2.ids, ids); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestSearchOmitsAbsentFilters(t *testing.T) {
	c, server, s := setup(t)
	server.Seed(
		domain.Post{ID: 1, Title: "Go generics", Author: "rob"},
		domain.Post{ID: 2, Title: "Rust traits", Author: "ken"},
	)

	cases := []struct {
		name    string
		filters domain.SearchFilters
		query   string
		count   int
	}{
		{"no filters", domain.SearchFilters{}, "", 0},
		{"title only", domain.SearchFilters{Title: "go"}, "title=go", 1},
		{"title and author", domain.SearchFilters{Title: "rust", Author: "rob"}, "author=rob&title=rust", 2},
	}

	for _, c2 := range cases {
		t.Run(c2.name, func(t *testing.T) {
			posts, err := c.SearchPosts(ctx, s, c2.filters)
			if err != nil {
				t.Fatal(err)
			}
			last := server.Last()
			if last.Path != "/api/posts/search" || last.RawQuery != c2.query {
				t.Errorf("expected query %q, got %q", c2.query, last.RawQuery)
			}
			if len(posts) != c2.count {
				t.Errorf("expected %d results, got %d", c2.count, len(posts))
			}
		})
	}
}

func TestPostLifecycle(t *testing.T) {
	c, server, s := setup(t)
	s = login(t, c, s)

	created, err := c.CreatePost(ctx, s, domain.PostFields{
		Title:      "First",
		Content:    "Hello",
		Author:     "ada",
		Date:       "10/19/2026",
		Tags:       []string{"a", "b"},
		Categories: []string{"x"},
	})
	if err != nil {
		t.Fatal(err)
	}

	posts, err := c.ListPosts(ctx, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]domain.Post{created}, posts); diff != "" {
		t.Error(diff)
	}

	fields := created.Fields()
	fields.Content = "Hello, world"
	updated, err := c.UpdatePost(ctx, s, created.ID, fields)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Content != "Hello, world" || updated.ID != created.ID {
		t.Errorf("unexpected update result %+v", updated)
	}

	comment, err := c.AddComment(ctx, s, created.ID, domain.CommentFields{Author: "bob", Content: "nice", Date: "10/19/2026"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]domain.Comment{comment}, server.Posts()[0].Comments); diff != "" {
		t.Error(diff)
	}

	if err = c.AddTag(ctx, s, created.ID, "c"); err != nil {
		t.Fatal(err)
	}
	if err = c.AddCategory(ctx, s, created.ID, "y"); err != nil {
		t.Fatal(err)
	}
	got := server.Posts()[0]
	if diff := cmp.Diff([]string{"a", "b", "c"}, got.Tags); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff([]string{"x", "y"}, got.Categories); diff != "" {
		t.Error(diff)
	}

	if err = c.DeletePost(ctx, s, created.ID); err != nil {
		t.Fatal(err)
	}
	if left := server.Posts(); len(left) != 0 {
		t.Errorf("expected empty collection, got %d posts", len(left))
	}
}

func TestPostWithoutListsSendsEmptyArrays(t *testing.T) {
	c, server, s := setup(t)
	s = login(t, c, s)

	created, err := c.CreatePost(ctx, s, domain.PostFields{Title: "a", Content: "b"})
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"title":"a","content":"b","author":"","date":"","tags":[],"categories":[]}`
	if got := server.Last().Body; got != expected {
		t.Errorf("create sent %s", got)
	}

	if _, err = c.UpdatePost(ctx, s, created.ID, domain.PostFields{Title: "a", Content: "c"}); err != nil {
		t.Fatal(err)
	}
	expected = `{"title":"a","content":"c","author":"","date":"","tags":[],"categories":[]}`
	if got := server.Last().Body; got != expected {
		t.Errorf("update sent %s", got)
	}
}

func TestMutationErrors(t *testing.T) {
	c, _, s := setup(t)
	authed := login(t, c, s)

	cases := []struct {
		name string
		call func() error
		err  error
	}{
		{"update missing post", func() error {
			_, err := c.UpdatePost(ctx, authed, 42, domain.PostFields{Title: "t"})
			return err
		}, ErrNotFound},
		{"delete missing post", func() error { return c.DeletePost(ctx, authed, 42) }, ErrNotFound},
		{"comment on missing post", func() error {
			_, err := c.AddComment(ctx, authed, 42, domain.CommentFields{Author: "a", Content: "c"})
			return err
		}, ErrNotFound},
		{"create without token", func() error {
			_, err := c.CreatePost(ctx, s, domain.PostFields{Title: "t", Content: "c"})
			return err
		}, ErrNetwork},
		{"no endpoint", func() error {
			_, err := c.ListPosts(ctx, session.Session{}, nil)
			return err
		}, ErrNoEndpoint},
	}

	for _, c2 := range cases {
		t.Run(c2.name, func(t *testing.T) {
			if err := c2.call(); !errors.Is(err, c2.err) {
				t.Errorf("expected %v, got %v", c2.err, err)
			}
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	c := New(&http.Client{})
	_, err := c.ListPosts(ctx, session.Session{BaseURL: endpoint}, nil)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}
