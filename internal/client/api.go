package client

//go:generate mockgen -source=api.go -destination=../mocks/mock_client.go -package=mock_client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sidereusnuntius/blogclient/internal/domain"
	"github.com/sidereusnuntius/blogclient/internal/session"
)

var (
	ErrNoEndpoint = errors.New("no API endpoint configured")
	ErrNetwork    = errors.New("request failed")
	ErrAuth       = errors.New("authentication rejected")
	ErrNotFound   = errors.New("post not found")
)

// API is the set of remote operations offered by the blog server. Every call is made with the
// endpoint and token of the given session.
type API interface {
	Register(ctx context.Context, s session.Session, username, password string) error
	// Login exchanges credentials for a bearer token. Storing the token is up to the caller.
	Login(ctx context.Context, s session.Session, username, password string) (string, error)
	// ListPosts fetches the whole collection. A nil sort leaves the ordering to the server.
	ListPosts(ctx context.Context, s session.Session, sort *domain.Sort) ([]domain.Post, error)
	SearchPosts(ctx context.Context, s session.Session, filters domain.SearchFilters) ([]domain.Post, error)
	CreatePost(ctx context.Context, s session.Session, fields domain.PostFields) (domain.Post, error)
	UpdatePost(ctx context.Context, s session.Session, id int64, fields domain.PostFields) (domain.Post, error)
	DeletePost(ctx context.Context, s session.Session, id int64) error
	AddComment(ctx context.Context, s session.Session, postID int64, comment domain.CommentFields) (domain.Comment, error)
	AddTag(ctx context.Context, s session.Session, postID int64, tag string) error
	AddCategory(ctx context.Context, s session.Session, postID int64, category string) error
}

// StatusError is returned when the server answers with an error status. It unwraps to
// ErrNotFound for 404 responses and to ErrNetwork otherwise.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrNetwork
}
