package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/blogclient/internal/domain"
	"github.com/sidereusnuntius/blogclient/internal/session"
)

// HttpClient talks JSON to the blog API. It holds no session state of its own: the endpoint and
// token come with every call.
type HttpClient struct {
	client *http.Client
}

var _ API = (*HttpClient)(nil)

func New(client *http.Client) *HttpClient {
	return &HttpClient{
		client: client,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *HttpClient) Register(ctx context.Context, s session.Session, username, password string) error {
	return c.do(ctx, s, http.MethodPost, nil, credentials{username, password}, nil, "register")
}

func (c *HttpClient) Login(ctx context.Context, s session.Session, username, password string) (string, error) {
	var res struct {
		AccessToken string `json:"access_token"`
	}

	err := c.do(ctx, s, http.MethodPost, nil, credentials{username, password}, &res, "login")
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusBadRequest) {
		return "", fmt.Errorf("%w: %s", ErrAuth, se)
	}
	if err != nil {
		return "", err
	}

	if res.AccessToken == "" {
		return "", fmt.Errorf("%w: response carries no access token", ErrAuth)
	}
	return res.AccessToken, nil
}

func (c *HttpClient) ListPosts(ctx context.Context, s session.Session, sort *domain.Sort) (posts []domain.Post, err error) {
	var query url.Values
	if sort != nil {
		query = url.Values{}
		query.Set("sort", sort.Field)
		query.Set("direction", sort.Direction)
	}
	err = c.do(ctx, s, http.MethodGet, query, nil, &posts, "posts")
	return
}

func (c *HttpClient) SearchPosts(ctx context.Context, s session.Session, filters domain.SearchFilters) (posts []domain.Post, err error) {
	query := url.Values{}
	for name, value := range map[string]string{
		"title":   filters.Title,
		"content": filters.Content,
		"author":  filters.Author,
		"date":    filters.Date,
	} {
		if value != "" {
			query.Set(name, value)
		}
	}
	err = c.do(ctx, s, http.MethodGet, query, nil, &posts, "posts", "search")
	return
}

func (c *HttpClient) CreatePost(ctx context.Context, s session.Session, fields domain.PostFields) (post domain.Post, err error) {
	err = c.do(ctx, s, http.MethodPost, nil, withLists(fields), &post, "posts")
	return
}

func (c *HttpClient) UpdatePost(ctx context.Context, s session.Session, id int64, fields domain.PostFields) (post domain.Post, err error) {
	err = c.do(ctx, s, http.MethodPut, nil, withLists(fields), &post, "posts", strconv.FormatInt(id, 10))
	return
}

// withLists makes sure tags and categories are sent as arrays. The server stores a null as is
// and then fails to append to it.
func withLists(fields domain.PostFields) domain.PostFields {
	if fields.Tags == nil {
		fields.Tags = []string{}
	}
	if fields.Categories == nil {
		fields.Categories = []string{}
	}
	return fields
}

func (c *HttpClient) DeletePost(ctx context.Context, s session.Session, id int64) error {
	return c.do(ctx, s, http.MethodDelete, nil, nil, nil, "posts", strconv.FormatInt(id, 10))
}

func (c *HttpClient) AddComment(ctx context.Context, s session.Session, postID int64, comment domain.CommentFields) (created domain.Comment, err error) {
	err = c.do(ctx, s, http.MethodPost, nil, comment, &created, "posts", strconv.FormatInt(postID, 10), "comments")
	return
}

func (c *HttpClient) AddTag(ctx context.Context, s session.Session, postID int64, tag string) error {
	body := map[string]string{"tags": tag}
	return c.do(ctx, s, http.MethodPost, nil, body, nil, "posts", strconv.FormatInt(postID, 10), "tags")
}

func (c *HttpClient) AddCategory(ctx context.Context, s session.Session, postID int64, category string) error {
	body := map[string]string{"category": category}
	return c.do(ctx, s, http.MethodPost, nil, body, nil, "posts", strconv.FormatInt(postID, 10), "categories")
}

// do sends a request to the session's endpoint joined with path. body, when not nil, is sent as
// JSON; out, when not nil, receives the decoded response.
func (c *HttpClient) do(ctx context.Context, s session.Session, method string, query url.Values, body, out any, path ...string) error {
	if s.BaseURL == "" {
		return ErrNoEndpoint
	}

	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid endpoint: %s", ErrNetwork, err)
	}
	u := base.JoinPath(path...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		content, err := io.ReadAll(res.Body)
		event := log.Debug().Str("method", method).Str("url", u.String()).Int("code", res.StatusCode)
		if err != nil {
			event.Err(err)
		}
		event.Bytes("response", content).Msg("request error")
		return &StatusError{Code: res.StatusCode, Body: string(bytes.TrimSpace(content))}
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: response body unmarshaling error: %s", ErrNetwork, err)
	}
	return nil
}
