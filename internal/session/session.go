// Package session holds the client's current API endpoint and bearer token.
package session

import (
	"context"
	"errors"
)

// Keys under which the session values are persisted.
const (
	EndpointKey = "apiBaseUrl"
	TokenKey    = "accessToken"
)

var (
	ErrInternal = errors.New("internal error")
	ErrSealed   = errors.New("stored value could not be unsealed")
)

// Session is the endpoint and token a request is made with. An empty AccessToken means the
// client is not logged in.
type Session struct {
	BaseURL     string
	AccessToken string
}

func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Store persists a single profile's session. Writes are durable as soon as they return.
type Store interface {
	// ID identifies the profile the store belongs to.
	ID() string
	Endpoint(ctx context.Context) (string, bool)
	SetEndpoint(ctx context.Context, url string) error
	Token(ctx context.Context) (string, bool)
	SetToken(ctx context.Context, token string) error
	// ClearToken logs the profile out. The endpoint is kept.
	ClearToken(ctx context.Context) error
}

// Load assembles the session currently stored for the profile.
func Load(ctx context.Context, st Store) Session {
	var s Session
	s.BaseURL, _ = st.Endpoint(ctx)
	s.AccessToken, _ = st.Token(ctx)
	return s
}
