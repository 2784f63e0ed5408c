// Package controller keeps each profile's view consistent with the remote collection. Every
// write is followed by a full reload; nothing is ever merged locally.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/blogclient/internal/client"
	"github.com/sidereusnuntius/blogclient/internal/diff"
	"github.com/sidereusnuntius/blogclient/internal/domain"
	"github.com/sidereusnuntius/blogclient/internal/session"
	"github.com/sidereusnuntius/blogclient/internal/validate"
)

// DateLayout is how post and comment dates are stamped before being sent.
const DateLayout = "1/2/2006"

var ErrInvalidInput = errors.New("invalid")

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type Controller struct {
	api   client.API
	board *Board
	clock Clock
	// allowedHosts limits the endpoints a browser may choose. Empty means any host.
	allowedHosts []string
}

func New(api client.API, clock Clock, allowedHosts ...string) *Controller {
	return &Controller{
		api:          api,
		board:        NewBoard(),
		clock:        clock,
		allowedHosts: allowedHosts,
	}
}

// Current returns what the profile's view displays, without contacting the server.
func (c *Controller) Current(st session.Store) Snapshot {
	return c.board.Current(st.ID())
}

// Refresh persists endpoint, when given, and reloads the whole collection in server order.
func (c *Controller) Refresh(ctx context.Context, st session.Store, endpoint string) (Snapshot, error) {
	if endpoint != "" {
		if err := validate.Endpoint(endpoint, c.allowedHosts...); err != nil {
			return c.fail(st, "invalid endpoint", fmt.Errorf("%w: %s", ErrInvalidInput, err))
		}
		if err := st.SetEndpoint(ctx, endpoint); err != nil {
			return c.fail(st, "failed to store endpoint", err)
		}
	}

	return c.load(ctx, st, Snapshot{View: domain.ListView}, func(s session.Session) ([]domain.Post, error) {
		return c.api.ListPosts(ctx, s, nil)
	})
}

// ApplySort reloads the collection in the requested order. The choice is not persisted; the
// next Refresh goes back to the server's default ordering.
func (c *Controller) ApplySort(ctx context.Context, st session.Store, field, direction string) (Snapshot, error) {
	sort := domain.Sort{Field: field, Direction: direction}
	return c.load(ctx, st, Snapshot{View: domain.SortedView, Sort: sort}, func(s session.Session) ([]domain.Post, error) {
		return c.api.ListPosts(ctx, s, &sort)
	})
}

func (c *Controller) ApplySearch(ctx context.Context, st session.Store, filters domain.SearchFilters) (Snapshot, error) {
	return c.load(ctx, st, Snapshot{View: domain.SearchView, Filters: filters}, func(s session.Session) ([]domain.Post, error) {
		return c.api.SearchPosts(ctx, s, filters)
	})
}

func (c *Controller) Register(ctx context.Context, st session.Store, endpoint, username, password string) (Snapshot, error) {
	s, err := c.sessionWith(ctx, st, endpoint)
	if err == nil {
		err = validate.Credentials(username, password)
		if err != nil {
			err = fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
	}
	if err != nil {
		return c.fail(st, "registration refused", err)
	}

	if err = c.api.Register(ctx, s, username, password); err != nil {
		return c.fail(st, "registration failed", err)
	}
	log.Info().Str("username", username).Msg("registration successful")
	return c.Current(st), nil
}

// Login stores the token issued for the credentials, then reloads through endpoint.
func (c *Controller) Login(ctx context.Context, st session.Store, endpoint, username, password string) (Snapshot, error) {
	s, err := c.sessionWith(ctx, st, endpoint)
	if err == nil {
		err = validate.Credentials(username, password)
		if err != nil {
			err = fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
	}
	if err != nil {
		return c.fail(st, "login refused", err)
	}

	token, err := c.api.Login(ctx, s, username, password)
	if err != nil {
		return c.fail(st, "login failed", err)
	}
	if err = st.SetToken(ctx, token); err != nil {
		return c.fail(st, "failed to store token", err)
	}
	log.Info().Str("username", username).Msg("login successful")
	return c.Refresh(ctx, st, endpoint)
}

func (c *Controller) Logout(ctx context.Context, st session.Store) (Snapshot, error) {
	if err := st.ClearToken(ctx); err != nil {
		return c.fail(st, "failed to clear token", err)
	}
	return c.Refresh(ctx, st, "")
}

// Create stamps the post with today's date, sends it and reloads. The new post only shows up
// through the reload.
func (c *Controller) Create(ctx context.Context, st session.Store, fields domain.PostFields) (Snapshot, error) {
	fields.Date = c.today()
	if err := validate.Post(fields); err != nil {
		return c.fail(st, "post refused", fmt.Errorf("%w: %s", ErrInvalidInput, err))
	}

	post, err := c.api.CreatePost(ctx, session.Load(ctx, st), fields)
	if err != nil {
		return c.fail(st, "failed to add post", err)
	}
	log.Info().Int64("id", post.ID).Msg("post added")
	return c.Refresh(ctx, st, "")
}

// Update replaces every field of the post and reloads. An empty date keeps the date currently
// displayed for the post.
func (c *Controller) Update(ctx context.Context, st session.Store, id int64, fields domain.PostFields) (Snapshot, error) {
	shown, displayed := c.Current(st).Post(id)
	if fields.Date == "" {
		fields.Date = shown.Date
		if !displayed {
			fields.Date = c.today()
		}
	}
	if err := validate.Post(fields); err != nil {
		return c.fail(st, "update refused", fmt.Errorf("%w: %s", ErrInvalidInput, err))
	}

	post, err := c.api.UpdatePost(ctx, session.Load(ctx, st), id, fields)
	if err != nil {
		return c.fail(st, "failed to update post", err)
	}

	event := log.Info().Int64("id", post.ID)
	if displayed {
		event.Strs("changed", diff.Fields(shown.Fields(), fields)).
			Str("patch", diff.FindPatches(shown.Content, fields.Content))
	}
	event.Msg("post updated")
	return c.Refresh(ctx, st, "")
}

func (c *Controller) Remove(ctx context.Context, st session.Store, id int64) (Snapshot, error) {
	if err := c.api.DeletePost(ctx, session.Load(ctx, st), id); err != nil {
		return c.fail(st, "failed to delete post", err)
	}
	log.Info().Int64("id", id).Msg("post deleted")
	return c.Refresh(ctx, st, "")
}

func (c *Controller) Comment(ctx context.Context, st session.Store, postID int64, author, content string) (Snapshot, error) {
	if err := validate.Comment(author, content); err != nil {
		return c.fail(st, "comment refused", fmt.Errorf("%w: %s", ErrInvalidInput, err))
	}

	comment, err := c.api.AddComment(ctx, session.Load(ctx, st), postID, domain.CommentFields{
		Author:  author,
		Content: content,
		Date:    c.today(),
	})
	if err != nil {
		return c.fail(st, "failed to add comment", err)
	}
	log.Info().Int64("post", postID).Int64("comment", comment.ID).Msg("comment added")
	return c.Refresh(ctx, st, "")
}

func (c *Controller) AddTag(ctx context.Context, st session.Store, postID int64, tag string) (Snapshot, error) {
	if tag == "" {
		return c.fail(st, "tag refused", fmt.Errorf("%w: empty tag", ErrInvalidInput))
	}
	if err := c.api.AddTag(ctx, session.Load(ctx, st), postID, tag); err != nil {
		return c.fail(st, "failed to add tag", err)
	}
	return c.Refresh(ctx, st, "")
}

func (c *Controller) AddCategory(ctx context.Context, st session.Store, postID int64, category string) (Snapshot, error) {
	if category == "" {
		return c.fail(st, "category refused", fmt.Errorf("%w: empty category", ErrInvalidInput))
	}
	if err := c.api.AddCategory(ctx, session.Load(ctx, st), postID, category); err != nil {
		return c.fail(st, "failed to add category", err)
	}
	return c.Refresh(ctx, st, "")
}

// load runs fetch under a new sequence number and commits the result to the profile's view.
func (c *Controller) load(ctx context.Context, st session.Store, snap Snapshot, fetch func(session.Session) ([]domain.Post, error)) (Snapshot, error) {
	profile := st.ID()
	snap.Seq = c.board.Begin(profile)

	posts, err := fetch(session.Load(ctx, st))
	if err != nil {
		return c.fail(st, "failed to load posts", err)
	}
	snap.Posts = posts

	current, accepted := c.board.Commit(profile, snap)
	if !accepted {
		log.Debug().Str("profile", profile).Uint64("seq", snap.Seq).Uint64("shown", current.Seq).
			Msg("discarded stale response")
	}
	return current, nil
}

// sessionWith is the stored session, with endpoint, when given, taking the stored one's place.
func (c *Controller) sessionWith(ctx context.Context, st session.Store, endpoint string) (session.Session, error) {
	s := session.Load(ctx, st)
	if endpoint == "" {
		return s, nil
	}
	if err := validate.Endpoint(endpoint, c.allowedHosts...); err != nil {
		return s, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	s.BaseURL = endpoint
	return s, nil
}

// fail logs err and leaves the view as it last rendered.
func (c *Controller) fail(st session.Store, msg string, err error) (Snapshot, error) {
	log.Error().Err(err).Str("profile", st.ID()).Msg(msg)
	return c.Current(st), err
}

func (c *Controller) today() string {
	return c.clock.Now().Format(DateLayout)
}
