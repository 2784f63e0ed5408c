package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sidereusnuntius/blogclient/internal/client"
	"github.com/sidereusnuntius/blogclient/internal/domain"
	mock_client "github.com/sidereusnuntius/blogclient/internal/mocks"
	"github.com/sidereusnuntius/blogclient/internal/session"
	"go.uber.org/mock/gomock"
)

const endpoint = "http://localhost:5002/api"

var ctx = context.Background()

type fixedClock struct{}

func (fixedClock) Now() time.Time {
	return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
}

type memStore struct {
	id     string
	values map[string]string
}

func newStore(endpoint, token string) *memStore {
	st := &memStore{id: "profile", values: map[string]string{}}
	if endpoint != "" {
		st.values[session.EndpointKey] = endpoint
	}
	if token != "" {
		st.values[session.TokenKey] = token
	}
	return st
}

func (m *memStore) ID() string { return m.id }

func (m *memStore) Endpoint(ctx context.Context) (string, bool) {
	v, ok := m.values[session.EndpointKey]
	return v, ok
}

func (m *memStore) SetEndpoint(ctx context.Context, url string) error {
	m.values[session.EndpointKey] = url
	return nil
}

func (m *memStore) Token(ctx context.Context) (string, bool) {
	v, ok := m.values[session.TokenKey]
	return v, ok
}

func (m *memStore) SetToken(ctx context.Context, token string) error {
	m.values[session.TokenKey] = token
	return nil
}

func (m *memStore) ClearToken(ctx context.Context) error {
	delete(m.values, session.TokenKey)
	return nil
}

func setup(t *testing.T) (*Controller, *mock_client.MockAPI) {
	ctrl := gomock.NewController(t)
	api := mock_client.NewMockAPI(ctrl)
	return New(api, fixedClock{}), api
}

func ids(posts []domain.Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestRefreshPersistsEndpoint(t *testing.T) {
	c, api := setup(t)
	st := newStore("", "")
	posts := []domain.Post{{ID: 2, Title: "b"}, {ID: 1, Title: "a"}}

	api.EXPECT().ListPosts(gomock.Any(), session.Session{BaseURL: endpoint}, nil).Return(posts, nil)

	snap, err := c.Refresh(ctx, st, endpoint)
	if err != nil {
		t.Fatal(err)
	}
	if stored, _ := st.Endpoint(ctx); stored != endpoint {
		t.Errorf("expected endpoint %q to be stored, got %q", endpoint, stored)
	}
	if diff := cmp.Diff(posts, snap.Posts); diff != "" {
		t.Error(diff)
	}
	if snap.View != domain.ListView || snap.Seq == 0 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRefreshRejectsInvalidEndpoint(t *testing.T) {
	c, _ := setup(t)
	st := newStore("", "")

	_, err := c.Refresh(ctx, st, "not a url")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, ok := st.Endpoint(ctx); ok {
		t.Error("invalid endpoint was stored")
	}
}

func TestCreateThenRefresh(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "tok")
	s := session.Session{BaseURL: endpoint, AccessToken: "tok"}

	fields := domain.PostFields{Title: "New", Content: "post", Author: "ada", Tags: []string{"a", "b"}, Categories: []string{"x"}}
	sent := fields
	sent.Date = "10/19/2026"
	created := domain.Post{ID: 3, Title: "New", Content: "post", Author: "ada", Date: "10/19/2026", Tags: []string{"a", "b"}, Categories: []string{"x"}}

	gomock.InOrder(
		api.EXPECT().CreatePost(gomock.Any(), s, sent).Return(created, nil),
		api.EXPECT().ListPosts(gomock.Any(), s, nil).Return([]domain.Post{{ID: 1}, created}, nil),
	)

	snap, err := c.Create(ctx, st, fields)
	if err != nil {
		t.Fatal(err)
	}

	var found int
	for _, p := range snap.Posts {
		if p.ID == created.ID {
			found++
			if diff := cmp.Diff(created, p); diff != "" {
				t.Error(diff)
			}
		}
	}
	if found != 1 {
		t.Errorf("expected the new post exactly once, found %d", found)
	}
}

func TestRemoveThenRefresh(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "tok")
	s := session.Load(ctx, st)

	gomock.InOrder(
		api.EXPECT().ListPosts(gomock.Any(), s, nil).Return([]domain.Post{{ID: 1}, {ID: 2}}, nil),
		api.EXPECT().DeletePost(gomock.Any(), s, int64(2)).Return(nil),
		api.EXPECT().ListPosts(gomock.Any(), s, nil).Return([]domain.Post{{ID: 1}}, nil),
	)

	if _, err := c.Refresh(ctx, st, ""); err != nil {
		t.Fatal(err)
	}
	snap, err := c.Remove(ctx, st, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.Post(2); ok {
		t.Error("deleted post is still displayed")
	}
}

func TestApplySortKeepsServerOrder(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "")
	received := []domain.Post{{ID: 5, Date: "1/3/2024"}, {ID: 9, Date: "1/2/2024"}, {ID: 1, Date: "1/1/2024"}}

	api.EXPECT().
		ListPosts(gomock.Any(), session.Session{BaseURL: endpoint}, &domain.Sort{Field: "date", Direction: "desc"}).
		Return(received, nil)

	snap, err := c.ApplySort(ctx, st, "date", "desc")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{5, 9, 1}, ids(snap.Posts)); diff != "" {
		t.Error(diff)
	}
	if snap.View != domain.SortedView || snap.Sort.Field != "date" {
		t.Errorf("unexpected snapshot view %v sort %+v", snap.View, snap.Sort)
	}
}

func TestApplySearch(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "")
	filters := domain.SearchFilters{Author: "ada"}

	api.EXPECT().SearchPosts(gomock.Any(), gomock.Any(), filters).Return([]domain.Post{{ID: 4}}, nil)

	snap, err := c.ApplySearch(ctx, st, filters)
	if err != nil {
		t.Fatal(err)
	}
	if snap.View != domain.SearchView || snap.Filters != filters || len(snap.Posts) != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestFailedMutationKeepsView(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "tok")
	shown := []domain.Post{{ID: 1}, {ID: 2}}

	api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).Return(shown, nil)
	api.EXPECT().DeletePost(gomock.Any(), gomock.Any(), int64(7)).Return(client.ErrNotFound)

	before, err := c.Refresh(ctx, st, "")
	if err != nil {
		t.Fatal(err)
	}
	after, err := c.Remove(ctx, st, 7)
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Error(diff)
	}
}

func TestFailedReloadKeepsView(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "")

	gomock.InOrder(
		api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).Return([]domain.Post{{ID: 1}}, nil),
		api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).Return(nil, client.ErrNetwork),
	)

	before, _ := c.Refresh(ctx, st, "")
	after, err := c.Refresh(ctx, st, "")
	if !errors.Is(err, client.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Error(diff)
	}
}

func TestLoginStoresToken(t *testing.T) {
	c, api := setup(t)
	st := newStore("", "")

	gomock.InOrder(
		api.EXPECT().Login(gomock.Any(), session.Session{BaseURL: endpoint}, "ada", "secret").Return("tok", nil),
		api.EXPECT().ListPosts(gomock.Any(), session.Session{BaseURL: endpoint, AccessToken: "tok"}, nil).Return(nil, nil),
	)

	if _, err := c.Login(ctx, st, endpoint, "ada", "secret"); err != nil {
		t.Fatal(err)
	}
	if token, _ := st.Token(ctx); token != "tok" {
		t.Errorf("expected token \"tok\", got %q", token)
	}
}

func TestLoginRejectedStoresNothing(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "")

	api.EXPECT().Login(gomock.Any(), gomock.Any(), "ada", "wrong").Return("", client.ErrAuth)

	if _, err := c.Login(ctx, st, "", "ada", "wrong"); !errors.Is(err, client.ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
	if _, ok := st.Token(ctx); ok {
		t.Error("a token was stored after a rejected login")
	}
}

func TestLogoutClearsToken(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "tok")

	api.EXPECT().ListPosts(gomock.Any(), session.Session{BaseURL: endpoint}, nil).Return(nil, nil)

	if _, err := c.Logout(ctx, st); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.Token(ctx); ok {
		t.Error("token survived logout")
	}
}

func TestUpdateKeepsDisplayedDate(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "tok")
	original := domain.Post{ID: 1, Title: "t", Content: "old", Author: "ada", Date: "1/1/2024"}

	fields := domain.PostFields{Title: "t", Content: "new", Author: "ada"}
	sent := fields
	sent.Date = "1/1/2024"

	gomock.InOrder(
		api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).Return([]domain.Post{original}, nil),
		api.EXPECT().UpdatePost(gomock.Any(), gomock.Any(), int64(1), sent).Return(domain.Post{ID: 1}, nil),
		api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).Return([]domain.Post{{ID: 1, Content: "new"}}, nil),
	)

	if _, err := c.Refresh(ctx, st, ""); err != nil {
		t.Fatal(err)
	}
	snap, err := c.Update(ctx, st, 1, fields)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := snap.Post(1); p.Content != "new" {
		t.Errorf("expected reloaded content, got %q", p.Content)
	}
}

func TestUpdateSendsSubmittedDateForUnloadedPost(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "tok")
	fields := domain.PostFields{Title: "t", Content: "c", Author: "ada", Date: "3/9/2021"}

	gomock.InOrder(
		api.EXPECT().UpdatePost(gomock.Any(), gomock.Any(), int64(1), fields).Return(domain.Post{ID: 1}, nil),
		api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).Return([]domain.Post{{ID: 1, Date: "3/9/2021"}}, nil),
	)

	if _, err := c.Update(ctx, st, 1, fields); err != nil {
		t.Fatal(err)
	}
}

func TestRefreshRejectsDisallowedHost(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock_client.NewMockAPI(ctrl)
	c := New(api, fixedClock{}, "localhost:5002")
	st := newStore("", "")

	_, err := c.Refresh(ctx, st, "http://169.254.169.254/latest")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	if _, ok := st.Endpoint(ctx); ok {
		t.Error("disallowed endpoint was stored")
	}

	api.EXPECT().ListPosts(gomock.Any(), session.Session{BaseURL: endpoint}, nil).Return(nil, nil)
	if _, err = c.Refresh(ctx, st, endpoint); err != nil {
		t.Fatal(err)
	}
}

func TestCommentThenRefresh(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "tok")
	comment := domain.CommentFields{Author: "bob", Content: "hi", Date: "10/19/2026"}

	gomock.InOrder(
		api.EXPECT().AddComment(gomock.Any(), gomock.Any(), int64(1), comment).Return(domain.Comment{ID: 1}, nil),
		api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).Return([]domain.Post{{ID: 1}}, nil),
	)

	if _, err := c.Comment(ctx, st, 1, "bob", "hi"); err != nil {
		t.Fatal(err)
	}
}

func TestInvalidInputSkipsRemote(t *testing.T) {
	c, _ := setup(t)
	st := newStore(endpoint, "tok")

	cases := []struct {
		name string
		call func() error
	}{
		{"post without title", func() error {
			_, err := c.Create(ctx, st, domain.PostFields{Content: "c"})
			return err
		}},
		{"comment without author", func() error {
			_, err := c.Comment(ctx, st, 1, "", "c")
			return err
		}},
		{"empty tag", func() error {
			_, err := c.AddTag(ctx, st, 1, "")
			return err
		}},
		{"login without password", func() error {
			_, err := c.Login(ctx, st, "", "ada", "")
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestOverlappingReloadsKeepLatest(t *testing.T) {
	c, api := setup(t)
	st := newStore(endpoint, "")
	stale := []domain.Post{{ID: 1}}
	fresh := []domain.Post{{ID: 1}, {ID: 2}}

	started := make(chan struct{})
	release := make(chan struct{})
	gomock.InOrder(
		api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).DoAndReturn(
			func(ctx context.Context, s session.Session, sort *domain.Sort) ([]domain.Post, error) {
				close(started)
				<-release
				return stale, nil
			}),
		api.EXPECT().ListPosts(gomock.Any(), gomock.Any(), nil).Return(fresh, nil),
	)

	done := make(chan Snapshot)
	go func() {
		snap, _ := c.Refresh(ctx, st, "")
		done <- snap
	}()

	<-started
	latest, err := c.Refresh(ctx, st, "")
	if err != nil {
		t.Fatal(err)
	}
	close(release)
	late := <-done

	if diff := cmp.Diff([]int64{1, 2}, ids(latest.Posts)); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff(latest, late); diff != "" {
		t.Errorf("late response replaced the view:\n%s", diff)
	}
	if diff := cmp.Diff(latest, c.Current(st)); diff != "" {
		t.Error(diff)
	}
}
