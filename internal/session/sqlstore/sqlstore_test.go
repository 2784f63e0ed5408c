package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/blogclient/internal/initialization"
	"github.com/sidereusnuntius/blogclient/internal/session"
)

var store *SQLStore
var ctx = context.Background()

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "sqlstore")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup tests")
		return
	}

	dbname := filepath.Join(dir, "test.db")
	d, err := initialization.OpenDB(dbname)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
		return
	}

	if err = initialization.SetupDB(d, "../../../migrations", dbname); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return
	}

	store, err = New(d, "test secret")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create store")
		return
	}

	code := m.Run()
	d.Close()
	if err = os.RemoveAll(dir); err != nil {
		log.Error().Err(err).Msg("removal of temporary directory failed")
	}
	os.Exit(code)
}

func TestEndpoint(t *testing.T) {
	st := store.For("endpoint-profile")
	if _, ok := st.Endpoint(ctx); ok {
		t.Fatal("expected no endpoint for a fresh profile")
	}

	cases := []string{"http://localhost:5002/api", "https://blog.example/api"}
	for _, u := range cases {
		if err := st.SetEndpoint(ctx, u); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		got, ok := st.Endpoint(ctx)
		if !ok || got != u {
			t.Errorf("expected endpoint %q, got %q (ok=%v)", u, got, ok)
		}
	}
}

func TestToken(t *testing.T) {
	st := store.For("token-profile")
	if _, ok := st.Token(ctx); ok {
		t.Fatal("expected no token for a fresh profile")
	}

	if err := st.SetToken(ctx, "abc.def.ghi"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	token, ok := st.Token(ctx)
	if !ok || token != "abc.def.ghi" {
		t.Errorf("expected token \"abc.def.ghi\", got %q (ok=%v)", token, ok)
	}

	raw, _ := store.get(ctx, "token-profile", session.TokenKey)
	if string(raw) == "abc.def.ghi" {
		t.Error("token was stored in plain text")
	}

	if err := st.ClearToken(ctx); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, ok := st.Token(ctx); ok {
		t.Error("expected token to be cleared")
	}
}

func TestProfilesAreIsolated(t *testing.T) {
	a := store.For("profile-a")
	b := store.For("profile-b")

	if err := a.SetEndpoint(ctx, "http://a.example"); err != nil {
		t.Fatal(err)
	}
	if err := a.SetToken(ctx, "token-a"); err != nil {
		t.Fatal(err)
	}

	got := session.Load(ctx, b)
	if got != (session.Session{}) {
		t.Errorf("expected empty session for profile b, got %+v", got)
	}

	got = session.Load(ctx, a)
	want := session.Session{BaseURL: "http://a.example", AccessToken: "token-a"}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestTokenSealedWithOtherSecret(t *testing.T) {
	st := store.For("rotated-profile")
	if err := st.SetToken(ctx, "secret-token"); err != nil {
		t.Fatal(err)
	}

	rotated, err := New(store.db, "another secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rotated.For("rotated-profile").Token(ctx); ok {
		t.Error("expected token sealed with another secret to be treated as absent")
	}
}
