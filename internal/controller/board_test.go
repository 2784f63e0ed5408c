package controller

import (
	"testing"

	"github.com/sidereusnuntius/blogclient/internal/domain"
)

func TestBoardDiscardsStaleCommits(t *testing.T) {
	b := NewBoard()
	first := b.Begin("p")
	second := b.Begin("p")

	if _, ok := b.Commit("p", Snapshot{Seq: second, Posts: []domain.Post{{ID: 2}}}); !ok {
		t.Fatal("latest read was rejected")
	}
	shown, ok := b.Commit("p", Snapshot{Seq: first, Posts: []domain.Post{{ID: 1}}})
	if ok {
		t.Error("stale read was accepted")
	}
	if shown.Seq != second {
		t.Errorf("expected snapshot %d to stay displayed, got %d", second, shown.Seq)
	}
}

func TestBoardProfilesAreIndependent(t *testing.T) {
	b := NewBoard()
	a := b.Begin("a")
	b.Begin("b")
	b.Begin("b")

	if _, ok := b.Commit("a", Snapshot{Seq: a}); !ok {
		t.Error("commit for profile a was rejected by profile b's reads")
	}
	if got := b.Current("b"); got.Seq != 0 {
		t.Errorf("expected nothing displayed for profile b, got seq %d", got.Seq)
	}
}
