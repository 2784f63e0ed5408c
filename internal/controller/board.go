package controller

import (
	"slices"
	"sync"

	"codeberg.org/gruf/go-mutexes"
	"github.com/sidereusnuntius/blogclient/internal/domain"
)

// Snapshot is what a profile's view displays: a full copy of the collection, or of a search
// result, as returned by a single read.
type Snapshot struct {
	View    domain.View
	Sort    domain.Sort
	Filters domain.SearchFilters
	Posts   []domain.Post
	// Seq is the sequence number of the read that produced the snapshot. Zero means nothing
	// has been loaded yet.
	Seq uint64
}

// Post returns the displayed post with the given id.
func (s Snapshot) Post(id int64) (domain.Post, bool) {
	i := slices.IndexFunc(s.Posts, func(p domain.Post) bool { return p.ID == id })
	if i < 0 {
		return domain.Post{}, false
	}
	return s.Posts[i], true
}

type view struct {
	started   uint64
	committed uint64
	snapshot  Snapshot
}

// Board keeps the last committed snapshot of every profile. Reads are numbered when they start;
// a response is committed only if no read started after it has already been committed, so
// overlapping reloads always settle on the most recently started one.
type Board struct {
	views sync.Map
	locks *mutexes.MutexMap
}

func NewBoard() *Board {
	locks := mutexes.MutexMap{}
	return &Board{
		locks: &locks,
	}
}

func (b *Board) view(profile string) *view {
	v, _ := b.views.LoadOrStore(profile, &view{})
	return v.(*view)
}

// Begin numbers a new read for the profile.
func (b *Board) Begin(profile string) uint64 {
	unlock := b.locks.Lock(profile)
	defer unlock()
	v := b.view(profile)
	v.started++
	return v.started
}

// Commit replaces the profile's snapshot with s unless a later read has already been
// committed. It returns the snapshot now displayed and whether s was accepted.
func (b *Board) Commit(profile string, s Snapshot) (Snapshot, bool) {
	unlock := b.locks.Lock(profile)
	defer unlock()
	v := b.view(profile)
	if s.Seq <= v.committed {
		return v.snapshot, false
	}
	v.committed = s.Seq
	v.snapshot = s
	return s, true
}

// Current returns the profile's displayed snapshot.
func (b *Board) Current(profile string) Snapshot {
	unlock := b.locks.Lock(profile)
	defer unlock()
	return b.view(profile).snapshot
}
