package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sidereusnuntius/blogclient/internal/domain"
)

func TestFindPatches(t *testing.T) {
	if p := FindPatches("same", "same"); p != "" {
		t.Errorf("expected no patch for equal texts, got %q", p)
	}

	p := FindPatches("hello world", "hello, world")
	patches, err := dmp.PatchFromText(p)
	if err != nil {
		t.Fatal(err)
	}
	got, applied := dmp.PatchApply(patches, "hello world")
	for _, ok := range applied {
		if !ok {
			t.Fatal("patch did not apply")
		}
	}
	if got != "hello, world" {
		t.Errorf("expected \"hello, world\", got %q", got)
	}
}

func TestFields(t *testing.T) {
	base := domain.PostFields{Title: "t", Content: "c", Author: "a", Date: "d", Tags: []string{"x"}}

	cases := []struct {
		name     string
		after    func(f domain.PostFields) domain.PostFields
		expected []string
	}{
		{"unchanged", func(f domain.PostFields) domain.PostFields { return f }, nil},
		{"title and content", func(f domain.PostFields) domain.PostFields {
			f.Title, f.Content = "T", "C"
			return f
		}, []string{"title", "content"}},
		{"tags and categories", func(f domain.PostFields) domain.PostFields {
			f.Tags = []string{"x", "y"}
			f.Categories = []string{"z"}
			return f
		}, []string{"tags", "categories"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if diff := cmp.Diff(c.expected, Fields(base, c.after(base))); diff != "" {
				t.Error(diff)
			}
		})
	}
}
