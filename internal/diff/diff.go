package diff

import (
	"slices"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sidereusnuntius/blogclient/internal/domain"
)

var dmp *diffmatchpatch.DiffMatchPatch

func init() {
	dmp = diffmatchpatch.New()
}

// FindPatches returns the patch turning text1 into text2, in the unidiff-like text format of
// diffmatchpatch. Equal texts yield an empty string.
func FindPatches(text1, text2 string) string {
	diffs := dmp.DiffMain(text1, text2, false)
	return dmp.PatchToText(dmp.PatchMake(diffs))
}

// Fields lists the names of the fields that differ between two versions of a post.
func Fields(before, after domain.PostFields) []string {
	var changed []string
	if before.Title != after.Title {
		changed = append(changed, "title")
	}
	if before.Content != after.Content {
		changed = append(changed, "content")
	}
	if before.Author != after.Author {
		changed = append(changed, "author")
	}
	if before.Date != after.Date {
		changed = append(changed, "date")
	}
	if !slices.Equal(before.Tags, after.Tags) {
		changed = append(changed, "tags")
	}
	if !slices.Equal(before.Categories, after.Categories) {
		changed = append(changed, "categories")
	}
	return changed
}
