package domain

// Post is a blog entry as returned by the remote API. Only ID is stable; every other field is
// replaced wholesale when the post is updated.
type Post struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Author     string    `json:"author"`
	Date       string    `json:"date"`
	Tags       []string  `json:"tags"`
	Categories []string  `json:"categories"`
	Comments   []Comment `json:"comments"`
}

// PostFields is the writable field set sent on create and update.
type PostFields struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Author     string   `json:"author"`
	Date       string   `json:"date"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
}

func (p Post) Fields() PostFields {
	return PostFields{
		Title:      p.Title,
		Content:    p.Content,
		Author:     p.Author,
		Date:       p.Date,
		Tags:       p.Tags,
		Categories: p.Categories,
	}
}

type Comment struct {
	ID      int64  `json:"id,omitempty"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

type CommentFields struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	Date    string `json:"date"`
}
