package domain

const (
	Ascending  = "asc"
	Descending = "desc"
)

// Sort asks the server to order the collection. Accepted fields and directions are defined by
// the server; the client passes them through untouched.
type Sort struct {
	Field     string
	Direction string
}

// SearchFilters holds the optional search terms. An empty string means the filter is absent and
// must not be sent.
type SearchFilters struct {
	Title   string
	Content string
	Author  string
	Date    string
}

// View tells how the displayed collection was obtained.
type View uint8

const (
	ListView View = iota
	SortedView
	SearchView
)
