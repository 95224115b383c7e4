package files

import (
	"strings"

	"github.com/BharathKumarMurugan/cloud-drive/internal/server/users"
)

// SortField names a column the catalog can be ordered by.
type SortField string

const (
	SortByName      SortField = "name"
	SortBySize      SortField = "size"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

// Sort is a parsed ordering directive.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort is newest-updated first.
var DefaultSort = Sort{Field: SortByUpdatedAt, Desc: true}

// ParseSort parses a "<field>-<direction>" directive. Unknown fields or
// directions fall back to the default rather than erroring; the listing API
// is deliberately permissive.
func ParseSort(s string) Sort {
	if s == "" {
		return DefaultSort
	}

	field, direction, found := strings.Cut(s, "-")
	if !found {
		field = s
		direction = ""
	}

	sort := DefaultSort
	switch SortField(field) {
	case SortByName, SortBySize, SortByCreatedAt, SortByUpdatedAt:
		sort.Field = SortField(field)
	}
	// anything but an explicit "asc" stays descending
	sort.Desc = direction != "asc"
	return sort
}

// ListOptions enumerates every recognized listing parameter with its
// default: no type filter, no search text, DefaultSort, no limit.
type ListOptions struct {
	Types  []Category
	Search string
	Sort   Sort
	Limit  int
}

// Query is a store-agnostic description of one catalog listing. The
// visibility predicate (owner or shared-with) is always present; the other
// predicates are conjunctive with it.
type Query struct {
	OwnerID    string
	OwnerEmail string
	Types      []Category
	Search     string
	Sort       Sort
	Limit      int
}

// BuildListQuery composes the listing constraints for the given user. It is
// pure: no I/O, and identical arguments yield an identical Query. Execution
// is the repository's job.
func BuildListQuery(user *users.User, opts ListOptions) Query {
	q := Query{
		OwnerID:    user.ID,
		OwnerEmail: user.Email,
		Search:     opts.Search,
		Sort:       opts.Sort,
	}

	if q.Sort.Field == "" {
		q.Sort = DefaultSort
	}

	if len(opts.Types) > 0 {
		q.Types = make([]Category, len(opts.Types))
		copy(q.Types, opts.Types)
	}

	if opts.Limit > 0 {
		q.Limit = opts.Limit
	}

	return q
}
