package domain

import "strings"

const PageSize = 10

// SortKey is the user-facing sort choice. Only Name and Age are recognised;
// everything else orders by identifier.
type SortKey string

const (
	SortNone SortKey = ""
	SortName SortKey = "Name"
	SortAge  SortKey = "Age"
)

func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortName, SortAge:
		return SortKey(s)
	}
	return SortNone
}

// Column returns the allow-listed column the key orders by.
func (k SortKey) Column() string {
	switch k {
	case SortName:
		return "name"
	case SortAge:
		return "age"
	}
	return "id"
}

type ListQuery struct {
	Search string
	Sort   SortKey
	Page   int
}

// Normalize drops whitespace-only search terms, folds unknown sort keys and
// clamps the page to 1.
func (q ListQuery) Normalize() ListQuery {
	if strings.TrimSpace(q.Search) == "" {
		q.Search = ""
	}
	q.Sort = ParseSortKey(string(q.Sort))
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * PageSize
}

type ListResult struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// TotalPages is ceil(Total / PageSize).
func (r ListResult) TotalPages() int {
	return (r.Total + PageSize - 1) / PageSize
}
