package view

import (
	"fmt"
	"net/url"
)

type Pagination struct {
	// PrevHref and NextHref are empty when the arrow is disabled.
	PrevHref string
	NextHref string
	Pages    []PageLink
}

type PageLink struct {
	Number int
	Href   string
	Active bool
}

// NewPagination returns nil when there is at most one page.
func NewPagination(current, totalPages int, search, sort string) *Pagination {
	if totalPages <= 1 {
		return nil
	}

	href := func(page int) string {
		return fmt.Sprintf("/?search=%s&sort=%s&page=%d", url.QueryEscape(search), url.QueryEscape(sort), page)
	}

	p := &Pagination{Pages: make([]PageLink, 0, totalPages)}
	if current > 1 {
		p.PrevHref = href(current - 1)
	}
	for i := 1; i <= totalPages; i++ {
		p.Pages = append(p.Pages, PageLink{Number: i, Href: href(i), Active: i == current})
	}
	if current < totalPages {
		p.NextHref = href(current + 1)
	}
	return p
}
