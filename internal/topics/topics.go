// Package topics translates the HTTP listing parameters into ranked,
// paginated topic pages backed by the store.
package topics

import (
	"context"
	"fmt"

	"github.com/pellmark/skein/internal/store"
)

// DefaultPerPage is used when the request doesn't specify a page size.
const DefaultPerPage = 10

// MaxPerPage caps the page size a client can request.
const MaxPerPage = 100

// ParseOrder maps the query-string order values onto store orderings.
// "time" ranks by most recent story activity, "posts" by accumulated
// picks. Empty defaults to "time"; anything else is rejected.
func ParseOrder(raw string) (store.TopicOrder, error) {
	switch raw {
	case "", "time":
		return store.OrderActivity, nil
	case "posts":
		return store.OrderVolume, nil
	default:
		return "", fmt.Errorf("unknown order %q (want time or posts)", raw)
	}
}

// Page is one page of the ranked subject listing plus the pagination
// state the template needs.
type Page struct {
	Topics  []store.Topic
	Number  int // 1-based page number
	PerPage int
	Total   int64 // total subjects across all pages
	Order   string
}

// HasPrev reports whether an earlier page exists.
func (p *Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a later page exists.
func (p *Page) HasNext() bool {
	return int64(p.Number)*int64(p.PerPage) < p.Total
}

// Prev is the previous page number, for pager links.
func (p *Page) Prev() int { return p.Number - 1 }

// Next is the next page number, for pager links.
func (p *Page) Next() int { return p.Number + 1 }

// Pages returns the total page count.
func (p *Page) Pages() int {
	if p.PerPage <= 0 {
		return 0
	}
	n := p.Total / int64(p.PerPage)
	if p.Total%int64(p.PerPage) != 0 {
		n++
	}
	return int(n)
}

// List fetches one page of ranked topics. Page numbers are 1-based;
// out-of-range inputs are clamped rather than erroring so a stale
// bookmark still renders.
func List(ctx context.Context, st store.Store, orderRaw string, page, perPage int) (*Page, error) {
	order, err := ParseOrder(orderRaw)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total, err := st.CountSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting topics: %w", err)
	}

	rows, err := st.ListTopics(ctx, store.TopicOpts{
		Order:  order,
		Offset: (page - 1) * perPage,
		Limit:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}

	displayOrder := orderRaw
	if displayOrder == "" {
		displayOrder = "time"
	}

	return &Page{
		Topics:  rows,
		Number:  page,
		PerPage: perPage,
		Total:   total,
		Order:   displayOrder,
	}, nil
}
