package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/query"
)

var ErrFetchInFlight = errors.New("fetch already in flight")

// Pager walks the pages of a note listing. Only one fetch may run at a time;
// the page cursor moves forward only after a successful fetch.
type Pager struct {
	client   *Client
	fetching atomic.Bool

	mu      sync.Mutex
	facets  query.Facets
	next    int
	hasMore bool
	total   int
}

func NewPager(c *Client, f query.Facets) *Pager {
	p := &Pager{client: c}
	p.Reset(f)
	return p
}

// Reset starts over from the first page with new facets.
func (p *Pager) Reset(f query.Facets) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.facets = f
	p.next = 1
	p.hasMore = true
	p.total = 0
}

func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Total is the matching note count reported by the last fetch.
func (p *Pager) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Next fetches the following page. It returns nil once the listing is exhausted.
func (p *Pager) Next(ctx context.Context) ([]model.Note, error) {
	if !p.fetching.CompareAndSwap(false, true) {
		return nil, ErrFetchInFlight
	}
	defer p.fetching.Store(false)

	p.mu.Lock()
	if !p.hasMore {
		p.mu.Unlock()
		return nil, nil
	}
	f := p.facets
	f.Page = p.next
	p.mu.Unlock()

	page, err := p.client.ListNotes(ctx, f)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.next++
	p.hasMore = page.Pagination.HasMore
	p.total = page.Pagination.Total
	p.mu.Unlock()
	return page.Notes, nil
}
