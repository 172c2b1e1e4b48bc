package paging

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Page struct {
	Limit  int
	Offset int
}

// Result is the list envelope. NextOffset is 0 on the last page.
type Result[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	NextOffset int `json:"next_offset"`
}

// FromQuery reads ?limit= and ?offset=, clamping nonsense to defaults.
func FromQuery(c *gin.Context) Page {
	return Page{
		Limit:  parseIntDefault(c.Query("limit"), DefaultLimit),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}.normalize()
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Apply slices an in-memory list.
func Apply[T any](items []T, p Page) Result[T] {
	p = p.normalize()
	total := len(items)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)

	out := make([]T, end-start)
	copy(out, items[start:end])

	next := p.Offset + p.Limit
	if next >= total {
		next = 0
	}
	return Result[T]{Items: out, Total: total, NextOffset: next}
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
