package models

import "strings"

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// PageParams selects a 1-based page of results
type PageParams struct {
	PageNumber int
	PageSize   int
}

// Normalize fills defaults and clamps the page size
func (p PageParams) Normalize() PageParams {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip
func (p PageParams) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

// Page is one page of a larger result set
type Page[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalCount  int `json:"total_count"`
	TotalPages  int `json:"total_pages"`
}

// NewPage wraps items with the paging metadata for total rows
func NewPage[T any](items []T, total int, p PageParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PageSize > 0 {
		pages = (total + p.PageSize - 1) / p.PageSize
	}
	return Page[T]{
		Items:       items,
		CurrentPage: p.PageNumber,
		PageSize:    p.PageSize,
		TotalCount:  total,
		TotalPages:  pages,
	}
}

// MessageContainer selects which messages List returns
type MessageContainer string

const (
	ContainerUnread MessageContainer = "Unread"
	ContainerInbox  MessageContainer = "Inbox"
	ContainerOutbox MessageContainer = "Outbox"
)

// ParseContainer maps a query value to a container, defaulting to Unread
func ParseContainer(s string) MessageContainer {
	switch strings.ToLower(s) {
	case "inbox":
		return ContainerInbox
	case "outbox":
		return ContainerOutbox
	default:
		return ContainerUnread
	}
}
