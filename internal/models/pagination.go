package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

type CursorPage[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

type OffsetPage[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewOffsetPage[T any](items []T, total int64, page, pageSize int) *OffsetPage[T] {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}
	return &OffsetPage[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// OrderCursor is the keyset position (created_at, id) of the last order on a
// page, newest first.
type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

// After reports whether o sorts after the cursor in newest-first order.
func (c OrderCursor) After(o *Order) bool {
	if o.CreatedAt.Equal(c.CreatedAt) {
		return o.ID < c.ID
	}
	return o.CreatedAt.Before(c.CreatedAt)
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// firstPage sorts ahead of every stored order. It stays inside the
// timestamptz range.
var firstPage = OrderCursor{
	CreatedAt: time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC),
	ID:        int64(1<<63 - 1),
}

// DecodeCursor parses a cursor. An empty string starts from the newest order.
func DecodeCursor(encoded string) (OrderCursor, error) {
	var cursor OrderCursor
	if encoded == "" {
		return firstPage, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, fmt.Errorf("%w: malformed cursor", ErrValidation)
	}

	if err := json.Unmarshal(data, &cursor); err != nil {
		return cursor, fmt.Errorf("%w: malformed cursor", ErrValidation)
	}
	return cursor, nil
}
