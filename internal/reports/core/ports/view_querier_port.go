package ports

import (
	"context"
)

// Key groups view rows: a date, plus a category for segmented views.
type Key struct {
	Date     string
	Category string
}

func (k Key) Less(o Key) bool {
	if k.Date != o.Date {
		return k.Date < o.Date
	}
	return k.Category < o.Category
}

// KeyRange bounds the date component of a key, inclusive. Empty bounds are
// open.
type KeyRange struct {
	StartDate string
	EndDate   string
}

// Row is one reduced group. Value holds the view's partial aggregate type.
type Row struct {
	Key   Key
	Value any
}

type ViewQuerierPort interface {
	// QueryView reduces a view over the key range. With group set there is
	// one row per key in key order; otherwise all groups collapse to a
	// single row with a zero Key, or none when nothing matched.
	QueryView(ctx context.Context, view string, r KeyRange, group bool) ([]Row, error)
}
