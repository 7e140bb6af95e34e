package pagination

import (
	"errors"

	"gorm.io/gorm"
)

// ErrInvalidParams is returned when from/size are inconsistent or out of range.
var ErrInvalidParams = errors.New("Invalid value of from or size param")

// Page is an optional from/size window. A nil *Page means "no paging".
type Page struct {
	From int
	Size int
}

// New validates a from/size pair. Both must be given together, from must be
// non-negative and size positive.
func New(from, size *int) (*Page, error) {
	if from == nil && size == nil {
		return nil, nil
	}
	if from == nil || size == nil {
		return nil, ErrInvalidParams
	}
	if *from < 0 || *size <= 0 {
		return nil, ErrInvalidParams
	}
	return &Page{From: *from, Size: *size}, nil
}

// Number is the zero-based page index covering From.
func (p Page) Number() int {
	return p.From / p.Size
}

// Offset is the first row of the page; rows before From that share its page
// are included.
func (p Page) Offset() int {
	return p.Number() * p.Size
}

// Apply scopes a query to the page. A nil page leaves the query unchanged.
func Apply(p *Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p == nil {
			return db
		}
		return db.Offset(p.Offset()).Limit(p.Size)
	}
}
