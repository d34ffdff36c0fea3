package core

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a resolved 1-based page window over a result set of Count rows.
type Page struct {
	Number     int
	Size       int
	Count      int
	TotalPages int
}

// NewPage clamps number into [1, TotalPages] and size into [1, MaxPageSize].
// TotalPages is never less than 1, so an empty result set has one empty page.
func NewPage(number, size, count int) Page {
	if size <= 0 {
		size = DefaultPageSize
	} else if size > MaxPageSize {
		size = MaxPageSize
	}
	total := TotalPages(count, size)
	if number < 1 {
		number = 1
	} else if number > total {
		number = total
	}
	return Page{Number: number, Size: size, Count: count, TotalPages: total}
}

func TotalPages(count, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (count + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

func (p Page) Offset() int       { return (p.Number - 1) * p.Size }
func (p Page) Limit() int        { return p.Size }
func (p Page) HasNext() bool     { return p.Number < p.TotalPages }
func (p Page) HasPrevious() bool { return p.Number > 1 }
