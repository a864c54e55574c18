package pagination

const (
	// DefaultLimit is the standard page size when a size is not provided.
	DefaultLimit = 5
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 50
)

// Page selects one page of an ascending listing. Pages are 1-based.
type Page struct {
	Number int
	Size   int
}

// New builds a normalized page.
func New(number, size int) Page {
	return Page{Number: number, Size: size}.Normalize()
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps the page number to at least 1 and the size to the allowed range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	p.Size = NormalizeLimit(p.Size)
	return p
}

// Limit returns the row count for the page.
func (p Page) Limit() int {
	return p.Normalize().Size
}

// Offset returns (number-1)*size.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}

// Next returns the following page with the same size.
func (p Page) Next() Page {
	n := p.Normalize()
	n.Number++
	return n
}
