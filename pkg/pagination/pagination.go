package pagination

const (
	// DefaultLimit is the page size used when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many products a single page may request.
	MaxLimit = 100
	// WindowSize is how many page buttons the controller shows at once.
	WindowSize = 5
)

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage maps anything below one to the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset returns the row offset of a one-based page.
func Offset(page, limit int) int {
	return (NormalizePage(page) - 1) * limit
}

// TotalPages is ceil(count/limit), and zero for an empty collection.
func TotalPages(count int64, limit int) int {
	if count <= 0 || limit <= 0 {
		return 0
	}
	return int((count + int64(limit) - 1) / int64(limit))
}

// Controller is the pager state shown under a product grid. Current is
// one-based and Total may be zero before the first count arrives.
type Controller struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

func NewController(current, total int) Controller {
	c := Controller{Total: max(total, 0)}
	c.Current = c.Clamp(current)
	return c
}

// Clamp keeps p within [1, Total]. With no pages it returns 1.
func (c Controller) Clamp(p int) int {
	if p < 1 {
		return 1
	}
	if c.Total > 0 && p > c.Total {
		return c.Total
	}
	return p
}

// InRange reports whether p is a page the controller can navigate to.
func (c Controller) InRange(p int) bool {
	return p >= 1 && p <= c.Total
}

// Go moves to p. Out-of-range requests leave the controller untouched and
// report false.
func (c Controller) Go(p int) (Controller, bool) {
	if !c.InRange(p) {
		return c, false
	}
	c.Current = p
	return c, true
}

func (c Controller) Prev() (Controller, bool) {
	return c.Go(c.Current - 1)
}

func (c Controller) Next() (Controller, bool) {
	return c.Go(c.Current + 1)
}

// CanPrev is false exactly on the first page.
func (c Controller) CanPrev() bool {
	return c.Current > 1
}

// CanNext is false on the last page and beyond.
func (c Controller) CanNext() bool {
	return c.Current < c.Total
}

// Window lists up to WindowSize page numbers starting at the current page.
func (c Controller) Window() []int {
	n := min(c.Total-c.Current+1, WindowSize)
	if n <= 0 {
		return nil
	}
	pages := make([]int, n)
	for i := range pages {
		pages[i] = c.Current + i
	}
	return pages
}

// Last is the target of the jump-to-last control.
func (c Controller) Last() int {
	return max(c.Total, 1)
}

// WithTotal applies a fresh page count and re-clamps the current page.
func (c Controller) WithTotal(total int) Controller {
	return NewController(c.Current, total)
}
