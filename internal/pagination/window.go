package pagination

// Gap marks an elided run of pages in a Window.
const Gap = 0

// DefaultSize is used when a request asks for no page size.
const DefaultSize = 20

// MaxSize caps the page size a request may ask for.
const MaxSize = 200

// Page describes one page of a paged list.
type Page struct {
	Number     int   `json:"page"`
	Size       int   `json:"size"`
	Total      int   `json:"total"`
	TotalPages int   `json:"total_pages"`
	Window     []int `json:"window"`
}

// Normalize clamps a requested page number and size to valid values.
func Normalize(page, size int) (int, int) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if page < 1 {
		page = 1
	}
	return page, size
}

// Offset returns the row offset of a page.
func Offset(page, size int) int {
	page, size = Normalize(page, size)
	return (page - 1) * size
}

// NewPage builds the page descriptor for total rows.
func NewPage(page, size, total int) Page {
	page, size = Normalize(page, size)
	pages := 0
	if total > 0 {
		pages = (total + size - 1) / size
	}
	if pages > 0 && page > pages {
		page = pages
	}
	return Page{
		Number:     page,
		Size:       size,
		Total:      total,
		TotalPages: pages,
		Window:     Window(page, pages, 1),
	}
}

// Window lists the page numbers to display around current: always the first
// and last pages, `siblings` pages on each side of current, and Gap where
// pages are elided.
func Window(current, total, siblings int) []int {
	if total <= 0 {
		return []int{}
	}
	if siblings < 0 {
		siblings = 0
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	// first + last + current + siblings + two gaps
	if total <= 2*siblings+5 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}

	start := max(current-siblings, 2)
	end := min(current+siblings, total-1)

	out := []int{1}
	if start > 2 {
		out = append(out, Gap)
	}
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	if end < total-1 {
		out = append(out, Gap)
	}
	return append(out, total)
}
