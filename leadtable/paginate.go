package leadtable

// DefaultPageSize is the number of rows per table page.
const DefaultPageSize = 10

// Range is the 1-based, inclusive "showing From to To" window. It is (0,0)
// for an empty list.
type Range struct {
	From int `json:"from" xml:"from,attr"`
	To   int `json:"to" xml:"to,attr"`
}

// Page is one window over a filtered lead list.
type Page struct {
	Items       []Lead
	CurrentPage int
	PageCount   int
	WindowStart int
	Range       Range
	Total       int
}

// PageCount returns ceil(total/pageSize), 0 for an empty list.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate cuts the window for currentPage out of filtered. The page index
// is not clamped: a page past the end yields no items. A pageSize <= 0 falls
// back to DefaultPageSize.
func Paginate(filtered []Lead, currentPage, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(filtered)
	p := Page{
		CurrentPage: currentPage,
		PageCount:   PageCount(total, pageSize),
		WindowStart: currentPage * pageSize,
		Total:       total,
		Items:       []Lead{},
	}
	if p.WindowStart >= 0 && p.WindowStart < total {
		end := min(p.WindowStart+pageSize, total)
		p.Items = filtered[p.WindowStart:end:end]
	}
	if total > 0 {
		p.Range = Range{From: p.WindowStart + 1, To: p.WindowStart + len(p.Items)}
	}
	return p
}
