package leadtable

import "time"

// Pagination is the metadata for the status line and the page controls.
type Pagination struct {
	PageCount   int   `json:"pageCount" xml:"page_count"`
	CurrentPage int   `json:"currentPage" xml:"current_page"`
	PageSize    int   `json:"pageSize" xml:"page_size"`
	Range       Range `json:"range" xml:"range"`
	Total       int   `json:"total" xml:"total"`
}

// Table is the fully derived table state for one render.
type Table struct {
	Role           ViewerRole `json:"role" xml:"role,attr"`
	SelectedUserID string     `json:"selectedUserId,omitempty" xml:"selected_user_id,attr,omitempty"`
	Search         string     `json:"search" xml:"search"`
	Columns        []Header   `json:"columns" xml:"columns>column"`
	Rows           []Row      `json:"rows" xml:"rows>row"`
	Pagination     Pagination `json:"pagination" xml:"pagination"`
	Empty          bool       `json:"empty" xml:"empty"`
}

// View owns a lead list and the user's search and page state and derives
// the filtered list and the current page from them. Both derivations are
// cached and only recomputed when their inputs change.
//
// A View is not safe for concurrent use.
type View struct {
	leads          []Lead
	role           ViewerRole
	selectedUserID string
	query          string
	page           int
	pageSize       int

	// leadsGen is bumped on every SetLeads, filteredGen whenever the
	// filtered list is recomputed.
	leadsGen    uint64
	filteredGen uint64

	filtered       []Lead
	filteredFor    uint64
	filteredQuery  string
	filteredValid  bool
	current        Page
	currentFor     uint64
	currentPageIdx int
	currentValid   bool
}

// NewView returns an empty view for role with the default page size.
func NewView(role ViewerRole) *View {
	return &View{role: role, pageSize: DefaultPageSize}
}

// SetPageSize changes the number of rows per page. Values <= 0 restore the
// default.
func (v *View) SetPageSize(n int) {
	if n <= 0 {
		n = DefaultPageSize
	}
	if n != v.pageSize {
		v.pageSize = n
		v.currentValid = false
	}
}

// SetLeads replaces the lead list. The search text is kept and the filtered
// view is rebuilt from the new list. A page index past the last page of the
// new filtered list moves to the last page (0 when it is empty).
func (v *View) SetLeads(leads []Lead) {
	v.leads = leads
	v.leadsGen++
	n := PageCount(len(v.Filtered()), v.pageSize)
	if v.page >= n {
		v.page = max(n-1, 0)
	}
}

// SetViewer switches the viewer role and the upstream user filter. The
// search text persists; a different selected user starts at the first page.
func (v *View) SetViewer(role ViewerRole, selectedUserID string) {
	if selectedUserID != v.selectedUserID {
		v.page = 0
	}
	v.role = role
	v.selectedUserID = selectedUserID
}

// OnSearchChange stores the new search text and resets to the first page.
func (v *View) OnSearchChange(text string) {
	v.query = text
	v.page = 0
}

// OnPageChange selects a page. The index is taken verbatim.
func (v *View) OnPageChange(page int) {
	v.page = page
}

func (v *View) Leads() []Lead          { return v.leads }
func (v *View) Role() ViewerRole       { return v.role }
func (v *View) SelectedUserID() string { return v.selectedUserID }
func (v *View) Search() string         { return v.query }
func (v *View) CurrentPage() int       { return v.page }
func (v *View) PageSize() int          { return v.pageSize }

// Filtered returns the leads matching the current search text.
func (v *View) Filtered() []Lead {
	if v.filteredValid && v.filteredFor == v.leadsGen && v.filteredQuery == v.query {
		return v.filtered
	}
	v.filtered = Filter(v.leads, v.query)
	v.filteredFor = v.leadsGen
	v.filteredQuery = v.query
	v.filteredValid = true
	v.filteredGen++
	return v.filtered
}

// Page returns the current window over the filtered list.
func (v *View) Page() Page {
	filtered := v.Filtered()
	if v.currentValid && v.currentFor == v.filteredGen && v.currentPageIdx == v.page {
		return v.current
	}
	v.current = Paginate(filtered, v.page, v.pageSize)
	v.currentFor = v.filteredGen
	v.currentPageIdx = v.page
	v.currentValid = true
	return v.current
}

// Render derives the complete table state at render time now.
func (v *View) Render(now time.Time) Table {
	p := v.Page()
	t := Table{
		Role:           v.role,
		SelectedUserID: v.selectedUserID,
		Search:         v.query,
		Columns:        Columns(v.role),
		Rows:           make([]Row, len(p.Items)),
		Pagination: Pagination{
			PageCount:   p.PageCount,
			CurrentPage: p.CurrentPage,
			PageSize:    v.pageSize,
			Range:       p.Range,
			Total:       p.Total,
		},
		Empty: p.Total == 0,
	}
	for i, l := range p.Items {
		t.Rows[i] = Present(l, v.role, now)
	}
	return t
}
