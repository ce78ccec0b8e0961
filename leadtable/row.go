package leadtable

import (
	"time"

	"github.com/xeonx/timeago"
)

// Style is a visual treatment hint for the render surface.
type Style string

const (
	StyleOpen     Style = "open"
	StyleInactive Style = "inactive"
)

// Column keys and headers of the relationship columns.
const (
	ColumnDataAnalyst    = "data_analyst"
	ColumnSalesExecutive = "sales_executive"
	ColumnGrowthManager  = "growth_manager"

	NotAssigned  = "Not Assigned"
	NotAvailable = "N/A"
)

var columnHeaders = map[string]string{
	ColumnDataAnalyst:    "Data Analyst",
	ColumnSalesExecutive: "Sales Executive",
	ColumnGrowthManager:  "Growth Manager",
}

var relativeTime = timeago.NoMax(timeago.English)

// Header is a column heading.
type Header struct {
	Key   string `json:"key" xml:"key,attr"`
	Title string `json:"title" xml:",chardata"`
}

// Cell is one relationship column value of a row.
type Cell struct {
	Key       string `json:"key" xml:"key,attr"`
	Header    string `json:"header" xml:"header,attr"`
	Value     string `json:"value" xml:",chardata"`
	Attention bool   `json:"attention,omitempty" xml:"attention,attr,omitempty"`
}

// Row is everything a UI needs to draw one lead row.
type Row struct {
	ID          string `json:"id" xml:"id,attr"`
	CompanyName string `json:"companyName" xml:"company_name"`
	Status      Status `json:"status" xml:"status"`
	StatusStyle Style  `json:"statusStyle" xml:"status_style"`
	DraftBadge  bool   `json:"draftBadge,omitempty" xml:"draft_badge,omitempty"`
	IsNew       bool   `json:"isNew,omitempty" xml:"is_new,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty" xml:"created_at,omitempty"`
	CreatedAgo  string `json:"createdAgo,omitempty" xml:"created_ago,omitempty"`
	Cells       []Cell `json:"cells" xml:"cell"`
}

// Cell returns the cell with the given key.
func (r Row) Cell(key string) (Cell, bool) {
	for _, c := range r.Cells {
		if c.Key == key {
			return c, true
		}
	}
	return Cell{}, false
}

// columnKeys lists the visible relationship columns per role, in order.
func columnKeys(role ViewerRole) []string {
	switch role {
	case RoleGrowthManager:
		return []string{ColumnDataAnalyst, ColumnSalesExecutive}
	case RoleSalesExecutive:
		return []string{ColumnDataAnalyst, ColumnGrowthManager}
	case RoleDataAnalyst:
		return []string{ColumnSalesExecutive, ColumnGrowthManager}
	}
	return nil
}

// Columns returns the relationship column headers visible to role.
func Columns(role ViewerRole) []Header {
	keys := columnKeys(role)
	out := make([]Header, len(keys))
	for i, k := range keys {
		out[i] = Header{Key: k, Title: columnHeaders[k]}
	}
	return out
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseCreatedAt parses a lead creation timestamp. Timestamps without zone
// are taken as UTC.
func ParseCreatedAt(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsNewOn reports whether createdAt falls on the same UTC calendar day as now.
// An invalid timestamp is never new.
func IsNewOn(createdAt string, now time.Time) bool {
	t, ok := ParseCreatedAt(createdAt)
	if !ok {
		return false
	}
	ty, tm, td := t.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return ty == ny && tm == nm && td == nd
}

func personCell(key string, p *Person, fallback string) Cell {
	c := Cell{Key: key, Header: columnHeaders[key]}
	if p == nil || p.Name == "" {
		c.Value = fallback
		c.Attention = true
		return c
	}
	c.Value = p.Name
	return c
}

// Present builds the row descriptor of l for role. now is the render time.
func Present(l Lead, role ViewerRole, now time.Time) Row {
	r := Row{
		ID:          l.ID,
		CompanyName: l.CompanyName,
		Status:      l.Status,
		StatusStyle: StyleInactive,
		DraftBadge:  l.Status == StatusDraft,
		IsNew:       IsNewOn(l.CreatedAt, now),
		CreatedAt:   l.CreatedAt,
	}
	if l.Status == StatusOpen {
		r.StatusStyle = StyleOpen
	}
	if t, ok := ParseCreatedAt(l.CreatedAt); ok {
		r.CreatedAgo = relativeTime.FormatReference(t, now)
	}

	keys := columnKeys(role)
	r.Cells = make([]Cell, 0, len(keys))
	for _, k := range keys {
		switch k {
		case ColumnDataAnalyst:
			r.Cells = append(r.Cells, personCell(k, l.CreatedBy, NotAvailable))
		case ColumnSalesExecutive:
			r.Cells = append(r.Cells, personCell(k, l.AssignedToSalesExecutive, NotAssigned))
		case ColumnGrowthManager:
			r.Cells = append(r.Cells, personCell(k, l.FirstContactGrowthManager(), NotAssigned))
		}
	}
	return r
}
