package leadtable

import (
	"strings"
)

// SearchFields returns one searchable string per present value of l,
// including the values inside nested references (creator, assignees and
// contact points). Field names are never part of the result.
func SearchFields(l Lead) []string {
	fields := make([]string, 0, 12)
	add := func(s string) {
		if s != "" {
			fields = append(fields, s)
		}
	}
	addPerson := func(p *Person) {
		if p == nil {
			return
		}
		add(p.ID)
		add(p.Name)
		add(p.Email)
	}

	add(l.ID)
	add(l.CreatedAt)
	add(l.CompanyName)
	add(l.Industry)
	add(string(l.Status))
	add(l.Stage)
	addPerson(l.CreatedBy)
	addPerson(l.AssignedToSalesExecutive)
	addPerson(l.AssignedToGrowthManager)
	for _, cp := range l.ContactPoints {
		add(cp.Name)
		add(cp.Designation)
		add(cp.Email)
		add(cp.Phone)
		addPerson(cp.AssignedToGrowthManager)
	}
	return fields
}

// Matches reports whether any search field of l contains the already
// trimmed and lower-cased needle.
func Matches(l Lead, needle string) bool {
	for _, f := range SearchFields(l) {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Filter keeps the leads where any field contains query, case-insensitively.
// An empty (or all-whitespace) query returns leads unchanged. The input is
// never modified and the relative order is preserved.
func Filter(leads []Lead, query string) []Lead {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return leads
	}
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if Matches(l, needle) {
			out = append(out, l)
		}
	}
	return out
}
