package leadtable

import (
	"testing"
	"time"
)

func TestIsNewOn(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		createdAt string
		want      bool
	}{
		{"today end of day", "2026-10-19T23:59:59Z", true},
		{"today start of day", "2026-10-19T00:00:00.000Z", true},
		{"yesterday just after midnight", "2026-10-18T00:00:01Z", false},
		{"yesterday last second", "2026-10-18T23:59:59Z", false},
		{"offset that is yesterday in UTC", "2026-10-19T01:00:00+02:00", false},
		{"offset that is today in UTC", "2026-10-18T23:30:00-05:00", true},
		{"date only", "2026-10-19", true},
		{"no zone", "2026-10-19T08:00:00", true},
		{"invalid", "not a date", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNewOn(tt.createdAt, now); got != tt.want {
				t.Errorf("IsNewOn(%q) = %v, want %v", tt.createdAt, got, tt.want)
			}
		})
	}
}

func TestIsNewOn_ViewerTimezoneIrrelevant(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2026-10-20 08:00 in Tokyo is still 2026-10-19 in UTC.
	now := time.Date(2026, 10, 20, 8, 0, 0, 0, tokyo)
	if !IsNewOn("2026-10-19T23:59:59Z", now) {
		t.Error("lead created late on the UTC day should be new")
	}
	if IsNewOn("2026-10-18T00:00:01Z", now) {
		t.Error("lead created yesterday (UTC) should not be new")
	}
}

func TestPresent_Status(t *testing.T) {
	now := time.Now()
	tests := []struct {
		status    Status
		wantStyle Style
		wantDraft bool
	}{
		{StatusOpen, StyleOpen, false},
		{StatusDraft, StyleInactive, true},
		{StatusClosed, StyleInactive, false},
		{StatusLost, StyleInactive, false},
		{"negotiation", StyleInactive, false},
		{"", StyleInactive, false},
	}
	for _, tt := range tests {
		r := Present(Lead{Status: tt.status}, RoleDataAnalyst, now)
		if r.StatusStyle != tt.wantStyle {
			t.Errorf("status %q: StatusStyle = %q, want %q", tt.status, r.StatusStyle, tt.wantStyle)
		}
		if r.DraftBadge != tt.wantDraft {
			t.Errorf("status %q: DraftBadge = %v, want %v", tt.status, r.DraftBadge, tt.wantDraft)
		}
	}
}

func cellKeys(r Row) []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Key
	}
	return out
}

func TestPresent_ColumnsByRole(t *testing.T) {
	tests := []struct {
		role ViewerRole
		want []string
	}{
		{RoleGrowthManager, []string{ColumnDataAnalyst, ColumnSalesExecutive}},
		{RoleSalesExecutive, []string{ColumnDataAnalyst, ColumnGrowthManager}},
		{RoleDataAnalyst, []string{ColumnSalesExecutive, ColumnGrowthManager}},
	}
	for _, tt := range tests {
		r := Present(Lead{}, tt.role, time.Now())
		got := cellKeys(r)
		if len(got) != len(tt.want) {
			t.Fatalf("%s: cells = %v, want %v", tt.role, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: cells = %v, want %v", tt.role, got, tt.want)
			}
		}
		headers := Columns(tt.role)
		for i, h := range headers {
			if h.Key != tt.want[i] {
				t.Errorf("%s: Columns()[%d] = %q, want %q", tt.role, i, h.Key, tt.want[i])
			}
		}
	}
}

func TestPresent_SalesExecutiveViewer(t *testing.T) {
	l := Lead{
		CreatedBy:                &Person{Name: "Dana"},
		AssignedToSalesExecutive: &Person{Name: "Priya"},
	}
	r := Present(l, RoleSalesExecutive, time.Now())
	if _, ok := r.Cell(ColumnSalesExecutive); ok {
		t.Error("sales executive viewer must not see the Sales Executive column")
	}
	da, ok := r.Cell(ColumnDataAnalyst)
	if !ok || da.Value != "Dana" || da.Attention {
		t.Errorf("Data Analyst cell = %+v", da)
	}
	gm, ok := r.Cell(ColumnGrowthManager)
	if !ok || gm.Value != NotAssigned || !gm.Attention {
		t.Errorf("Growth Manager cell = %+v", gm)
	}
}

func TestPresent_Fallbacks(t *testing.T) {
	r := Present(Lead{}, RoleGrowthManager, time.Now())
	da, _ := r.Cell(ColumnDataAnalyst)
	if da.Value != NotAvailable || !da.Attention {
		t.Errorf("creator fallback = %+v, want %q with attention", da, NotAvailable)
	}
	se, _ := r.Cell(ColumnSalesExecutive)
	if se.Value != NotAssigned || !se.Attention {
		t.Errorf("sales executive fallback = %+v, want %q with attention", se, NotAssigned)
	}
}

func TestPresent_GrowthManagerFromFirstContactPoint(t *testing.T) {
	gm := &Person{Name: "Grace"}
	tests := []struct {
		name string
		lead Lead
		want string
	}{
		{"empty contact points", Lead{AssignedToGrowthManager: gm}, NotAssigned},
		{"first contact point assigned", Lead{ContactPoints: []ContactPoint{{AssignedToGrowthManager: gm}}}, "Grace"},
		{"only second contact point assigned", Lead{ContactPoints: []ContactPoint{{}, {AssignedToGrowthManager: gm}}}, NotAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Present(tt.lead, RoleDataAnalyst, time.Now())
			c, ok := r.Cell(ColumnGrowthManager)
			if !ok {
				t.Fatal("growth manager column missing")
			}
			if c.Value != tt.want {
				t.Errorf("Value = %q, want %q", c.Value, tt.want)
			}
		})
	}
}

func TestPresent_NewBadgeAndAgo(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	r := Present(Lead{CreatedAt: "2026-10-19T12:00:00Z"}, RoleDataAnalyst, now)
	if !r.IsNew {
		t.Error("IsNew = false, want true")
	}
	if r.CreatedAgo == "" {
		t.Error("CreatedAgo should be set for a valid timestamp")
	}

	r = Present(Lead{CreatedAt: "garbage"}, RoleDataAnalyst, now)
	if r.IsNew || r.CreatedAgo != "" {
		t.Errorf("invalid timestamp: IsNew = %v, CreatedAgo = %q", r.IsNew, r.CreatedAgo)
	}
}

func TestParseViewerRole(t *testing.T) {
	for _, s := range []string{"data_analyst", "Sales_Executive", " growth_manager "} {
		if _, err := ParseViewerRole(s); err != nil {
			t.Errorf("ParseViewerRole(%q) error: %v", s, err)
		}
	}
	if _, err := ParseViewerRole("admin"); err == nil {
		t.Error("ParseViewerRole(admin) should fail")
	}
}
