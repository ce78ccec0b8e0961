package controller

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/billingcat/leadboard/leadsource"
	"github.com/billingcat/leadboard/leadtable"
	"github.com/billingcat/leadboard/model"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const dashboardMonths = 6

var hundred = decimal.NewFromInt(100)

// statusShares converts counts into pie slices with percentage shares of
// total, rounded to two places.
func statusShares(counts []model.StatusCount, total int64) []APIStatusSlice {
	out := make([]APIStatusSlice, 0, len(counts))
	for _, sc := range counts {
		share := decimal.Zero
		if total > 0 {
			share = decimal.NewFromInt(sc.Count).Mul(hundred).Div(decimal.NewFromInt(total))
		}
		out = append(out, APIStatusSlice{
			Status: sc.Status,
			Count:  sc.Count,
			Share:  share.Round(2).StringFixed(2),
		})
	}
	return out
}

// apiDashboard returns the lead counts by status and by month for the
// selected user (all leads if none). With the local store the counts are
// SQL aggregates; any other source is aggregated from its lead list.
func (ctrl *controller) apiDashboard(c echo.Context) error {
	sel := c.QueryParam("selectedUserId")

	var (
		byStatus []model.StatusCount
		byMonth  []model.MonthCount
		total    int64
		err      error
	)
	if _, local := ctrl.source.(leadsource.StoreSource); local {
		scope := model.LeadScope{}
		if sel != "" {
			id, perr := strconv.ParseUint(sel, 10, 64)
			if perr != nil || id == 0 {
				return ErrInvalid(perr, "selectedUserId must be a user id")
			}
			scope.SelectedUserID = uint(id)
		}
		byStatus, total, byMonth, err = ctrl.storeCounts(c.Request().Context(), scope)
	} else {
		byStatus, total, byMonth, err = ctrl.sourceCounts(c, sel)
	}
	if err != nil {
		return err
	}

	d := APIDashboard{
		SelectedUserID: sel,
		Total:          total,
		ByStatus:       statusShares(byStatus, total),
		ByMonth:        make([]APIMonthBar, len(byMonth)),
	}
	for i, m := range byMonth {
		d.ByMonth[i] = APIMonthBar{Month: m.Month, Count: m.Count}
	}
	return respond(c, http.StatusOK, d)
}

// storeCounts runs the three aggregate queries concurrently.
func (ctrl *controller) storeCounts(ctx context.Context, scope model.LeadScope) ([]model.StatusCount, int64, []model.MonthCount, error) {
	var (
		byStatus []model.StatusCount
		byMonth  []model.MonthCount
		total    int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = ctrl.model.CountLeadsByStatus(ctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = ctrl.model.CountLeads(ctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		byMonth, err = ctrl.model.CountLeadsByMonth(ctx, scope, dashboardMonths, ctrl.now())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, nil, ErrInternal(err)
	}
	return byStatus, total, byMonth, nil
}

// sourceCounts aggregates the lead list of the configured source, so the
// dashboard agrees with the table when leads come from upstream.
func (ctrl *controller) sourceCounts(c echo.Context, sel string) ([]model.StatusCount, int64, []model.MonthCount, error) {
	role, err := currentUser(c).ViewerRole()
	if err != nil {
		return nil, 0, nil, ErrForbidden(err, "Your account has no valid role.")
	}
	leads, err := ctrl.source.FetchLeads(c.Request().Context(), leadsource.Query{Role: role, SelectedUserID: sel})
	if err != nil {
		return nil, 0, nil, ErrUpstream(err)
	}
	byStatus, byMonth := countLeads(leads, dashboardMonths, ctrl.now())
	return byStatus, int64(len(leads)), byMonth, nil
}

// countLeads buckets leads by status (largest first) and by UTC creation
// month over the last months months. Unparseable timestamps are skipped.
func countLeads(leads []leadtable.Lead, months int, now time.Time) ([]model.StatusCount, []model.MonthCount) {
	perStatus := map[string]int64{}
	for _, l := range leads {
		perStatus[string(l.Status)]++
	}
	byStatus := make([]model.StatusCount, 0, len(perStatus))
	for st, n := range perStatus {
		byStatus = append(byStatus, model.StatusCount{Status: st, Count: n})
	}
	sort.Slice(byStatus, func(i, j int) bool {
		if byStatus[i].Count != byStatus[j].Count {
			return byStatus[i].Count > byStatus[j].Count
		}
		return byStatus[i].Status < byStatus[j].Status
	})

	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	byMonth := make([]model.MonthCount, months)
	index := make(map[string]int, months)
	for i := range byMonth {
		m := start.AddDate(0, i, 0).Format("2006-01")
		byMonth[i].Month = m
		index[m] = i
	}
	for _, l := range leads {
		t, ok := leadtable.ParseCreatedAt(l.CreatedAt)
		if !ok {
			continue
		}
		if i, ok := index[t.UTC().Format("2006-01")]; ok {
			byMonth[i].Count++
		}
	}
	return byStatus, byMonth
}
