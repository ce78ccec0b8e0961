// Package leadsource delivers complete lead lists to the lead table: from an
// upstream REST API, from the local database, or through a redis cache in
// front of either.
package leadsource

import (
	"context"
	"strconv"

	"github.com/billingcat/leadboard/leadtable"
	"github.com/billingcat/leadboard/model"
)

// Query selects the lead list to fetch.
type Query struct {
	Role           leadtable.ViewerRole
	SelectedUserID string
}

// Source fetches a complete lead list. Implementations must be safe for
// concurrent use.
type Source interface {
	FetchLeads(ctx context.Context, q Query) ([]leadtable.Lead, error)
}

// StoreSource reads leads from the local database.
type StoreSource struct {
	Store *model.Store
}

// FetchLeads lists the leads in scope of q.SelectedUserID. A user id that is
// not a number matches no user.
func (s StoreSource) FetchLeads(ctx context.Context, q Query) ([]leadtable.Lead, error) {
	scope := model.LeadScope{}
	if q.SelectedUserID != "" {
		id, err := strconv.ParseUint(q.SelectedUserID, 10, 64)
		if err != nil || id == 0 {
			return []leadtable.Lead{}, nil
		}
		scope.SelectedUserID = uint(id)
	}
	rows, err := s.Store.ListLeads(ctx, scope)
	if err != nil {
		return nil, err
	}
	leads := make([]leadtable.Lead, len(rows))
	for i := range rows {
		leads[i] = rows[i].TableLead()
	}
	return leads, nil
}
