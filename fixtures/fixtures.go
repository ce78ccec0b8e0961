// Package fixtures builds test stores and test data.
package fixtures

import (
	"context"
	"fmt"
	"testing"

	"github.com/billingcat/leadboard/leadtable"
	"github.com/billingcat/leadboard/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestStore opens a migrated in-memory SQLite store that is closed when
// the test ends.
func NewTestStore(t *testing.T) *model.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every new connection to :memory: would see an empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := model.NewStore(db, nil)
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

// TestData is what SeedTestData creates.
type TestData struct {
	Analyst        *model.User
	SalesExecutive *model.User
	GrowthManager  *model.User
	Leads          []*model.Lead
}

// UserOption configures a User built by User().
type UserOption func(*model.User)

func WithUserName(name string) UserOption {
	return func(u *model.User) { u.Name = name }
}

func WithUserEmail(email string) UserOption {
	return func(u *model.User) { u.Email = email }
}

func WithRole(r leadtable.ViewerRole) UserOption {
	return func(u *model.User) { u.Role = string(r) }
}

var userSeq int

// User returns an unsaved data analyst with a unique e-mail address.
func User(opts ...UserOption) *model.User {
	userSeq++
	u := &model.User{
		Name:  fmt.Sprintf("User %d", userSeq),
		Email: fmt.Sprintf("user%d@example.com", userSeq),
		Role:  string(leadtable.RoleDataAnalyst),
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// LeadOption configures a Lead built by Lead().
type LeadOption func(*model.Lead)

func WithCompanyName(name string) LeadOption {
	return func(l *model.Lead) { l.CompanyName = name }
}

func WithStatus(s leadtable.Status) LeadOption {
	return func(l *model.Lead) { l.Status = string(s) }
}

func WithCreatedBy(u *model.User) LeadOption {
	return func(l *model.Lead) { l.CreatedByID = &u.ID }
}

func WithSalesExecutive(u *model.User) LeadOption {
	return func(l *model.Lead) { l.SalesExecutiveID = &u.ID }
}

func WithGrowthManager(u *model.User) LeadOption {
	return func(l *model.Lead) { l.GrowthManagerID = &u.ID }
}

// WithContactPoint appends a contact point; gm may be nil.
func WithContactPoint(name string, gm *model.User) LeadOption {
	return func(l *model.Lead) {
		cp := model.ContactPoint{Name: name, Email: "contact@" + name + ".test"}
		if gm != nil {
			cp.GrowthManagerID = &gm.ID
		}
		l.ContactPoints = append(l.ContactPoints, cp)
	}
}

// Lead returns an unsaved open lead.
func Lead(opts ...LeadOption) *model.Lead {
	l := &model.Lead{
		CompanyName: "Acme Corp",
		Industry:    "Manufacturing",
		Status:      string(leadtable.StatusOpen),
		Stage:       "Triage",
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// SaveUser persists u or fails the test.
func SaveUser(t *testing.T, store *model.Store, u *model.User) *model.User {
	t.Helper()
	if err := store.SaveUser(context.Background(), u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	return u
}

// SaveLead persists l or fails the test.
func SaveLead(t *testing.T, store *model.Store, l *model.Lead) *model.Lead {
	t.Helper()
	if err := store.SaveLead(context.Background(), l); err != nil {
		t.Fatalf("SaveLead: %v", err)
	}
	return l
}

// SeedTestData creates one user per role and three leads:
//   - "Acme Corp": open, created by the analyst, sales executive assigned,
//     first contact point assigned to the growth manager
//   - "Globex": draft, created by the analyst, nothing assigned
//   - "Initech": closed, no creator, one unassigned contact point
func SeedTestData(t *testing.T, store *model.Store) *TestData {
	t.Helper()
	d := &TestData{
		Analyst:        SaveUser(t, store, User(WithUserName("Dana Analyst"), WithRole(leadtable.RoleDataAnalyst))),
		SalesExecutive: SaveUser(t, store, User(WithUserName("Priya Sales"), WithRole(leadtable.RoleSalesExecutive))),
		GrowthManager:  SaveUser(t, store, User(WithUserName("Grace Growth"), WithRole(leadtable.RoleGrowthManager))),
	}
	d.Leads = []*model.Lead{
		SaveLead(t, store, Lead(
			WithCompanyName("Acme Corp"),
			WithCreatedBy(d.Analyst),
			WithSalesExecutive(d.SalesExecutive),
			WithContactPoint("wile", d.GrowthManager),
		)),
		SaveLead(t, store, Lead(
			WithCompanyName("Globex"),
			WithStatus(leadtable.StatusDraft),
			WithCreatedBy(d.Analyst),
		)),
		SaveLead(t, store, Lead(
			WithCompanyName("Initech"),
			WithStatus(leadtable.StatusClosed),
			WithContactPoint("bill", nil),
		)),
	}
	return d
}
