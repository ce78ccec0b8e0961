package model

import (
	"context"
	"strconv"
	"time"

	"github.com/billingcat/leadboard/leadtable"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead is a prospective client opportunity.
type Lead struct {
	gorm.Model
	UID              string `gorm:"size:36;uniqueIndex;not null"`
	CompanyName      string
	Industry         string
	Status           string `gorm:"size:32;index"`
	Stage            string `gorm:"size:64"`
	CreatedByID      *uint  `gorm:"index"`
	CreatedBy        *User
	SalesExecutiveID *uint `gorm:"index"`
	SalesExecutive   *User
	GrowthManagerID  *uint `gorm:"index"`
	GrowthManager    *User
	ContactPoints    []ContactPoint `gorm:"constraint:OnDelete:CASCADE;"`
}

// ContactPoint is a person at the prospective client. Position keeps the
// order of the contact points of a lead, starting at 0.
type ContactPoint struct {
	gorm.Model
	LeadID          uint `gorm:"index;not null"`
	Position        int  `gorm:"not null;default:0"`
	Name            string
	Designation     string
	Email           string
	Phone           string
	GrowthManagerID *uint `gorm:"index"`
	GrowthManager   *User
}

// LeadScope restricts a lead listing. A zero SelectedUserID lists all leads.
type LeadScope struct {
	SelectedUserID uint
}

func (sc LeadScope) apply(db *gorm.DB) *gorm.DB {
	if sc.SelectedUserID == 0 {
		return db
	}
	uid := sc.SelectedUserID
	firstContact := db.Session(&gorm.Session{NewDB: true}).
		Model(&ContactPoint{}).
		Select("lead_id").
		Where("position = 0 AND growth_manager_id = ?", uid)
	return db.Where(
		"leads.created_by_id = ? OR leads.sales_executive_id = ? OR leads.growth_manager_id = ? OR leads.id IN (?)",
		uid, uid, uid, firstContact,
	)
}

// SaveLead creates or updates a lead with its contact points. New leads get
// a UID; contact point positions follow slice order.
func (s *Store) SaveLead(ctx context.Context, l *Lead) error {
	if l.UID == "" {
		l.UID = uuid.NewString()
	}
	for i := range l.ContactPoints {
		l.ContactPoints[i].Position = i
	}
	return s.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(l).Error
}

// ListLeads loads the leads in scope with creator, assignees and ordered
// contact points, newest first.
func (s *Store) ListLeads(ctx context.Context, scope LeadScope) ([]Lead, error) {
	var leads []Lead
	q := scope.apply(s.db.WithContext(ctx).Model(&Lead{})).
		Preload("CreatedBy").
		Preload("SalesExecutive").
		Preload("GrowthManager").
		Preload("ContactPoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("contact_points.position ASC")
		}).
		Preload("ContactPoints.GrowthManager").
		Order("leads.created_at DESC, leads.id DESC")
	if err := q.Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func userRef(u *User) *leadtable.Person {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &leadtable.Person{
		ID:    strconv.FormatUint(uint64(u.ID), 10),
		Name:  u.Name,
		Email: u.Email,
	}
}

// TableLead converts the database record into the read-only record the lead
// table works on.
func (l *Lead) TableLead() leadtable.Lead {
	out := leadtable.Lead{
		ID:                       l.UID,
		CompanyName:              l.CompanyName,
		Industry:                 l.Industry,
		Status:                   leadtable.Status(l.Status),
		Stage:                    l.Stage,
		CreatedBy:                userRef(l.CreatedBy),
		AssignedToSalesExecutive: userRef(l.SalesExecutive),
		AssignedToGrowthManager:  userRef(l.GrowthManager),
	}
	if !l.CreatedAt.IsZero() {
		out.CreatedAt = l.CreatedAt.UTC().Format(time.RFC3339)
	}
	if len(l.ContactPoints) > 0 {
		out.ContactPoints = make([]leadtable.ContactPoint, len(l.ContactPoints))
		for i, cp := range l.ContactPoints {
			out.ContactPoints[i] = leadtable.ContactPoint{
				Name:                    cp.Name,
				Designation:             cp.Designation,
				Email:                   cp.Email,
				Phone:                   cp.Phone,
				AssignedToGrowthManager: userRef(cp.GrowthManager),
			}
		}
	}
	return out
}

// GetLeadByUID loads a single lead with its relations.
func (s *Store) GetLeadByUID(ctx context.Context, uid string) (*Lead, error) {
	l := &Lead{}
	err := s.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("SalesExecutive").
		Preload("GrowthManager").
		Preload("ContactPoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("contact_points.position ASC")
		}).
		Preload("ContactPoints.GrowthManager").
		Where("uid = ?", uid).
		First(l).Error
	if err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteLead soft-deletes a lead.
func (s *Store) DeleteLead(ctx context.Context, uid string) error {
	res := s.db.WithContext(ctx).Where("uid = ?", uid).Delete(&Lead{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
