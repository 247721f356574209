package store

import (
	"context"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sync stores perform single-statement upserts keyed on the external
// FrostGuard identifier, so webhook redelivery converges instead of
// duplicating rows. Overlapping fields are last-write-wins.

type OrganizationStore struct{ db *gorm.DB }

func (s *Store) Organizations() *OrganizationStore { return &OrganizationStore{db: s.DB} }

func (o *OrganizationStore) Upsert(ctx context.Context, org *domain.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now
	return o.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "frostguard_org_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":       org.Name,
				"plan":       org.Plan,
				"updated_at": now,
			}),
		}).
		Create(org).Error
}

func (o *OrganizationStore) GetByFrostguardID(ctx context.Context, frostguardOrgID string) (*domain.Organization, error) {
	var org domain.Organization
	err := o.db.WithContext(ctx).First(&org, "frostguard_org_id = ?", frostguardOrgID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &org, nil
}

type ProfileStore struct{ db *gorm.DB }

func (s *Store) Profiles() *ProfileStore { return &ProfileStore{db: s.DB} }

func (p *ProfileStore) Upsert(ctx context.Context, prof *domain.Profile) error {
	if prof.ID == uuid.Nil {
		prof.ID = uuid.New()
	}
	now := time.Now().UTC()
	prof.CreatedAt = now
	prof.UpdatedAt = now
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "frostguard_user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"user_id":         prof.UserID,
				"email":           prof.Email,
				"full_name":       prof.FullName,
				"role":            prof.Role,
				"organization_id": prof.OrganizationID,
				"updated_at":      now,
			}),
		}).
		Create(prof).Error
}

// ClearOrganization soft-removes a user from an organization: the org
// reference is nulled, the profile row stays for history. The org match keeps
// an out-of-order removal from undoing a later add to a different org.
func (p *ProfileStore) ClearOrganization(ctx context.Context, frostguardUserID, frostguardOrgID string) error {
	return p.db.WithContext(ctx).Model(&domain.Profile{}).
		Where("frostguard_user_id = ? AND organization_id = ?", frostguardUserID, frostguardOrgID).
		Updates(map[string]any{
			"organization_id": nil,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// RoleByUserID returns the caller's stored role. ErrRecordNotFound means no
// profile row exists for the user.
func (p *ProfileStore) RoleByUserID(ctx context.Context, userID string) (domain.Role, error) {
	var prof domain.Profile
	err := p.db.WithContext(ctx).Select("role").First(&prof, "user_id = ?", userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrRecordNotFound
		}
		return "", err
	}
	return prof.Role, nil
}

func (p *ProfileStore) GetByFrostguardID(ctx context.Context, frostguardUserID string) (*domain.Profile, error) {
	var prof domain.Profile
	err := p.db.WithContext(ctx).First(&prof, "frostguard_user_id = ?", frostguardUserID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &prof, nil
}

type ApplicationStore struct{ db *gorm.DB }

func (s *Store) Applications() *ApplicationStore { return &ApplicationStore{db: s.DB} }

func (a *ApplicationStore) Upsert(ctx context.Context, app *domain.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "frostguard_app_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"organization_id": app.OrganizationID,
				"name":            app.Name,
				"description":     app.Description,
				"ttn_app_id":      app.TTNAppID,
				"updated_at":      now,
			}),
		}).
		Create(app).Error
}

func (a *ApplicationStore) GetByFrostguardID(ctx context.Context, frostguardAppID string) (*domain.Application, error) {
	var app domain.Application
	err := a.db.WithContext(ctx).First(&app, "frostguard_app_id = ?", frostguardAppID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &app, nil
}
