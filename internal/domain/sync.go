package domain

import "time"

// Sync targets mirror rows owned by the FrostGuard platform. Each carries the
// external identifier as its natural key so webhook redelivery converges on a
// single row instead of inserting duplicates. Organization references are the
// external org IDs throughout, matching the organizationId claim on identity
// tokens.

type Organization struct {
	ID              OrganizationID `gorm:"type:uuid;primaryKey" json:"id"`
	FrostguardOrgID string         `gorm:"type:text;not null;uniqueIndex:ux_organizations_frostguard_org_id" json:"frostguardOrgId"`
	Name            string         `gorm:"type:text;not null" json:"name"`
	Plan            string         `gorm:"type:text" json:"plan,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updatedAt"`
}

func (Organization) TableName() string { return "organizations" }

// Profile is the per-user row consulted for role lookups. OrganizationID is
// nullable: user.removed_from_org clears it rather than deleting the row.
type Profile struct {
	ID               ProfileID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string    `gorm:"type:text;not null;uniqueIndex:ux_profiles_user_id" json:"userId"`
	FrostguardUserID string    `gorm:"type:text;not null;uniqueIndex:ux_profiles_frostguard_user_id" json:"frostguardUserId"`
	Email            string    `gorm:"type:text" json:"email"`
	FullName         string    `gorm:"type:text" json:"fullName"`
	Role             Role      `gorm:"type:varchar(16);not null;default:'viewer'" json:"role"`
	OrganizationID   *string   `gorm:"type:text;index" json:"organizationId,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"not null" json:"updatedAt"`
}

func (Profile) TableName() string { return "profiles" }

type Application struct {
	ID              ApplicationID `gorm:"type:uuid;primaryKey" json:"id"`
	FrostguardAppID string        `gorm:"type:text;not null;uniqueIndex:ux_applications_frostguard_app_id" json:"frostguardAppId"`
	OrganizationID  string        `gorm:"type:text;not null;index" json:"organizationId"`
	Name            string        `gorm:"type:text;not null" json:"name"`
	Description     string        `gorm:"type:text" json:"description,omitempty"`
	TTNAppID        string        `gorm:"column:ttn_app_id;type:text" json:"ttnAppId,omitempty"`
	CreatedAt       time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updatedAt"`
}

func (Application) TableName() string { return "applications" }
