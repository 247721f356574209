package domain

import "github.com/google/uuid"

type DeviceID = uuid.UUID
type OrganizationID = uuid.UUID
type ApplicationID = uuid.UUID
type ProfileID = uuid.UUID
type EventID = uuid.UUID
type TelemetryID = uuid.UUID

// Role is the caller's role within their organization, carried on every
// authenticated request.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// CanMutate reports whether the role may create or update resources.
func (r Role) CanMutate() bool { return r == RoleAdmin || r == RoleManager }

// CanDelete reports whether the role may perform destructive operations.
func (r Role) CanDelete() bool { return r == RoleAdmin }

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

type DeviceType string

const (
	DeviceTypeTemperature DeviceType = "temperature"
	DeviceTypeHumidity    DeviceType = "humidity"
	DeviceTypeDoor        DeviceType = "door"
)

type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "active"
	DeviceStatusInactive DeviceStatus = "inactive"
	DeviceStatusError    DeviceStatus = "error"
)
