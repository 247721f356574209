package store

import (
	"context"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceStore struct{ db *gorm.DB }

func (s *Store) Devices() *DeviceStore { return &DeviceStore{db: s.DB} }

// DevicePatch is a typed partial update. Only the fields listed here can ever
// reach an UPDATE statement, which keeps dynamic field lists out of SQL.
type DevicePatch struct {
	ApplicationID   *string
	Status          *domain.DeviceStatus
	IntervalSeconds *int
	MinValue        *float64
	MaxValue        *float64
	MinHumidity     *float64
	MaxHumidity     *float64
}

func (p DevicePatch) assignments() map[string]any {
	m := map[string]any{}
	if p.ApplicationID != nil {
		m["application_id"] = *p.ApplicationID
	}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.IntervalSeconds != nil {
		m["sim_interval_seconds"] = *p.IntervalSeconds
	}
	if p.MinValue != nil {
		m["sim_min_value"] = *p.MinValue
	}
	if p.MaxValue != nil {
		m["sim_max_value"] = *p.MaxValue
	}
	if p.MinHumidity != nil {
		m["sim_min_humidity"] = *p.MinHumidity
	}
	if p.MaxHumidity != nil {
		m["sim_max_humidity"] = *p.MaxHumidity
	}
	return m
}

func (d *DeviceStore) Create(ctx context.Context, dev *domain.Device) error {
	if dev.ID == uuid.Nil {
		dev.ID = uuid.New()
	}
	return d.db.WithContext(ctx).Create(dev).Error
}

// GetForOrg fetches a device only if it belongs to the caller's organization.
func (d *DeviceStore) GetForOrg(ctx context.Context, id domain.DeviceID, orgID string) (*domain.Device, error) {
	var dev domain.Device
	err := d.db.WithContext(ctx).First(&dev, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &dev, nil
}

func (d *DeviceStore) ListByOrg(ctx context.Context, orgID string) ([]domain.Device, error) {
	var devices []domain.Device
	err := d.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&devices).Error
	return devices, err
}

func (d *DeviceStore) Update(ctx context.Context, id domain.DeviceID, orgID string, patch DevicePatch) error {
	m := patch.assignments()
	if len(m) == 0 {
		return nil
	}
	m["updated_at"] = time.Now().UTC()
	res := d.db.WithContext(ctx).Model(&domain.Device{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (d *DeviceStore) Delete(ctx context.Context, id domain.DeviceID, orgID string) error {
	res := d.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		Delete(&domain.Device{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
