package store

import (
	"context"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TelemetryStore struct{ db *gorm.DB }

func (s *Store) Telemetry() *TelemetryStore { return &TelemetryStore{db: s.DB} }

func (t *TelemetryStore) Create(ctx context.Context, row *domain.Telemetry) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.ReceivedAt.IsZero() {
		row.ReceivedAt = time.Now().UTC()
	}
	return t.db.WithContext(ctx).Create(row).Error
}

func (t *TelemetryStore) ListByDevice(ctx context.Context, deviceID domain.DeviceID, limit int) ([]domain.Telemetry, error) {
	var rows []domain.Telemetry
	err := t.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("received_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
