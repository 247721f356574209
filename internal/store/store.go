package store

import (
	"context"
	"errors"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"

	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record not found")

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// Migrate creates or updates the schema for every model the core touches.
func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(
		&domain.Device{},
		&domain.Organization{},
		&domain.Profile{},
		&domain.Application{},
		&domain.WebhookEvent{},
		&domain.Telemetry{},
	)
}
