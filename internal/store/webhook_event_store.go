package store

import (
	"context"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookEventStore struct{ db *gorm.DB }

func (s *Store) WebhookEvents() *WebhookEventStore { return &WebhookEventStore{db: s.DB} }

func (w *WebhookEventStore) Create(ctx context.Context, ev *domain.WebhookEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	return w.db.WithContext(ctx).Create(ev).Error
}

// MarkProcessed records the outcome of dispatching a logged event. The row is
// mutated exactly once per dispatch attempt and never deleted.
func (w *WebhookEventStore) MarkProcessed(ctx context.Context, id domain.EventID, success bool, errMsg string) error {
	now := time.Now().UTC()
	res := w.db.WithContext(ctx).Model(&domain.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed":     success,
			"error_message": errMsg,
			"processed_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (w *WebhookEventStore) GetByID(ctx context.Context, id domain.EventID) (*domain.WebhookEvent, error) {
	var ev domain.WebhookEvent
	err := w.db.WithContext(ctx).First(&ev, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// ListFailed returns events whose last dispatch attempt did not succeed, the
// replay source for operators.
func (w *WebhookEventStore) ListFailed(ctx context.Context, limit int) ([]domain.WebhookEvent, error) {
	var events []domain.WebhookEvent
	err := w.db.WithContext(ctx).
		Where("processed = ? AND processed_at IS NOT NULL", false).
		Order("received_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
