package domain

import "time"

// WebhookEvent is the durable record of one webhook delivery. A row is
// written before any processing side effect, signature-valid or not, so every
// delivery (including forged ones) stays auditable and replayable. One row per
// delivery: redelivery of the same EventID is logged again and deduplicated at
// the upsert layer, not here.
type WebhookEvent struct {
	ID             EventID    `gorm:"type:uuid;primaryKey" json:"id"`
	EventType      string     `gorm:"type:varchar(64);not null;index" json:"eventType"`
	EventID        string     `gorm:"column:event_id;type:varchar(191);not null;index" json:"eventId"`
	RawPayload     []byte     `gorm:"type:bytes;not null" json:"rawPayload"`
	Signature      string     `gorm:"type:text" json:"signature"`
	SignatureValid bool       `gorm:"not null;default:false;index" json:"signatureValid"`
	SourceIP       string     `gorm:"column:source_ip;type:text" json:"sourceIp"`
	UserAgent      string     `gorm:"type:text" json:"userAgent"`
	Processed      bool       `gorm:"not null;default:false;index" json:"processed"`
	ErrorMessage   string     `gorm:"type:text" json:"errorMessage,omitempty"`
	ReceivedAt     time.Time  `gorm:"not null;index" json:"receivedAt"`
	ProcessedAt    *time.Time `json:"processedAt,omitempty"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
