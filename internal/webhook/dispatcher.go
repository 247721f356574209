package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/store"
)

// Envelope is the JSON body of every FrostGuard delivery.
type Envelope struct {
	EventType string          `json:"event_type"`
	EventID   string          `json:"event_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// Processor logs deliveries and routes verified events to idempotent upsert
// handlers. Log first, dispatch second: a crash mid-processing leaves an
// auditable, replayable row.
type Processor struct {
	store *store.Store
}

func NewProcessor(st *store.Store) *Processor { return &Processor{store: st} }

// Log records a delivery before any processing side effect.
func (p *Processor) Log(ctx context.Context, ev *domain.WebhookEvent) error {
	return p.store.WebhookEvents().Create(ctx, ev)
}

// MarkProcessed records the outcome of a dispatch attempt. The event row is
// never deleted; failed events stay replayable from their stored payload.
func (p *Processor) MarkProcessed(ctx context.Context, id domain.EventID, success bool, errMsg string) error {
	return p.store.WebhookEvents().MarkProcessed(ctx, id, success, errMsg)
}

// Process dispatches a logged event and records the outcome. Handler panics
// are contained and recorded like any other failure.
func (p *Processor) Process(ctx context.Context, logID domain.EventID, eventType string, data json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		if err != nil {
			if markErr := p.MarkProcessed(ctx, logID, false, err.Error()); markErr != nil {
				slog.Error("mark webhook event failed", "log_id", logID, "error", markErr)
			}
			return
		}
		if markErr := p.MarkProcessed(ctx, logID, true, ""); markErr != nil {
			slog.Error("mark webhook event processed", "log_id", logID, "error", markErr)
		}
	}()
	return p.Dispatch(ctx, eventType, data)
}

// Dispatch is a pure mapping from event type to handler. Unknown tags fail
// with ErrUnknownEventType; they are recorded, never silently dropped.
func (p *Processor) Dispatch(ctx context.Context, eventType string, data json.RawMessage) error {
	switch eventType {
	case "organization.created", "organization.updated":
		return p.upsertOrganization(ctx, data)
	case "user.added_to_org":
		return p.upsertMembership(ctx, data)
	case "user.removed_from_org":
		return p.removeMembership(ctx, data)
	case "application.created", "application.updated":
		return p.upsertApplication(ctx, data)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownEventType, eventType)
	}
}

type organizationPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Plan string `json:"plan"`
}

func (p *Processor) upsertOrganization(ctx context.Context, data json.RawMessage) error {
	var body organizationPayload
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if body.ID == "" {
		return fmt.Errorf("%w: organization id missing", domain.ErrInvalidPayload)
	}
	return p.store.Organizations().Upsert(ctx, &domain.Organization{
		FrostguardOrgID: body.ID,
		Name:            body.Name,
		Plan:            body.Plan,
	})
}

type membershipPayload struct {
	UserID         string `json:"user_id"`
	AuthUserID     string `json:"auth_user_id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
}

func (p *Processor) upsertMembership(ctx context.Context, data json.RawMessage) error {
	var body membershipPayload
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if body.UserID == "" || body.OrganizationID == "" {
		return fmt.Errorf("%w: user_id and organization_id required", domain.ErrInvalidPayload)
	}
	role := domain.Role(body.Role)
	if !role.Valid() {
		role = domain.RoleViewer
	}
	authUserID := body.AuthUserID
	if authUserID == "" {
		authUserID = body.UserID
	}
	return p.store.Profiles().Upsert(ctx, &domain.Profile{
		UserID:           authUserID,
		FrostguardUserID: body.UserID,
		Email:            body.Email,
		FullName:         body.FullName,
		Role:             role,
		OrganizationID:   &body.OrganizationID,
	})
}

func (p *Processor) removeMembership(ctx context.Context, data json.RawMessage) error {
	var body membershipPayload
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if body.UserID == "" || body.OrganizationID == "" {
		return fmt.Errorf("%w: user_id and organization_id required", domain.ErrInvalidPayload)
	}
	// Soft removal: the profile row survives with its org reference cleared.
	return p.store.Profiles().ClearOrganization(ctx, body.UserID, body.OrganizationID)
}

type applicationPayload struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	TTNAppID       string `json:"ttn_app_id"`
}

func (p *Processor) upsertApplication(ctx context.Context, data json.RawMessage) error {
	var body applicationPayload
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if body.ID == "" {
		return fmt.Errorf("%w: application id missing", domain.ErrInvalidPayload)
	}
	return p.store.Applications().Upsert(ctx, &domain.Application{
		FrostguardAppID: body.ID,
		OrganizationID:  body.OrganizationID,
		Name:            body.Name,
		Description:     body.Description,
		TTNAppID:        body.TTNAppID,
	})
}
