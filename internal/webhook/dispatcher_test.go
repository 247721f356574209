package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Each test gets its own named in-memory database; a single shared one would
// leak rows across tests through the unique indexes.
var dbSeq atomic.Int64

func setupProcessor(t *testing.T) (*Processor, *store.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:webhook_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewProcessor(st), st
}

func TestOrganizationUpsertIsIdempotent(t *testing.T) {
	p, st := setupProcessor(t)
	ctx := context.Background()
	data := json.RawMessage(`{"id":"org_idem","name":"Cold Chain Ltd","plan":"pro"}`)

	if err := p.Dispatch(ctx, "organization.updated", data); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if err := p.Dispatch(ctx, "organization.updated", data); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	var count int64
	if err := st.DB.Model(&domain.Organization{}).Where("frostguard_org_id = ?", "org_idem").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one organization row, got %d", count)
	}

	org, err := st.Organizations().GetByFrostguardID(ctx, "org_idem")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if org.Name != "Cold Chain Ltd" || org.Plan != "pro" {
		t.Fatalf("unexpected final state: %+v", org)
	}
}

func TestOrganizationUpdateIsLastWriteWins(t *testing.T) {
	p, st := setupProcessor(t)
	ctx := context.Background()

	if err := p.Dispatch(ctx, "organization.created", json.RawMessage(`{"id":"org_lww","name":"Old Name"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := p.Dispatch(ctx, "organization.updated", json.RawMessage(`{"id":"org_lww","name":"New Name"}`)); err != nil {
		t.Fatalf("update: %v", err)
	}

	org, err := st.Organizations().GetByFrostguardID(ctx, "org_lww")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if org.Name != "New Name" {
		t.Fatalf("expected last write to win, got %q", org.Name)
	}
}

func TestMembershipAddAndSoftRemove(t *testing.T) {
	p, st := setupProcessor(t)
	ctx := context.Background()

	add := json.RawMessage(`{"user_id":"fg_user_1","auth_user_id":"sub_1","organization_id":"org_m","email":"a@b.test","full_name":"Ada","role":"manager"}`)
	if err := p.Dispatch(ctx, "user.added_to_org", add); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := p.Dispatch(ctx, "user.added_to_org", add); err != nil {
		t.Fatalf("redelivered add: %v", err)
	}

	var count int64
	if err := st.DB.Model(&domain.Profile{}).Where("frostguard_user_id = ?", "fg_user_1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one profile row, got %d", count)
	}

	role, err := st.Profiles().RoleByUserID(ctx, "sub_1")
	if err != nil {
		t.Fatalf("role lookup: %v", err)
	}
	if role != domain.RoleManager {
		t.Fatalf("role %q, want manager", role)
	}

	remove := json.RawMessage(`{"user_id":"fg_user_1","organization_id":"org_m"}`)
	if err := p.Dispatch(ctx, "user.removed_from_org", remove); err != nil {
		t.Fatalf("remove: %v", err)
	}

	prof, err := st.Profiles().GetByFrostguardID(ctx, "fg_user_1")
	if err != nil {
		t.Fatalf("profile must survive removal: %v", err)
	}
	if prof.OrganizationID != nil {
		t.Fatalf("expected cleared org reference, got %v", *prof.OrganizationID)
	}

	// Redelivered removal is a no-op, not an error.
	if err := p.Dispatch(ctx, "user.removed_from_org", remove); err != nil {
		t.Fatalf("redelivered remove: %v", err)
	}
}

func TestRemoveFromDifferentOrgIsNoOp(t *testing.T) {
	p, st := setupProcessor(t)
	ctx := context.Background()

	add := json.RawMessage(`{"user_id":"fg_user_2","organization_id":"org_a"}`)
	if err := p.Dispatch(ctx, "user.added_to_org", add); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Stale removal for another org must not clear the current membership.
	if err := p.Dispatch(ctx, "user.removed_from_org", json.RawMessage(`{"user_id":"fg_user_2","organization_id":"org_b"}`)); err != nil {
		t.Fatalf("stale remove: %v", err)
	}
	prof, err := st.Profiles().GetByFrostguardID(ctx, "fg_user_2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prof.OrganizationID == nil || *prof.OrganizationID != "org_a" {
		t.Fatalf("membership lost to stale removal: %+v", prof.OrganizationID)
	}
}

func TestApplicationUpsert(t *testing.T) {
	p, st := setupProcessor(t)
	ctx := context.Background()

	data := json.RawMessage(`{"id":"app_1","organization_id":"org_x","name":"Sensors","ttn_app_id":"frostguard-sensors"}`)
	if err := p.Dispatch(ctx, "application.created", data); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := p.Dispatch(ctx, "application.updated", data); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	app, err := st.Applications().GetByFrostguardID(ctx, "app_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if app.TTNAppID != "frostguard-sensors" {
		t.Fatalf("unexpected app state: %+v", app)
	}
}

func TestDispatchUnknownEventType(t *testing.T) {
	p, _ := setupProcessor(t)
	err := p.Dispatch(context.Background(), "gateway.rebooted", json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestDispatchInvalidPayload(t *testing.T) {
	p, _ := setupProcessor(t)
	cases := map[string]json.RawMessage{
		"organization.created": json.RawMessage(`{"name":"no id"}`),
		"user.added_to_org":    json.RawMessage(`{"user_id":"u"}`),
		"application.updated":  json.RawMessage(`not json`),
	}
	for eventType, data := range cases {
		err := p.Dispatch(context.Background(), eventType, data)
		if !errors.Is(err, domain.ErrInvalidPayload) {
			t.Fatalf("%s: expected ErrInvalidPayload, got %v", eventType, err)
		}
	}
}

func TestProcessRecordsOutcome(t *testing.T) {
	p, st := setupProcessor(t)
	ctx := context.Background()

	ev := &domain.WebhookEvent{
		EventType:      "organization.created",
		EventID:        "evt_ok",
		RawPayload:     []byte(`{"event_type":"organization.created"}`),
		SignatureValid: true,
	}
	if err := p.Log(ctx, ev); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := p.Process(ctx, ev.ID, "organization.created", json.RawMessage(`{"id":"org_p","name":"P"}`)); err != nil {
		t.Fatalf("process: %v", err)
	}
	stored, err := st.WebhookEvents().GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if !stored.Processed || stored.ErrorMessage != "" || stored.ProcessedAt == nil {
		t.Fatalf("expected processed event, got %+v", stored)
	}

	bad := &domain.WebhookEvent{EventType: "nope", EventID: "evt_bad", RawPayload: []byte(`{}`)}
	if err := p.Log(ctx, bad); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := p.Process(ctx, bad.ID, "nope", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected failure for unknown type")
	}
	storedBad, err := st.WebhookEvents().GetByID(ctx, bad.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if storedBad.Processed || storedBad.ErrorMessage == "" {
		t.Fatalf("expected recorded failure, got %+v", storedBad)
	}

	failed, err := st.WebhookEvents().ListFailed(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	found := false
	for _, f := range failed {
		if f.EventID == "evt_bad" {
			found = true
		}
	}
	if !found {
		t.Fatal("failed event missing from replay source")
	}
}
