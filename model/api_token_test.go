package model_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/billingcat/leadboard/fixtures"
	"github.com/billingcat/leadboard/model"
)

func TestAPIToken_CreateAndValidate(t *testing.T) {
	store := fixtures.NewTestStore(t)
	data := fixtures.SeedTestData(t, store)
	ctx := context.Background()

	plain, rec, err := store.CreateAPIToken(ctx, data.SalesExecutive.ID, "ci", nil)
	if err != nil {
		t.Fatalf("CreateAPIToken failed: %v", err)
	}
	if rec.TokenHash == plain || rec.TokenPrefix != plain[:8] {
		t.Errorf("token stored unexpectedly: prefix=%q", rec.TokenPrefix)
	}

	got, err := store.ValidateAPIToken(ctx, plain)
	if err != nil {
		t.Fatalf("ValidateAPIToken failed: %v", err)
	}
	if got.UserID != data.SalesExecutive.ID {
		t.Errorf("UserID = %d, want %d", got.UserID, data.SalesExecutive.ID)
	}

	tampered := plain[:len(plain)-1] + "x"
	if plain[len(plain)-1] == 'x' {
		tampered = plain[:len(plain)-1] + "y"
	}
	if _, err := store.ValidateAPIToken(ctx, tampered); !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("tampered token: err = %v, want ErrTokenInvalid", err)
	}
	if _, err := store.ValidateAPIToken(ctx, "short"); !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("short token: err = %v, want ErrTokenInvalid", err)
	}
	if _, err := store.ValidateAPIToken(ctx, "zzzzzzzzzzzzzzzzzzzz"); !errors.Is(err, model.ErrTokenNotFound) {
		t.Errorf("unknown token: err = %v, want ErrTokenNotFound", err)
	}
}

func TestAPIToken_UnknownUser(t *testing.T) {
	store := fixtures.NewTestStore(t)
	if _, _, err := store.CreateAPIToken(context.Background(), 999, "x", nil); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestAPIToken_RevokeAndExpire(t *testing.T) {
	store := fixtures.NewTestStore(t)
	data := fixtures.SeedTestData(t, store)
	ctx := context.Background()

	plain, rec, err := store.CreateAPIToken(ctx, data.Analyst.ID, "revoke me", nil)
	if err != nil {
		t.Fatalf("CreateAPIToken failed: %v", err)
	}
	if err := store.RevokeAPIToken(ctx, data.GrowthManager.ID, rec.ID); !errors.Is(err, model.ErrTokenNotFound) {
		t.Errorf("revoke by other user: err = %v, want ErrTokenNotFound", err)
	}
	if err := store.RevokeAPIToken(ctx, data.Analyst.ID, rec.ID); err != nil {
		t.Fatalf("RevokeAPIToken failed: %v", err)
	}
	if _, err := store.ValidateAPIToken(ctx, plain); !errors.Is(err, model.ErrTokenDisabled) {
		t.Errorf("revoked token: err = %v, want ErrTokenDisabled", err)
	}

	past := time.Now().Add(-time.Hour)
	expired, _, err := store.CreateAPIToken(ctx, data.Analyst.ID, "old", &past)
	if err != nil {
		t.Fatalf("CreateAPIToken failed: %v", err)
	}
	if _, err := store.ValidateAPIToken(ctx, expired); !errors.Is(err, model.ErrTokenExpired) {
		t.Errorf("expired token: err = %v, want ErrTokenExpired", err)
	}

	if err := model.RunMaintenance(ctx, store, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("RunMaintenance failed: %v", err)
	}
	rows, _, err := store.ListAPITokensByUser(ctx, data.Analyst.ID, 10, "")
	if err != nil {
		t.Fatalf("ListAPITokensByUser failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("tokens after maintenance = %d, want 0", len(rows))
	}
}

func TestListAPITokensByUser_Cursor(t *testing.T) {
	store := fixtures.NewTestStore(t)
	data := fixtures.SeedTestData(t, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := store.CreateAPIToken(ctx, data.Analyst.ID, "t", nil); err != nil {
			t.Fatalf("CreateAPIToken failed: %v", err)
		}
	}
	page, next, err := store.ListAPITokensByUser(ctx, data.Analyst.ID, 2, "")
	if err != nil {
		t.Fatalf("ListAPITokensByUser failed: %v", err)
	}
	if len(page) != 2 || next != "2" {
		t.Errorf("page = %d next = %q, want 2 and \"2\"", len(page), next)
	}
	page, next, err = store.ListAPITokensByUser(ctx, data.Analyst.ID, 2, next)
	if err != nil {
		t.Fatalf("ListAPITokensByUser failed: %v", err)
	}
	if len(page) != 1 || next != "" {
		t.Errorf("page = %d next = %q, want 1 and empty", len(page), next)
	}
}

func TestRunMaintenance_PurgesDeletedLeads(t *testing.T) {
	store := fixtures.NewTestStore(t)
	data := fixtures.SeedTestData(t, store)
	ctx := context.Background()

	if err := store.DeleteLead(ctx, data.Leads[2].UID); err != nil {
		t.Fatalf("DeleteLead failed: %v", err)
	}
	// deleted just now: kept for the grace period
	if err := model.RunMaintenance(ctx, store, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("RunMaintenance failed: %v", err)
	}
	n, err := store.CountLeads(ctx, model.LeadScope{})
	if err != nil || n != 2 {
		t.Errorf("CountLeads = %d, %v, want 2", n, err)
	}
}
