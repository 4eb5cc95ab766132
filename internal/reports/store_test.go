// SPDX-License-Identifier: MIT

package reports

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndFetch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, NewReport{
		Category:      "INFRASTRUCTURE",
		Description:   "Pothole on Main Street near market",
		Address:       "Aba South, Ariaria",
		ReporterPhone: "+2348012345678",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Status != StatusPending {
		t.Errorf("new reports must start PENDING, got %s", created.Status)
	}
	if created.Channel != ChannelUSSD {
		t.Errorf("channel should default to USSD, got %s", created.Channel)
	}
	if !strings.HasPrefix(created.Reference, "AB-") || len(created.Reference) != 11 {
		t.Errorf("unexpected reference format %q", created.Reference)
	}

	byID, err := store.ByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if byID.Reference != created.Reference {
		t.Errorf("reference mismatch: %q vs %q", byID.Reference, created.Reference)
	}

	byRef, err := store.ByReference(ctx, strings.ToLower(created.Reference))
	if err != nil {
		t.Fatalf("by reference (case-insensitive): %v", err)
	}
	if byRef.ID != created.ID {
		t.Errorf("id mismatch via reference lookup")
	}
}

func TestCreateRequiresCoreFields(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Create(context.Background(), NewReport{Category: "HEALTH"})
	if err == nil {
		t.Fatal("expected error for missing description/address")
	}
}

func TestNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.ByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.ByReference(ctx, "AB-MISSING1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "nope", StatusResolved); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, NewReport{
		Category:    "SECURITY",
		Description: "Street lights out along the expressway",
		Address:     "Umuahia North",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.UpdateStatus(ctx, created.ID, StatusInProgress)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", updated.Status)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) && !updated.UpdatedAt.Equal(updated.CreatedAt) {
		t.Error("updated_at should move forward")
	}

	if _, err := store.UpdateStatus(ctx, created.ID, "SHIPPED"); err == nil {
		t.Error("expected rejection of unknown status")
	}
}

func TestReferencesAreUnique(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		r, err := store.Create(ctx, NewReport{
			Category:    "ENVIRONMENT",
			Description: "Refuse heap blocking the drainage",
			Address:     "Osisioma, Aba",
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[r.Reference] {
			t.Fatalf("duplicate reference %s", r.Reference)
		}
		seen[r.Reference] = true
	}
}
