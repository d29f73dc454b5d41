// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

// NewStore opens a migrated SQLite store in a per-test temp directory.
func NewStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("Failed to migrate store: %v", err)
	}
	return s
}

// CreateProfile inserts a fresh profile row as first authentication would.
func CreateProfile(t *testing.T, s *store.Store, email string) *models.Profile {
	t.Helper()

	p := &models.Profile{
		ID:                 uuid.NewString(),
		Email:              email,
		NotifyOrderUpdates: true,
	}
	if err := s.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("Failed to create profile %s: %v", email, err)
	}
	return p
}

// CreateItem inserts an inventory item.
func CreateItem(t *testing.T, s *store.Store, kind models.InventoryKind, item models.InventoryItem) *models.InventoryItem {
	t.Helper()

	if err := s.CreateInventoryItem(context.Background(), kind, &item); err != nil {
		t.Fatalf("Failed to create %s item: %v", kind, err)
	}
	return &item
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
