package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/dbguard/internal/core/dberr"
	"github.com/vietddude/dbguard/internal/core/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("DBGUARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping PostgreSQL test. Set DBGUARD_TEST_DATABASE_URL to run.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewDB(ctx, Config{URL: url})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestPlayerRepo_Live(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewPlayerRepo(db)
	classifier := NewClassifier()
	opCtx := domain.OperationContext{Operation: "createPlayer"}

	if err := db.Probe(ctx); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	p := &domain.Player{
		ID:        uuid.New().String(),
		Name:      "Test Player",
		Position:  "FW",
		Rating:    7.5,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), p.ID) })

	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := repo.Create(ctx, p)
	if got := classifier.Classify(err, opCtx); got.Code != dberr.CodeUniqueViolation {
		t.Errorf("duplicate insert classified as %s, want %s", got.Code, dberr.CodeUniqueViolation)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != p.Name {
		t.Errorf("Name = %q, want %q", got.Name, p.Name)
	}

	_, err = repo.GetByID(ctx, uuid.New().String())
	if got := classifier.Classify(err, opCtx); got.Code != dberr.CodeNotFound {
		t.Errorf("missing row classified as %s, want %s", got.Code, dberr.CodeNotFound)
	}
}
