package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
)

func TestTransactionDedupWithEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	defer client.Close()

	store := NewTransactionStore(client)

	tx := &models.BankTransaction{
		Fingerprint:       "fp-dedup-1",
		AccountID:         "acct-1",
		ExternalReference: "EXT-1",
		Amount:            1500,
		Currency:          "MKD",
		TransactionDate:   "2026-02-05",
		Source:            models.SourceFileImport,
		CreatedAt:         time.Now(),
	}

	if err := store.Create(ctx, "company-a", tx); err != nil {
		t.Fatalf("first insert error: %v", err)
	}

	err = store.Create(ctx, "company-a", tx)
	var dup *errs.AlreadyExistsError
	if !errors.As(err, &dup) {
		t.Fatalf("second insert should be AlreadyExistsError, got %v", err)
	}

	// The same fingerprint under another company is a distinct row.
	if err := store.Create(ctx, "company-b", tx); err != nil {
		t.Fatalf("cross-company insert error: %v", err)
	}

	exists, err := store.ExistsByExternalReference(ctx, "company-a", "acct-1", "EXT-1")
	if err != nil {
		t.Fatalf("exists query error: %v", err)
	}
	if !exists {
		t.Fatal("external reference lookup missed an inserted row")
	}

	exists, err = store.ExistsByExternalReference(ctx, "company-c", "acct-1", "EXT-1")
	if err != nil {
		t.Fatalf("exists query error: %v", err)
	}
	if exists {
		t.Fatal("external reference lookup leaked across companies")
	}
}
