package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"ragchat/internal/models"
	"ragchat/internal/storage"
)

func openTestCatalog(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return NewService(db)
}

func TestRecordAndListDocuments(t *testing.T) {
	svc := openTestCatalog(t)
	ctx := context.Background()

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()
	records := []Record{
		{
			Document:    models.Document{ID: "doc-1", Filename: "first.pdf", UploadTime: &older},
			StoredPath:  "/tmp/doc-1.pdf",
			ContentType: "application/pdf",
			Size:        128,
		},
		{
			Document:    models.Document{ID: "doc-2", Filename: "second.pdf", UploadTime: &newer},
			StoredPath:  "/tmp/doc-2.pdf",
			ContentType: "application/pdf",
			Size:        256,
		},
	}
	for _, rec := range records {
		if err := svc.RecordDocument(ctx, rec); err != nil {
			t.Fatalf("RecordDocument(%s): %v", rec.ID, err)
		}
	}

	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "doc-2" {
		t.Fatalf("expected newest first, got %#v", docs)
	}
	if docs[0].ProcessingStatus != models.StatusPending {
		t.Fatalf("expected pending default, got %q", docs[0].ProcessingStatus)
	}
}

func TestRecordDocumentRequiresID(t *testing.T) {
	svc := openTestCatalog(t)
	err := svc.RecordDocument(context.Background(), Record{
		Document: models.Document{Filename: "noid.pdf"},
	})
	if err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestGetDocument(t *testing.T) {
	svc := openTestCatalog(t)
	ctx := context.Background()
	if err := svc.RecordDocument(ctx, Record{
		Document: models.Document{ID: "doc-1", Filename: "a.pdf"},
	}); err != nil {
		t.Fatalf("RecordDocument: %v", err)
	}

	doc, err := svc.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Filename != "a.pdf" || doc.UploadTime == nil {
		t.Fatalf("unexpected document: %#v", doc)
	}

	if _, err := svc.GetDocument(ctx, "ghost"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := openTestCatalog(t)
	ctx := context.Background()
	if err := svc.RecordDocument(ctx, Record{
		Document: models.Document{ID: "doc-1", Filename: "a.pdf"},
	}); err != nil {
		t.Fatalf("RecordDocument: %v", err)
	}

	if err := svc.UpdateStatus(ctx, "doc-1", models.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	doc, err := svc.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.ProcessingStatus != models.StatusCompleted {
		t.Fatalf("status not updated: %q", doc.ProcessingStatus)
	}

	if err := svc.UpdateStatus(ctx, "ghost", models.StatusFailed); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
