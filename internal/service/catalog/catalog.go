package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ragchat/internal/models"
)

// Service persists document metadata for the development backend.
type Service struct {
	db *sql.DB
}

// Record is a stored document plus the server-side fields the client never
// sees.
type Record struct {
	models.Document
	StoredPath  string
	ContentType string
	Size        int64
}

// NewService wraps the database handle.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Ping reports whether the database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordDocument inserts a freshly uploaded document with pending status.
func (s *Service) RecordDocument(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("document id is required")
	}
	now := time.Now().UTC()
	if rec.UploadTime == nil {
		rec.UploadTime = &now
	}
	status := rec.ProcessingStatus
	if status == "" {
		status = models.StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, stored_path, content_type, size, processing_status, upload_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.StoredPath, rec.ContentType, rec.Size, string(status), *rec.UploadTime,
	)
	if err != nil {
		return fmt.Errorf("record document: %w", err)
	}
	return nil
}

// ListDocuments returns all documents, newest first.
func (s *Service) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, processing_status, upload_time FROM documents ORDER BY upload_time DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		var uploaded time.Time
		if err := rows.Scan(&d.ID, &d.Filename, &d.ProcessingStatus, &uploaded); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.UploadTime = &uploaded
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetDocument fetches one document by id.
func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	var uploaded time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, processing_status, upload_time FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Filename, &d.ProcessingStatus, &uploaded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	d.UploadTime = &uploaded
	return &d, nil
}

// UpdateStatus moves a document through the processing lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET processing_status = ? WHERE id = ?`, string(status), id,
	)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("document rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
