package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"ragchat/internal/backend"
	"ragchat/internal/keystore"
	"ragchat/internal/models"
)

// apiKeyStorageKey is the fixed durable-storage key for the backend API key.
const apiKeyStorageKey = "gemini_api_key"

// fallbackErrorMessage is appended to the transcript when a query fails.
const fallbackErrorMessage = "Sorry, I encountered an error processing your request. Please try again."

// BackendClient is the slice of the backend HTTP surface the store drives.
// *backend.Client satisfies it; tests substitute fakes.
type BackendClient interface {
	Health(ctx context.Context) error
	TestAI(ctx context.Context) (string, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	UploadDocument(ctx context.Context, filename string, content io.Reader) error
	Query(ctx context.Context, query, documentID string) (*backend.QueryResult, error)
}

// Store is the single source of truth for client-side chat state. All
// mutation goes through its methods; UI layers read snapshots and invoke
// actions. Transcript appends serialize through the store mutex, so each
// send's user entry strictly precedes its assistant or error entry even when
// calls overlap.
type Store struct {
	mu      sync.RWMutex
	backend BackendClient
	keys    keystore.Store

	nextID      int64
	initialized bool
	inflight    int

	documents []models.Document
	active    *models.Document
	messages  []models.ChatMessage
	apiKey    string
	sidebar   bool
}

// New constructs a store and reads the persisted API key, if any.
func New(client BackendClient, keys keystore.Store) (*Store, error) {
	s := &Store{
		backend: client,
		keys:    keys,
		nextID:  1,
		sidebar: true,
	}
	if keys != nil {
		key, err := keys.Get(apiKeyStorageKey)
		if err != nil && !errors.Is(err, keystore.ErrNotFound) {
			return nil, fmt.Errorf("load api key: %w", err)
		}
		s.apiKey = key
	}
	return s, nil
}

// Initialize performs a liveness check against the backend. On failure the
// error propagates to the caller; no automatic retry.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.backend.Health(ctx); err != nil {
		return fmt.Errorf("backend health check: %w", err)
	}
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// Initialized reports whether the liveness check has succeeded.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Busy reports whether any send or upload operation is in flight.
func (s *Store) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Documents returns a snapshot of the cached document list.
func (s *Store) Documents() []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Document, len(s.documents))
	copy(out, s.documents)
	return out
}

// ActiveDocument returns the currently selected document, or nil.
func (s *Store) ActiveDocument() *models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil
	}
	doc := *s.active
	return &doc
}

// SelectDocument sets the active document. Passing nil clears the selection.
// The document list is never mutated here; the caller is responsible for
// picking a document that belongs to the current list.
func (s *Store) SelectDocument(doc *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc == nil {
		s.active = nil
		return
	}
	copied := *doc
	s.active = &copied
}

// Messages returns a snapshot of the transcript in append order.
func (s *Store) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// ClearMessages empties the transcript. Irreversible, no network call.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

// SidebarVisible reports the sidebar toggle.
func (s *Store) SidebarVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidebar
}

// ToggleSidebar flips the sidebar toggle. Pure local state.
func (s *Store) ToggleSidebar() {
	s.mu.Lock()
	s.sidebar = !s.sidebar
	s.mu.Unlock()
}

// APIKey returns the current backend API key.
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// SetAPIKey persists the key to durable storage immediately, then updates the
// in-memory copy. A failed write leaves the previous key in place.
func (s *Store) SetAPIKey(key string) error {
	if s.keys != nil {
		if err := s.keys.Set(apiKeyStorageKey, key); err != nil {
			return fmt.Errorf("persist api key: %w", err)
		}
	}
	s.mu.Lock()
	s.apiKey = key
	s.mu.Unlock()
	return nil
}

// FetchDocuments replaces the cached document list wholesale with the
// server's current list. On failure the previous cache is left intact.
func (s *Store) FetchDocuments(ctx context.Context) error {
	docs, err := s.backend.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("fetch documents: %w", err)
	}
	s.mu.Lock()
	s.documents = docs
	s.mu.Unlock()
	return nil
}

// UploadDocument sends the file to the backend and refreshes the document
// list on success. The caller must have validated type and size already.
// There is no optimistic insertion: a failed upload leaves the list
// unchanged, and a failed refresh after a successful upload leaves the new
// document invisible until the next FetchDocuments.
func (s *Store) UploadDocument(ctx context.Context, filename string, content io.Reader) error {
	s.beginOp()
	defer s.endOp()

	if err := s.backend.UploadDocument(ctx, filename, content); err != nil {
		return fmt.Errorf("upload document: %w", err)
	}
	return s.FetchDocuments(ctx)
}

// SendMessage runs one request/response cycle. The user's message is appended
// optimistically and never removed; the outcome arrives as a second append,
// either an assistant entry or an error entry carrying the fixed fallback
// text. On failure the error is also returned so the caller can surface it.
func (s *Store) SendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	s.appendLocked(models.KindUser, text, nil, nil)
	var documentID string
	if s.active != nil {
		documentID = s.active.ID
	}
	s.inflight++
	s.mu.Unlock()

	result, err := s.backend.Query(ctx, text, documentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		s.appendLocked(models.KindError, fallbackErrorMessage, nil, nil)
		return fmt.Errorf("send message: %w", err)
	}
	s.appendLocked(models.KindAssistant, result.Response, result.Sources, result.Visuals)
	return nil
}

// TestAIConnectivity fires a backend probe and returns its result. Transcript
// and document state are untouched.
func (s *Store) TestAIConnectivity(ctx context.Context) (string, error) {
	resp, err := s.backend.TestAI(ctx)
	if err != nil {
		return "", fmt.Errorf("ai connectivity test: %w", err)
	}
	return resp, nil
}

func (s *Store) beginOp() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Store) endOp() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// appendLocked assigns the next message id and appends. Callers hold s.mu.
func (s *Store) appendLocked(kind models.MessageKind, content string, sources []models.Source, visuals []models.Visual) {
	if sources == nil {
		sources = []models.Source{}
	}
	if visuals == nil {
		visuals = []models.Visual{}
	}
	s.messages = append(s.messages, models.ChatMessage{
		ID:        s.nextID,
		Kind:      kind,
		Content:   content,
		Sources:   sources,
		Visuals:   visuals,
		CreatedAt: time.Now().UTC(),
	})
	s.nextID++
}
