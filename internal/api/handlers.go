package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ragchat/internal/cache"
	"ragchat/internal/models"
	"ragchat/internal/service/ai"
	"ragchat/internal/service/catalog"
)

const maxUploadBytes = 50 << 20 // 50 MB, matches the client-side limit

const serverVersion = "1.0.0"

// Handler wires HTTP routes to the document catalog and the AI provider.
type Handler struct {
	catalog   *catalog.Service
	ai        ai.Provider
	answers   *cache.AnswerCache
	uploadDir string
}

// NewHandler constructs a Handler instance. answers may be nil when redis is
// not available.
func NewHandler(cat *catalog.Service, provider ai.Provider, answers *cache.AnswerCache, uploadDir string) *Handler {
	return &Handler{
		catalog:   cat,
		ai:        provider,
		answers:   answers,
		uploadDir: uploadDir,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", h.health)
	api.GET("/test-ai", h.testAI)
	api.POST("/documents/upload", h.uploadDocument)
	api.GET("/documents", h.listDocuments)
	api.POST("/query", h.query)
}

func (h *Handler) health(c *gin.Context) {
	dbStatus := "connected"
	if err := h.catalog.Ping(c.Request.Context()); err != nil {
		dbStatus = "disconnected"
	}
	aiStatus := "ready"
	if h.ai == nil {
		aiStatus = "not_ready"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   serverVersion,
		"services": gin.H{
			"database": dbStatus,
			"ai_model": aiStatus,
		},
	})
}

func (h *Handler) testAI(c *gin.Context) {
	resp, err := h.ai.Ping(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("AI model error: %v", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"model":    h.ai.Model(),
		"response": resp,
	})
}

func (h *Handler) uploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are supported"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	docID := uuid.NewString()
	filename := filepath.Base(file.Filename)
	destPath := filepath.Join(h.uploadDir, docID+".pdf")
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create upload directory failed"})
		return
	}
	if err := c.SaveUploadedFile(file, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}

	now := time.Now().UTC()
	rec := catalog.Record{
		Document: models.Document{
			ID:               docID,
			Filename:         filename,
			UploadTime:       &now,
			ProcessingStatus: models.StatusPending,
		},
		StoredPath:  destPath,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
	}
	if err := h.catalog.RecordDocument(c.Request.Context(), rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record document failed"})
		return
	}

	// unscoped answers may now be stale
	if err := h.answers.Invalidate(c.Request.Context(), ""); err != nil {
		log.Printf("answer cache invalidate: %v", err)
	}
	go h.simulateProcessing(docID)

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"document_id": docID,
		"filename":    filename,
		"message":     "Document uploaded successfully. Processing will begin shortly.",
	})
}

// simulateProcessing walks a fresh upload through the status lifecycle. The
// real pipeline lives in the production backend; the dev fixture only makes
// the transitions observable to clients polling the document list.
func (h *Handler) simulateProcessing(docID string) {
	ctx := context.Background()
	for _, step := range []struct {
		delay  time.Duration
		status models.ProcessingStatus
	}{
		{2 * time.Second, models.StatusProcessing},
		{4 * time.Second, models.StatusCompleted},
	} {
		time.Sleep(step.delay)
		if err := h.catalog.UpdateStatus(ctx, docID, step.status); err != nil {
			log.Printf("update document %s status: %v", docID, err)
			return
		}
	}
}

func (h *Handler) listDocuments(c *gin.Context) {
	docs, err := h.catalog.ListDocuments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"documents": docs,
	})
}

type queryRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
}

func (h *Handler) query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}

	ctx := c.Request.Context()
	if answer, err := h.answers.Lookup(ctx, req.DocumentID, req.Query); err == nil {
		c.JSON(http.StatusOK, queryResponse(req.Query, answer))
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("answer cache lookup: %v", err)
	}

	// The scoped document contributes its filename as context. A stale or
	// unknown id degrades to an unscoped query rather than failing the call.
	var docContext string
	if req.DocumentID != "" {
		doc, err := h.catalog.GetDocument(ctx, req.DocumentID)
		switch {
		case err == nil:
			docContext = doc.Filename
		case errors.Is(err, sql.ErrNoRows):
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	answer, err := h.ai.Answer(ctx, req.Query, docContext)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Query error: %v", err)})
		return
	}
	if err := h.answers.Store(ctx, req.DocumentID, req.Query, answer); err != nil {
		log.Printf("answer cache store: %v", err)
	}
	c.JSON(http.StatusOK, queryResponse(req.Query, answer))
}

func queryResponse(query, answer string) gin.H {
	return gin.H{
		"status":   "success",
		"query":    query,
		"response": answer,
		"sources":  []models.Source{},
		"visuals":  []models.Visual{},
	}
}
