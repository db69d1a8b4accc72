package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ragchat/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, key string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	var keyFn KeyFunc
	if key != "" {
		keyFn = func() string { return key }
	}
	return NewClient(srv.URL, 5*time.Second, keyFn), srv
}

func TestHealth(t *testing.T) {
	var gotPath, gotMethod string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"status":"healthy"}`)
	}, "")

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if gotMethod != http.MethodGet || gotPath != "/api/health" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
}

func TestHealthNon2xxIsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}, "")
	if err := client.Health(context.Background()); err == nil {
		t.Fatalf("expected error for 503")
	}
}

func TestTestAI(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/test-ai" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":   "success",
			"model":    "gemini-1.5-pro",
			"response": "AI system is working!",
		})
	}, "")

	resp, err := client.TestAI(context.Background())
	if err != nil {
		t.Fatalf("TestAI: %v", err)
	}
	if resp != "AI system is working!" {
		t.Fatalf("unexpected response %q", resp)
	}
}

func TestListDocuments(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"status":"success","documents":[
			{"id":"d1","filename":"a.pdf","processing_status":"completed"},
			{"id":"d2","filename":"b.pdf","processing_status":"pending"}
		]}`)
	}, "")

	docs, err := client.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "d1" || docs[1].ProcessingStatus != models.StatusPending {
		t.Fatalf("unexpected documents: %#v", docs)
	}
}

func TestUploadDocumentMultipart(t *testing.T) {
	var gotFilename, gotContent string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/upload" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		data, _ := io.ReadAll(file)
		gotContent = string(data)
		io.WriteString(w, `{"status":"success","document_id":"d1"}`)
	}, "")

	err := client.UploadDocument(context.Background(), "report.pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if gotFilename != "report.pdf" || gotContent != "pdf-bytes" {
		t.Fatalf("multipart payload mismatch: %q %q", gotFilename, gotContent)
	}
}

func TestQueryOmitsEmptyDocumentID(t *testing.T) {
	var bodies []map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		bodies = append(bodies, body)
		io.WriteString(w, `{"status":"success","response":"answer","sources":[{"page":1,"text":"p"}]}`)
	}, "")

	if _, err := client.Query(context.Background(), "hello", ""); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if _, ok := bodies[0]["document_id"]; ok {
		t.Fatalf("document_id should be absent when no document is selected: %#v", bodies[0])
	}

	result, err := client.Query(context.Background(), "hello", "doc-9")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if bodies[1]["document_id"] != "doc-9" || bodies[1]["query"] != "hello" {
		t.Fatalf("unexpected body: %#v", bodies[1])
	}
	if result.Response != "answer" || len(result.Sources) != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestQueryServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Query error"}`, http.StatusInternalServerError)
	}, "")
	if _, err := client.Query(context.Background(), "bad", ""); err == nil {
		t.Fatalf("expected error for 500")
	}
}

func TestAPIKeyHeader(t *testing.T) {
	var gotKey string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		io.WriteString(w, `{}`)
	}

	withKey, _ := newTestClient(t, handler, "sk-123")
	if err := withKey.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if gotKey != "sk-123" {
		t.Fatalf("api key header missing, got %q", gotKey)
	}

	withoutKey, _ := newTestClient(t, handler, "")
	if err := withoutKey.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if gotKey != "" {
		t.Fatalf("unexpected api key header %q", gotKey)
	}
}
