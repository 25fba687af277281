package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/todone/todone/internal/todo"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: got %s, want GET", r.Method)
		}
		if r.URL.Path != "/list/" {
			t.Errorf("path: got %s, want /list/", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":1,"description":"buy milk","done":false,"timestamp":"Jan 1, 2024, 10:00 AM"}]`)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, testLogger())
	todos, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("got %d todos, want 1", len(todos))
	}
	if todos[0].ID != 1 || todos[0].Description != "buy milk" || todos[0].Done {
		t.Errorf("unexpected record: %+v", todos[0])
	}
}

func TestListValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An object where an array is expected.
		io.WriteString(w, `{"id":1}`)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, testLogger(), WithResponseValidation(true))
	if _, err := c.List(context.Background()); err == nil {
		t.Error("schema-violating response should fail when validation is on")
	}
}

func TestCreateWithoutAttachmentIsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if r.URL.Path != "/list" {
			t.Errorf("path: got %s, want /list", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: got %s, want application/json", ct)
		}

		var got todo.Todo
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if got.Description != "call mom" {
			t.Errorf("description: got %q, want call mom", got.Description)
		}
		if got.Document != nil {
			t.Errorf("document should be absent, got %+v", got.Document)
		}

		got.ID = 42
		json.NewEncoder(w).Encode(got)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, testLogger())
	created, err := c.Create(context.Background(), todo.Todo{
		Description: "call mom",
		Timestamp:   "Jan 1, 2024, 10:00 AM",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != 42 {
		t.Errorf("server-assigned id: got %d, want 42", created.ID)
	}
}

func TestCreateWithAttachmentIsMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF fake"), 0644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list/file" {
			t.Errorf("path: got %s, want /list/file", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/form-data") {
			t.Errorf("content type: got %s, want multipart/form-data", ct)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}

		files := r.MultipartForm.File["file"]
		if len(files) != 1 {
			t.Fatalf("got %d file parts, want exactly 1", len(files))
		}
		if files[0].Filename != "report.pdf" {
			t.Errorf("file part name: got %q, want report.pdf", files[0].Filename)
		}
		if r.FormValue("description") != "read report" {
			t.Errorf("description field: got %q", r.FormValue("description"))
		}
		if r.FormValue("timestamp") == "" {
			t.Error("timestamp field missing")
		}

		json.NewEncoder(w).Encode(todo.Todo{
			ID:          7,
			Description: "read report",
			Document:    &todo.Document{Filename: "report.pdf"},
			Timestamp:   r.FormValue("timestamp"),
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0, testLogger())
	created, err := c.Create(context.Background(), todo.Todo{
		Description: "read report",
		Timestamp:   todo.NewTimestamp(),
		Document:    &todo.Document{Filename: "report.pdf", Path: path},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.AttachmentName() != "report.pdf" {
		t.Errorf("attachment name: got %q, want report.pdf", created.AttachmentName())
	}
}

func TestDeleteTargetsSelectedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method: got %s, want DELETE", r.Method)
		}
		if got := r.URL.Query().Get("id"); got != "3" {
			t.Errorf("id query: got %q, want 3", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, testLogger())
	if err := c.Delete(context.Background(), todo.Todo{ID: 3, Description: "x"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestUpdateCarriesStoredDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method: got %s, want PUT", r.Method)
		}
		if got := r.URL.Query().Get("id"); got != "2" {
			t.Errorf("id query: got %q, want 2", got)
		}
		if got := r.URL.Query().Get("remove_file"); got != "false" {
			t.Errorf("remove_file query: got %q, want false", got)
		}

		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		// The projection drops id and timestamp; done travels as stored.
		if _, ok := raw["id"]; ok {
			t.Error("update body must not carry id")
		}
		if _, ok := raw["timestamp"]; ok {
			t.Error("update body must not carry timestamp")
		}
		var done bool
		if err := json.Unmarshal(raw["done"], &done); err != nil {
			t.Fatalf("decode done: %v", err)
		}
		if !done {
			t.Error("done should arrive exactly as stored, without a second inversion")
		}
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, testLogger())
	// The store flipped done from false to true; the wire payload must
	// carry true.
	err := c.Update(context.Background(), todo.Todo{ID: 2, Description: "call mom", Done: true}, false)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestDownload(t *testing.T) {
	payload := []byte("attachment bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list/file/3" {
			t.Errorf("path: got %s, want /list/file/3", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(payload)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, testLogger())
	got, err := c.Download(context.Background(), todo.Todo{ID: 3})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload: got %q, want %q", got, payload)
	}
}

func TestServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, testLogger())
	if _, err := c.List(context.Background()); err == nil {
		t.Error("non-2xx status should surface as an error")
	}
	if err := c.Delete(context.Background(), todo.Todo{ID: 1}); err == nil {
		t.Error("non-2xx status should surface as an error")
	}
}
