package todo

import (
	"testing"
	"time"
)

func TestPending(t *testing.T) {
	td := Todo{Description: "buy milk"}
	if !td.Pending() {
		t.Error("todo without id should be pending")
	}
	td.ID = 7
	if td.Pending() {
		t.Error("todo with server-assigned id should not be pending")
	}
}

func TestToUpdateProjection(t *testing.T) {
	tests := []struct {
		name         string
		todo         Todo
		wantFilename string
	}{
		{
			name:         "no attachment",
			todo:         Todo{ID: 1, Title: "Groceries", Description: "buy milk", Done: true},
			wantFilename: "",
		},
		{
			name: "server-side attachment unchanged",
			todo: Todo{
				ID:          2,
				Description: "read report",
				Document:    &Document{Filename: "report.pdf"},
			},
			wantFilename: "",
		},
		{
			name: "freshly attached local file",
			todo: Todo{
				ID:          3,
				Description: "upload scan",
				Document:    &Document{Filename: "scan.png", Path: "/tmp/scan.png"},
			},
			wantFilename: "scan.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.todo.ToUpdate()
			if u.Filename != tt.wantFilename {
				t.Errorf("Filename: got %q, want %q", u.Filename, tt.wantFilename)
			}
			if u.Title != tt.todo.Title {
				t.Errorf("Title: got %q, want %q", u.Title, tt.todo.Title)
			}
			if u.Description != tt.todo.Description {
				t.Errorf("Description: got %q, want %q", u.Description, tt.todo.Description)
			}
			if u.Done != tt.todo.Done {
				t.Errorf("Done: got %v, want %v", u.Done, tt.todo.Done)
			}
			if u.Document != tt.todo.Document {
				t.Error("Document pointer should carry over unchanged")
			}
		})
	}
}

func TestAttachmentName(t *testing.T) {
	td := Todo{Description: "x"}
	if got := td.AttachmentName(); got != "" {
		t.Errorf("no document: got %q, want empty", got)
	}
	td.Document = &Document{Filename: "report.pdf"}
	if got := td.AttachmentName(); got != "report.pdf" {
		t.Errorf("got %q, want report.pdf", got)
	}
}

func TestNewTimestampShape(t *testing.T) {
	ts := NewTimestamp()
	if _, err := time.Parse(TimestampLayout, ts); err != nil {
		t.Errorf("timestamp %q does not round-trip through its own layout: %v", ts, err)
	}
}
