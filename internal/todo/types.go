// Package todo defines the task records exchanged with the To-Done API
// and the in-memory session store that mirrors them.
package todo

import "time"

// TimestampLayout is the display form the client stamps on new todos.
// It matches the original web client's locale formatting ("Jan 1, 2024,
// 10:00 AM"). This is a display string, not a sortable machine timestamp;
// the server stores it verbatim.
const TimestampLayout = "Jan 2, 2006, 3:04 PM"

// Document references the single file attachment of a todo.
type Document struct {
	// Filename is the attachment name as known to the server.
	Filename string `json:"filename"`
	// Path points at a local file pending upload. It never crosses the
	// wire; multipart creation reads the file contents from here.
	Path string `json:"-"`
}

// Local reports whether the document is a freshly attached local file
// that has not been uploaded yet.
func (d *Document) Local() bool {
	return d != nil && d.Path != ""
}

// Todo is a single task record. The server is the source of truth for
// every field except Timestamp, which the client generates at creation
// time.
type Todo struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description"`
	Document    *Document `json:"document,omitempty"`
	Done        bool      `json:"done,omitempty"`
	Timestamp   string    `json:"timestamp"`
}

// Pending reports whether the todo has not completed a server round-trip
// yet. The server assigns IDs on creation; 0 means unassigned.
func (t *Todo) Pending() bool {
	return t.ID == 0
}

// AttachmentName returns the recorded filename of the attachment, or ""
// when there is none. Download uses this as the save name; an empty name
// is deliberately passed through as-is.
func (t *Todo) AttachmentName() string {
	if t.Document == nil {
		return ""
	}
	return t.Document.Filename
}

// Update is the write-side projection of a Todo: everything except the
// identifier and timestamp, which travel in the query string and are
// immutable respectively.
type Update struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description"`
	Document    *Document `json:"document,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Done        bool      `json:"done"`
}

// ToUpdate projects the todo for a PUT request. Filename is populated
// only when the document is a freshly attached local file, which signals
// to the server that a new file accompanies the update rather than "no
// change to the existing attachment".
func (t *Todo) ToUpdate() Update {
	u := Update{
		Title:       t.Title,
		Description: t.Description,
		Document:    t.Document,
		Done:        t.Done,
	}
	if t.Document.Local() {
		u.Filename = t.Document.Filename
	}
	return u
}

// NewTimestamp returns the creation timestamp for a todo being built now.
func NewTimestamp() string {
	return time.Now().Format(TimestampLayout)
}
