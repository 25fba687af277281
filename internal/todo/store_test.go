package todo

import "testing"

func sample() []Todo {
	return []Todo{
		{ID: 1, Description: "buy milk", Timestamp: "Jan 1, 2024, 10:00 AM"},
		{ID: 2, Description: "call mom", Done: true, Timestamp: "Jan 2, 2024, 9:30 AM"},
		{ID: 3, Description: "read report", Document: &Document{Filename: "report.pdf"}, Timestamp: "Jan 3, 2024, 8:15 AM"},
	}
}

func TestReplaceIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Replace(sample())
	first := s.Items()

	// Loading twice with an unchanged server collection yields the same
	// visible sequence.
	s.Replace(sample())
	second := s.Items()

	if len(first) != len(second) {
		t.Fatalf("length changed across reloads: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Description != second[i].Description {
			t.Errorf("item %d diverged across reloads: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestInsertAppends(t *testing.T) {
	s := NewStore()
	s.Replace(sample())
	s.Insert(Todo{ID: 4, Description: "water plants"})

	items := s.Items()
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	if items[3].ID != 4 {
		t.Errorf("new todo should append at the end, got id %d last", items[3].ID)
	}
}

func TestRemove(t *testing.T) {
	s := NewStore()
	s.Replace(sample())

	s.Remove(3)
	if s.Get(3) != nil {
		t.Error("id 3 should be gone after Remove")
	}
	if s.Len() != 2 {
		t.Errorf("got %d items, want 2", s.Len())
	}

	// Removing an unknown id is a no-op.
	s.Remove(99)
	if s.Len() != 2 {
		t.Errorf("remove of unknown id changed the store: %d items", s.Len())
	}
}

func TestToggleDoneIsInvolutive(t *testing.T) {
	s := NewStore()
	s.Replace(sample())

	before := *s.Get(1)
	updated := s.ToggleDone(1)
	if updated == nil {
		t.Fatal("ToggleDone returned nil for a held id")
	}
	if !updated.Done {
		t.Error("first toggle should set done")
	}
	if updated.Description != before.Description || updated.Timestamp != before.Timestamp {
		t.Error("toggle must not change any field besides Done")
	}

	s.ToggleDone(1)
	if s.Get(1).Done != before.Done {
		t.Error("toggling twice should return done to its original value")
	}
}

func TestToggleDoneUnknownID(t *testing.T) {
	s := NewStore()
	s.Replace(sample())
	if got := s.ToggleDone(42); got != nil {
		t.Errorf("unknown id should return nil, got %+v", got)
	}
}

func TestLoadScenario(t *testing.T) {
	// Scenario from the API contract: one unchecked item.
	s := NewStore()
	s.Replace([]Todo{{ID: 1, Description: "buy milk", Done: false, Timestamp: "Jan 1, 2024, 10:00 AM"}})

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Done {
		t.Error("item should be unchecked")
	}
	if items[0].Description != "buy milk" {
		t.Errorf("description: got %q", items[0].Description)
	}
}
