package todo

// Store is the in-memory ordered collection of todos held by a running
// session. It mirrors the server collection fetched at startup and is
// patched optimistically after each successful API call instead of
// refetching. Only the main control flow mutates it; there is no
// concurrent writer and therefore no locking.
type Store struct {
	items []Todo
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps the entire collection for the result of a List fetch,
// preserving server order.
func (s *Store) Replace(items []Todo) {
	s.items = make([]Todo, len(items))
	copy(s.items, items)
}

// Items returns a copy of the visible sequence in insertion order.
func (s *Store) Items() []Todo {
	out := make([]Todo, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of todos currently held.
func (s *Store) Len() int {
	return len(s.items)
}

// Get returns the todo with the given id, or nil if the store does not
// hold it.
func (s *Store) Get(id int64) *Todo {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i]
		}
	}
	return nil
}

// Insert appends a newly created todo to the end of the sequence.
// Insertion order is creation order; the store never re-sorts.
func (s *Store) Insert(t Todo) {
	s.items = append(s.items, t)
}

// Remove filters out the todo with the given id. Removing an id the
// store does not hold is a no-op, not an error.
func (s *Store) Remove(id int64) {
	out := s.items[:0]
	for _, t := range s.items {
		if t.ID != id {
			out = append(out, t)
		}
	}
	s.items = out
}

// ToggleDone replaces the matching record with a copy whose Done flag is
// flipped; every other field is unchanged. It returns the updated record,
// or nil when the id is unknown.
func (s *Store) ToggleDone(id int64) *Todo {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Done = !s.items[i].Done
			return &s.items[i]
		}
	}
	return nil
}
