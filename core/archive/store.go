package archive

import "net/url"

// Store holds the chunks of one conversion in message order, with a
// location index where the first chunk seen for a location wins.
type Store struct {
	chunks     []*Chunk
	byLocation map[string]*Chunk
}

// NewStore creates a Store from chunks in message order.
func NewStore(chunks []*Chunk) *Store {
	s := &Store{
		byLocation: make(map[string]*Chunk, len(chunks)),
	}
	for _, c := range chunks {
		s.Add(c)
	}
	return s
}

// Add appends a chunk and indexes its location if it hasn't been seen before.
func (s *Store) Add(c *Chunk) {
	s.chunks = append(s.chunks, c)
	key := c.LocationString()
	if key == "" {
		return
	}
	if _, seen := s.byLocation[key]; seen {
		return
	}
	s.byLocation[key] = c
}

// Lookup returns the first chunk whose location equals u, ignoring fragments.
func (s *Store) Lookup(u *url.URL) (*Chunk, bool) {
	if u == nil {
		return nil, false
	}
	c, ok := s.byLocation[NormalizeURL(u)]
	return c, ok
}

// LookupString matches raw exactly against the normalized chunk locations.
func (s *Store) LookupString(raw string) (*Chunk, bool) {
	if raw == "" {
		return nil, false
	}
	c, ok := s.byLocation[raw]
	return c, ok
}

// All returns the chunks in message order.
func (s *Store) All() []*Chunk {
	return s.chunks
}

// Len returns the number of chunks, duplicates included.
func (s *Store) Len() int {
	return len(s.chunks)
}
