package painter

import (
	"sync"

	"github.com/google/uuid"
)

// maxImages bounds how many generated images are kept in memory. The oldest
// are dropped first; a session only ever shows its latest image anyway.
const maxImages = 64

type image struct {
	data []byte
	mime string
}

// Store holds generated image bytes, keyed by an opaque id that the view
// layer embeds in /image/<id> URLs.
type Store struct {
	mu     sync.Mutex
	images map[string]image
	order  []string
}

func NewStore() *Store {
	return &Store{images: make(map[string]image)}
}

// Put saves the bytes and returns their id.
func (s *Store) Put(data []byte, mime string) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[id] = image{data: data, mime: mime}
	s.order = append(s.order, id)
	for len(s.order) > maxImages {
		delete(s.images, s.order[0])
		s.order = s.order[1:]
	}
	return id
}

// Get returns the bytes and MIME type for an id.
func (s *Store) Get(id string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return nil, "", false
	}
	return img.data, img.mime, true
}

// Len reports how many images are currently retained.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}
