package store

import (
	"sync"

	"github.com/ritchie-gr8/video-editor/internal/video"
)

// recordSet is the in-memory, insertion-ordered record collection shared by
// the drivers.
type recordSet struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*video.Record
}

func (s *recordSet) replace(records []*video.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = make([]string, 0, len(records))
	s.byID = make(map[string]*video.Record, len(records))
	for _, rec := range records {
		if rec == nil || rec.VideoID == "" {
			continue
		}
		if rec.Resizes == nil {
			rec.Resizes = make(map[string]video.ResizeState)
		}
		if _, dup := s.byID[rec.VideoID]; !dup {
			s.order = append(s.order, rec.VideoID)
		}
		s.byID[rec.VideoID] = rec
	}
}

func (s *recordSet) list() []*video.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*video.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *recordSet) find(id string) (*video.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	return rec, ok
}

func (s *recordSet) put(rec *video.Record) {
	if rec == nil || rec.VideoID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID == nil {
		s.byID = make(map[string]*video.Record)
	}
	if _, ok := s.byID[rec.VideoID]; !ok {
		s.order = append(s.order, rec.VideoID)
	}
	s.byID[rec.VideoID] = rec
}

func (s *recordSet) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}
