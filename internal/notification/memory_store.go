package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps notifications in process. Contents are lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	items  []Notification
	nextID int64
	now    func() time.Time
}

// NewMemoryStore returns an empty store. A nil clock uses time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{now: clock}
}

func (s *MemoryStore) Append(_ context.Context, n Notification) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n.ID = s.nextID
	n.CreatedAt = s.now()
	n.SentAt = nil
	n.IsRead = false
	s.items = append(s.items, n)
	return n.ID, nil
}

func (s *MemoryStore) ListByPatient(_ context.Context, patientID int64) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Notification{}
	for _, n := range s.items {
		if n.PatientID == patientID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotificationNotFound
	}
	s.items[i].IsRead = true
	return nil
}

func (s *MemoryStore) HasTitle(_ context.Context, patientID int64, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.items {
		if n.PatientID == patientID && n.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Due(_ context.Context, now time.Time, limit int) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Notification
	for _, n := range s.items {
		if limit > 0 && len(out) >= limit {
			break
		}
		if n.due(now) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkSent(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotificationNotFound
	}
	sent := at
	s.items[i].SentAt = &sent
	return nil
}

// indexOf expects s.mu to be held.
func (s *MemoryStore) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
