package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store with the same observable semantics as
// the redis and postgres backends. It backs the test suites; change events
// are delivered synchronously to subscribers, which keeps tests
// deterministic.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]map[string][]byte // collection -> id -> raw JSON
	subs []*memorySub

	// FailUpdate, when set, is consulted before every Update and lets
	// tests inject partial write failures (e.g. the second write of a
	// follow pair).
	FailUpdate func(collection, id string) error
}

type memorySub struct {
	ctx        context.Context
	collection string
	handler    Handler
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.NewString()
	if err := s.InsertWithID(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) InsertWithID(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	s.mu.Lock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string][]byte)
	}
	if _, exists := s.docs[collection][id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("document %s/%s already exists", collection, id)
	}
	s.docs[collection][id] = raw
	s.mu.Unlock()

	s.emit(Event{Type: EventAdded, Collection: collection, ID: id}, raw)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, update Update) error {
	if s.FailUpdate != nil {
		if err := s.FailUpdate(collection, id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	raw, ok := s.docs[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("decode document: %w", err)
	}
	applyUpdate(m, update)

	updated, err := json.Marshal(m)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal document: %w", err)
	}
	s.docs[collection][id] = updated
	s.mu.Unlock()

	s.emit(Event{Type: EventModified, Collection: collection, ID: id}, updated)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.docs[collection][id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.docs[collection], id)
	s.mu.Unlock()

	s.emit(Event{Type: EventRemoved, Collection: collection, ID: id}, nil)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, collection, id string, dest any) error {
	s.mu.Lock()
	raw, ok := s.docs[collection][id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	withID, err := embedID(id, raw)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return json.Unmarshal(withID, dest)
}

func (s *MemoryStore) Query(ctx context.Context, collection, field, value string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, d := range s.allAscending(collection) {
		var m map[string]any
		if err := json.Unmarshal(d.data, &m); err != nil {
			continue
		}
		if got, ok := m[field].(string); ok && got == value {
			withID, err := embedID(d.id, d.data)
			if err != nil {
				continue
			}
			out = append(out, withID)
		}
	}
	return out, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, h Handler) error {
	for _, d := range s.allAscending(collection) {
		withID, err := embedID(d.id, d.data)
		if err != nil {
			continue
		}
		h(Event{Type: EventAdded, Collection: collection, ID: d.id, Data: withID})
	}

	s.mu.Lock()
	s.subs = append(s.subs, &memorySub{ctx: ctx, collection: collection, handler: h})
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) emit(evt Event, doc []byte) {
	if doc != nil {
		withID, err := embedID(evt.ID, doc)
		if err != nil {
			return
		}
		evt.Data = withID
	}

	s.mu.Lock()
	subs := make([]*memorySub, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.collection != evt.Collection || sub.ctx.Err() != nil {
			continue
		}
		sub.handler(evt)
	}
}

func (s *MemoryStore) allAscending(collection string) []rawDoc {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]rawDoc, 0, len(s.docs[collection]))
	for id, raw := range s.docs[collection] {
		docs = append(docs, rawDoc{id: id, data: raw})
	}
	sort.Slice(docs, func(i, j int) bool {
		ti, tj := createdAtOf(docs[i].data), createdAtOf(docs[j].data)
		if ti.Equal(tj) {
			return docs[i].id < docs[j].id
		}
		return ti.Before(tj)
	})
	return docs
}

func createdAtOf(raw []byte) time.Time {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return time.Time{}
	}
	str, ok := m[CreatedAtField].(string)
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}
	}
	return ts
}
