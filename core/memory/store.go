// Package memory keeps small facts about a user (role, goals, preferences)
// that personalize generated courses and the chat assistant.
package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowlearn/pawfessor/core"
)

var (
	nowFunc   = time.Now       // mockable
	newIDFunc = uuid.NewString // mockable
)

// Store is the authoritative collection of Items for one user session.
// Every mutation rewrites the whole slot; Clear removes it.
// Callers must not trust Memories() until IsReady() is true.
type Store struct {
	mu     sync.RWMutex
	slot   Slot
	logger core.Logger
	items  []Item
	ready  bool

	loadOnce sync.Once
}

func NewStore(slot Slot, logger core.Logger) *Store {
	return &Store{
		slot:   slot,
		logger: logger,
		items:  []Item{},
	}
}

// Load reads the slot. Missing or unreadable data yields an empty collection;
// placeholder items are dropped, unknown categories become professional, and the collection is
// written back when either changed anything.
// The store is ready afterwards whatever happened.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.ready = true }()

	s.items = []Item{}

	data, err := s.slot.Read()
	if err != nil {
		if err != ErrSlotEmpty {
			s.logger.Error(fmt.Sprintf("memory: reading slot: %v", err), err)
		}
		return
	}

	var items []Item
	if err = json.Unmarshal(data, &items); err != nil {
		s.logger.Warn(fmt.Sprintf("memory: discarding unreadable slot: %v", err), err)
		return
	}

	kept, removed := withoutPlaceholders(items)
	fixed := normalizeCategories(kept)
	s.items = kept
	if removed > 0 {
		s.logger.Info(fmt.Sprintf("memory: removed %d placeholder item(s)", removed))
	}
	if fixed > 0 {
		s.logger.Info(fmt.Sprintf("memory: recategorized %d item(s) as %s", fixed, CategoryProfessional))
	}
	if removed > 0 || fixed > 0 {
		s.persist()
	}
}

// ensureLoaded runs Load once for the lifetime of the store.
func (s *Store) ensureLoaded() {
	s.loadOnce.Do(s.Load)
}

func (s *Store) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Memories returns a copy of the collection in insertion order.
func (s *Store) Memories() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items
}

// Add appends a new item. Keys are not deduplicated; use Upsert for that.
// category defaults to CategoryProfessional.
func (s *Store) Add(key, value string, category ...Category) Item {
	cat := CategoryProfessional
	if len(category) > 0 {
		cat = category[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(key, value, cat)
}

// add appends and persists; s.mu must be held.
func (s *Store) add(key, value string, category Category) Item {
	it := Item{
		ID:          newIDFunc(),
		Key:         key,
		Value:       value,
		Category:    ParseCategory(string(category)),
		LastUpdated: nowFunc().UTC(),
	}
	s.items = append(s.items, it)
	s.persist()
	return it
}

// Update sets the value of the item with the given id.
// It reports whether the item exists; an unknown id is a no-op.
func (s *Store) Update(id, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.items[idx].Value = value
	s.items[idx].LastUpdated = nowFunc().UTC()
	s.persist()
	return true
}

// Delete removes the item with the given id. An unknown id is a no-op.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persist()
	return true
}

// Get returns the value of the first item whose key matches, ignoring case.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if it, ok := s.find(key); ok {
		return it.Value, true
	}
	return "", false
}

// Lookup is Get returning the whole item.
func (s *Store) Lookup(key string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(key)
}

// Upsert updates the value of the first item matching key (keeping its id & category)
// or adds a new item when there is none.
func (s *Store) Upsert(key, value string, category Category) Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if strings.EqualFold(s.items[i].Key, key) {
			s.items[i].Value = value
			s.items[i].LastUpdated = nowFunc().UTC()
			s.persist()
			return s.items[i]
		}
	}
	return s.add(key, value, category)
}

// Clear empties the collection and removes the slot,
// so a later Load starts from nothing rather than from an empty list.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []Item{}
	if err := s.slot.Remove(); err != nil {
		s.logger.Error(fmt.Sprintf("memory: removing slot: %v", err), err)
	}
}

// Summary renders the facts grouped by category, eg. for an LLM prompt.
func (s *Store) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, cat := range Categories {
		var wroteHeader bool
		for _, it := range s.items {
			if it.Category != cat {
				continue
			}
			if !wroteHeader {
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				b.WriteString(cat.Label() + ":\n")
				wroteHeader = true
			}
			fmt.Fprintf(&b, "- %s: %s\n", it.Key, it.Value)
		}
	}
	return b.String()
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) find(key string) (Item, bool) {
	for _, it := range s.items {
		if strings.EqualFold(it.Key, key) {
			return it, true
		}
	}
	return Item{}, false
}

// persist writes the full snapshot; s.mu must be held.
// A failed write is logged: the in-memory collection stays authoritative.
func (s *Store) persist() {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error(fmt.Sprintf("memory: encoding items: %v", err), err)
		return
	}
	if err = s.slot.Write(data); err != nil {
		s.logger.Error(fmt.Sprintf("memory: writing slot: %v", err), err)
	}
}
