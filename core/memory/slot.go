package memory

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// ErrSlotEmpty is returned by Slot.Read when nothing was ever written (or the slot was removed).
var ErrSlotEmpty = errors.New("memory slot is empty")

// Slot is a single named durable entry holding the serialized collection.
type Slot interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Remove() error
}

// FileSlot keeps the collection in one JSON file.
type FileSlot struct {
	path string
}

var _ Slot = (*FileSlot)(nil)

func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

func (s *FileSlot) Path() string { return s.path }

func (s *FileSlot) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSlotEmpty
		}
		return nil, pkgerrors.Wrapf(err, "reading %s", s.path)
	}
	return data, nil
}

// Write replaces the file atomically (temp file + rename) so a crash never leaves half a snapshot.
func (s *FileSlot) Write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return pkgerrors.Wrap(err, "creating memory dir")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return pkgerrors.Wrap(err, "writing temp file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return pkgerrors.Wrapf(err, "renaming to %s", s.path)
	}
	return nil
}

func (s *FileSlot) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrapf(err, "removing %s", s.path)
	}
	return nil
}

// VolatileSlot lives in process memory only.
type VolatileSlot struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

var _ Slot = (*VolatileSlot)(nil)

func NewVolatileSlot() *VolatileSlot {
	return new(VolatileSlot)
}

func (s *VolatileSlot) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), s.data...), nil
}

func (s *VolatileSlot) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.set = true
	return nil
}

func (s *VolatileSlot) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.set = false
	return nil
}
