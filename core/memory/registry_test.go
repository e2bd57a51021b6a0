package memory

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/flowlearn/pawfessor/tests"
)

func TestRegistry_For(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir, testutil.NewLogger(t))

	s := reg.For("u1")
	assert.True(t, s.IsReady())
	assert.Same(t, s, reg.For("u1"))
	assert.NotSame(t, s, reg.For("u2"))

	s.Add("Role", "AE")
	_, err := os.Stat(filepath.Join(dir, "u1.json"))
	assert.NoError(t, err)

	// a new registry over the same dir sees the data
	other := NewRegistry(dir, testutil.NewLogger(t))
	v, ok := other.For("u1").Get("role")
	assert.True(t, ok)
	assert.Equal(t, "AE", v)
	assert.Empty(t, other.For("u2").Memories())
}

func TestRegistry_For_escapesUserID(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir, testutil.NewLogger(t))
	reg.For("../evil").Add("Role", "AE")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "..%2Fevil.json", entries[0].Name())
}

func TestRegistry_Purge(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir, testutil.NewLogger(t))
	s := reg.For("u1")
	s.Add("Role", "AE")

	reg.Purge("u1")
	_, err := os.Stat(filepath.Join(dir, "u1.json"))
	assert.True(t, os.IsNotExist(err))

	fresh := reg.For("u1")
	assert.NotSame(t, s, fresh)
	assert.Empty(t, fresh.Memories())
}

func TestVolatileRegistry(t *testing.T) {
	reg := NewVolatileRegistry(testutil.NewLogger(t))
	reg.For("u1").Add("Role", "AE")

	_, ok := reg.For("u1").Get("Role")
	assert.True(t, ok)
	assert.Empty(t, reg.For("u2").Memories())
}

// blockingSlot holds Read until release is closed.
type blockingSlot struct {
	VolatileSlot
	release chan struct{}
	reads   int
	mu      sync.Mutex
}

func (s *blockingSlot) Read() ([]byte, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	<-s.release
	return s.VolatileSlot.Read()
}

func TestRegistry_For_loadsOutsideLock(t *testing.T) {
	slow := &blockingSlot{release: make(chan struct{})}
	reg := NewVolatileRegistry(testutil.NewLogger(t))
	reg.newSlot = func(userID string) Slot {
		if userID == "slow" {
			return slow
		}
		return NewVolatileSlot()
	}

	var wg sync.WaitGroup
	stores := make([]*Store, 4)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i] = reg.For("slow")
		}(i)
	}

	done := make(chan *Store)
	go func() { done <- reg.For("fast") }()
	select {
	case s := <-done:
		assert.True(t, s.IsReady())
	case <-time.After(2 * time.Second):
		t.Fatal("loading one user blocked another")
	}

	close(slow.release)
	wg.Wait()
	for _, s := range stores {
		assert.Same(t, stores[0], s)
		assert.True(t, s.IsReady())
	}
	assert.Equal(t, 1, slow.reads)
}
