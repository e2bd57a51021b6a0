package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots(t *testing.T) {
	slots := map[string]func(t *testing.T) Slot{
		"file": func(t *testing.T) Slot {
			return NewFileSlot(filepath.Join(t.TempDir(), "nested", "u1.json"))
		},
		"volatile": func(*testing.T) Slot { return NewVolatileSlot() },
	}
	for name, newSlot := range slots {
		t.Run(name, func(t *testing.T) {
			slot := newSlot(t)

			_, err := slot.Read()
			assert.Equal(t, ErrSlotEmpty, err)
			assert.NoError(t, slot.Remove(), "removing an empty slot is fine")

			require.NoError(t, slot.Write([]byte(`[1]`)))
			require.NoError(t, slot.Write([]byte(`[1,2]`)))
			data, err := slot.Read()
			require.NoError(t, err)
			assert.Equal(t, `[1,2]`, string(data))

			require.NoError(t, slot.Remove())
			_, err = slot.Read()
			assert.Equal(t, ErrSlotEmpty, err)
		})
	}
}

func TestFileSlot_Write_leavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	slot := NewFileSlot(filepath.Join(dir, "u1.json"))
	require.NoError(t, slot.Write([]byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u1.json", entries[0].Name())
}

func TestFileSlot_Read_error(t *testing.T) {
	// a directory where the file should be
	dir := t.TempDir()
	slot := NewFileSlot(dir)

	_, err := slot.Read()
	require.Error(t, err)
	assert.NotEqual(t, ErrSlotEmpty, err)
}

func TestVolatileSlot_Read_returnsCopy(t *testing.T) {
	slot := NewVolatileSlot()
	require.NoError(t, slot.Write([]byte("abc")))

	data, _ := slot.Read()
	data[0] = 'x'
	again, _ := slot.Read()
	assert.Equal(t, "abc", string(again))
}
