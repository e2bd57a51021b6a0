package appfs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS(t *testing.T) {
	tests := []string{
		"templates/email/_base.gohtml",
		"templates/email/_base.txt",
		"templates/email/submission_graded.gohtml",
		"templates/email/submission_graded.txt",
		"migrations/00001_profiles.sql",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := fs.ReadFile(FS, name)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}
}
