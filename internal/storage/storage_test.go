package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	valid := []string{"courses/1-abc-image.png", "users/a.jpg", "file.bin"}
	for _, k := range valid {
		got, err := CleanKey(k)
		require.NoError(t, err, k)
		assert.Equal(t, k, got)
	}

	invalid := []string{
		"",
		"   ",
		"/etc/passwd",
		"../secret",
		"courses/../../secret",
		"courses//double",
		"courses/./x",
		"..",
		".",
		"courses\\win",
	}
	for _, k := range invalid {
		_, err := CleanKey(k)
		assert.ErrorIs(t, err, ErrInvalidKey, k)
	}
}
