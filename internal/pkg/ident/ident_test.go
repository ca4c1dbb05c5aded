//go:build unit

package ident_test

import (
	"testing"

	"spotwise/internal/pkg/ident"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("length and character set", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			id := ident.New()
			require.Len(t, id, ident.Length)
			for _, r := range id {
				ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
				assert.True(t, ok, "unexpected character %q in id %q", r, id)
			}
		}
	})

	t.Run("successive ids differ", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 50; i++ {
			id := ident.New()
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %q", id)
			seen[id] = struct{}{}
		}
	})
}
