package fix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextOrderIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NextOrderID()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate order ID %s", id)
		seen[id] = true
	}
}
