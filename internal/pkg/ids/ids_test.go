package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_SortsInIssueOrder(t *testing.T) {
	prev := New()
	for range 100 {
		next := New()
		assert.Len(t, next, 26)
		assert.Less(t, prev, next)
		prev = next
	}
}
