package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTicketID(t *testing.T) {
	id := newTicketID("UNIV-", 10)

	assert.Len(t, id, 15)
	assert.True(t, strings.HasPrefix(id, "UNIV-"))

	for _, c := range id[len("UNIV-"):] {
		assert.Contains(t, ticketIDAlphabet, string(c))
	}
}

func TestNewTicketIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := newTicketID("UNIV-", 10)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
