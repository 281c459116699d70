package booking

import (
	"crypto/rand"
	"strings"
)

const ticketIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newTicketID builds the human-facing ticket identifier: a fixed prefix
// plus n characters drawn from an unambiguous uppercase alphabet. The
// database enforces uniqueness; a collision fails the insert instead of
// silently reusing an id.
func newTicketID(prefix string, n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)

	var sb strings.Builder
	sb.Grow(len(prefix) + n)
	sb.WriteString(prefix)
	for _, c := range b {
		sb.WriteByte(ticketIDAlphabet[int(c)%len(ticketIDAlphabet)])
	}

	return sb.String()
}
