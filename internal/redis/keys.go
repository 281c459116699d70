package redisx

import "fmt"

const ns = "univista:v1"

func KeyEventSummary(eventID string) string {
	return fmt.Sprintf("%s:event:%s:summary", ns, eventID)
}

func KeyEventAvailability(eventID string) string {
	return fmt.Sprintf("%s:event:%s:availability", ns, eventID)
}

// KeyApprovedEvents caches the approved-events listing. An empty faculty
// means the unfiltered listing.
func KeyApprovedEvents(faculty string) string {
	if faculty == "" {
		faculty = "_all"
	}
	return fmt.Sprintf("%s:events:approved:%s", ns, faculty)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}
