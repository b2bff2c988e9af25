// Package mentions computes how many messages mention each community
// member. A message mentions a user when its body contains the user's
// mention token, "@" followed by the exact username; a message counts at
// most once per user no matter how many times the token repeats.
package mentions

import (
	"strings"

	"github.com/wisdomcircle/circled/internal/models"
)

// Counts maps username to the number of messages mentioning that user.
type Counts map[string]int

// Count recomputes mention totals for every username from the full
// message list. Every username appears in the result, zero included.
func Count(usernames []string, messages []models.Message) Counts {
	counts := make(Counts, len(usernames))
	for _, name := range usernames {
		counts[name] = 0
	}
	for _, m := range messages {
		for _, name := range usernames {
			if Mentions(m, name) {
				counts[name]++
			}
		}
	}
	return counts
}

// Mentions reports whether the message body contains username's mention
// token. Matching is a plain substring check, so "@ab" also matches
// inside "@abc"; usernames with a common prefix can over-count.
func Mentions(m models.Message, username string) bool {
	if username == "" {
		return false
	}
	return strings.Contains(m.Body, models.MentionToken(username))
}
