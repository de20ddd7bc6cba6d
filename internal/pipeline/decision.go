package pipeline

import (
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// Decide reports whether any roster member is a participant.
func Decide(roster, participants pr.IdentitySet) bool {
	small, large := roster, participants
	if len(large) < len(small) {
		small, large = large, small
	}
	for id := range small {
		if large.Has(id) {
			return true
		}
	}
	return false
}

// Actors returns the roster members who participated, sorted.
func Actors(roster, participants pr.IdentitySet) []string {
	acted := make([]pr.Identity, 0)
	for id := range participants {
		if roster.Has(id) {
			acted = append(acted, id)
		}
	}
	return pr.NewIdentitySet(acted...).Strings()
}
