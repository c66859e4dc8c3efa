package keys

import "strings"

const pairSep = "->"

// PairKey is the canonical key of a challenge sent by challenger to
// opponent. Ids are trimmed; direction matters.
func PairKey(challenger, opponent string) string {
	return strings.TrimSpace(challenger) + pairSep + strings.TrimSpace(opponent)
}

// BothWays returns the pair key in each direction, forward first.
func BothWays(a, b string) [2]string {
	return [2]string{PairKey(a, b), PairKey(b, a)}
}

// ProfileKey keys profile loads for the shared singleflight group.
func ProfileKey(participantID string) string {
	return "profile:" + strings.TrimSpace(participantID)
}
