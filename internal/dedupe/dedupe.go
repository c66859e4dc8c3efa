package dedupe

// Package dedupe provides shared singleflight groups. A participant who
// sends joinGame twice in quick succession, or two sessions asking for the
// same profile, trigger a single load while the other callers wait for it.

import "golang.org/x/sync/singleflight"

// ProfileGroup deduplicates profile provider lookups keyed by
// keys.ProfileKey(participantID).
var ProfileGroup singleflight.Group
