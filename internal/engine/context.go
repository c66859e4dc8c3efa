package engine

import (
	"strings"

	"github.com/ericogr/duel-arena/internal/game"
)

// --- Round context and helpers ----------------------------------------
type roundContext struct {
	roller Roller
	log    []game.LogEntry
}

func newRoundContext(r Roller) *roundContext {
	return &roundContext{roller: r, log: make([]game.LogEntry, 0, 6)}
}

func (rc *roundContext) add(e game.LogEntry) { rc.log = append(rc.log, e) }

func (rc *roundContext) roll() int { return rc.roller.Roll() }

// summary returns the log messages as a single string.
func (rc *roundContext) summary() string {
	lines := make([]string, 0, len(rc.log))
	for _, e := range rc.log {
		lines = append(lines, e.Message)
	}
	return strings.Join(lines, "\n")
}
