package game

// LogType tags a combat log entry.
type LogType string

const (
	LogHit     LogType = "hit"
	LogBlock   LogType = "block"
	LogEvade   LogType = "evade"
	LogDefeat  LogType = "defeat"
	LogVictory LogType = "victory"
	LogSkip    LogType = "skip"
	LogDraw    LogType = "draw"
)

// LogEntry is one line of the per-round combat log.
type LogEntry struct {
	Type        LogType `json:"type"`
	ActorID     string  `json:"actorId"`
	TargetID    string  `json:"targetId,omitempty"`
	Area        *Area   `json:"area,omitempty"`
	Damage      int     `json:"damage"`
	Critical    bool    `json:"critical"`
	IgnoreBlock bool    `json:"ignoreBlock"`
	Poison      bool    `json:"poison"`
	Blocked     bool    `json:"blocked"`
	Evaded      bool    `json:"wasEvaded"`
	Message     string  `json:"message"`
}
