package constants

import "time"

// Environment variable keys
const (
	EnvConfigPath     = "ARENA_CONFIG"
	EnvDatabase       = "ARENA_DB"
	EnvAddress        = "ARENA_ADDR"
	EnvJWTSecret      = "ARENA_JWT_SECRET"
	EnvLogLevel       = "ARENA_LOG_LEVEL"
	EnvAllowedOrigins = "ARENA_ALLOWED_ORIGINS"
	EnvHealthcheckURL = "ARENA_HEALTHCHECK_URL"
)

// Defaults used when neither the config file nor the environment provide a value.
const (
	DefaultConfigPath = "./arena_config.json"
	DefaultDatabase   = "./data/arena.db"
	DefaultAddress    = ":8080"
)

// Match timing defaults.
const (
	DefaultTurnTimeLimit   = 30 * time.Second
	DefaultSettleDelay     = 1 * time.Second
	DefaultChallengeExpiry = 60 * time.Second
	DefaultGracePeriod     = 10 * time.Second
	DefaultWatchdogExtra   = 5 * time.Second
	DefaultBotAcceptMin    = 500 * time.Millisecond
	DefaultBotAcceptMax    = 1500 * time.Millisecond
	DefaultWaitingTTL      = 2 * time.Minute
	SweepInterval          = 30 * time.Second
	ShutdownTimeout        = 10 * time.Second
)

// Reward dispatch sizing.
const (
	RewardWorkers     = 2
	RewardQueueSize   = 256
	// RewardEnqueueWait bounds how long a finished match waits for queue room.
	RewardEnqueueWait = 2 * time.Second
)

// HTTP headers
const (
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "
	QueryToken          = "token"
)

// Routes used by the backend router
const (
	RouteHealth      = "/healthz"
	RouteAPIPrefix   = "/api"
	RouteVersion     = "/version"
	RouteBots        = "/bots"
	RouteGames       = "/games"
	RouteWebSocket   = "/ws"
	RouteLobby       = "/lobby"
	RouteLeaderboard = "/leaderboard"
	RouteProfile     = "/me"
	RouteOutcomes    = "/me/outcomes"
)

// Context keys set by the auth middleware
const (
	CtxParticipantID   = "participantID"
	CtxParticipantName = "participantName"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
)

// Common error messages used across API handlers
const (
	ErrAuthRequired           = "Authentication required"
	ErrInvalidSession         = "Invalid session"
	ErrUpgradeFailed          = "Failed to upgrade connection"
	ErrProcessingFailure      = "The round could not be processed; the match was stopped."
	ErrFailedFetchLeaderboard = "Failed to fetch leaderboard"
	ErrFailedFetchOutcomes    = "Failed to fetch match history"
	ErrProfileNotFound        = "Profile not found"
)

// Logging field names
const (
	LogFieldGameID        = "game_id"
	LogFieldParticipantID = "participant_id"
	LogFieldOpponentID    = "opponent_id"
	LogFieldChallengeID   = "challenge_id"
	LogFieldRound         = "round"
	LogFieldStatus        = "status"
	LogFieldReason        = "reason"
	LogFieldWinner        = "winner_id"
	LogFieldOutcome       = "outcome"
	LogFieldMessageType   = "message_type"
	LogFieldAddr          = "addr"
	LogFieldDelay         = "delay_ms"
	LogFieldBotID         = "bot_id"
)
